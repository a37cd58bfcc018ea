package api

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tifye/bungeoppang/economy"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/progress"
	"github.com/tifye/bungeoppang/shop"
	"github.com/tifye/bungeoppang/storage"
	"github.com/tifye/bungeoppang/stream"
)

const (
	testSigningKey = "test-signing-key"
	testOTPSecret  = "JBSWY3DPEHPK3PXP"
)

type memStore struct {
	snaps   map[string]progress.Snapshot
	records []storage.DayRecord
}

func (m *memStore) LoadSnapshot(_ context.Context, slot string) (progress.Snapshot, bool, error) {
	snap, ok := m.snaps[slot]
	return snap, ok, nil
}

func (m *memStore) SaveSnapshot(_ context.Context, slot string, snap progress.Snapshot) error {
	m.snaps[slot] = snap
	return nil
}

func (m *memStore) DeleteSlot(_ context.Context, slot string) error {
	delete(m.snaps, slot)
	m.records = nil
	return nil
}

func (m *memStore) AppendSummary(_ context.Context, _ string, day int, sum shop.Summary) (storage.DayRecord, error) {
	rec := storage.DayRecord{ID: "rec", Day: day, Summary: sum}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memStore) Summaries(_ context.Context, _ string, limit uint) ([]storage.DayRecord, error) {
	return m.records[:min(int(limit), len(m.records))], nil
}

type testEnv struct {
	e     *echo.Echo
	store *memStore
	svc   *game.Service
	mux   *stream.Mux
}

func newTestEnv(t *testing.T, withAdmin bool) *testEnv {
	t.Helper()
	logger := log.New(io.Discard)

	store := &memStore{snaps: map[string]progress.Snapshot{}}
	svc := game.NewService(logger, store, "main", shop.SeededRand(3))
	require.NoError(t, svc.Restore(context.Background()))

	mx := stream.NewMux(logger, rand.New(rand.NewPCG(1, 1)))
	stream.RegisterActions(mx, svc)

	config := viper.New()
	if withAdmin {
		config.Set("JWT_SIGNING_KEY", testSigningKey)
		config.Set("OTP_SECRET", testOTPSecret)
	}

	e := echo.New()
	registerRoutes(e, logger, config, &ServerDependencies{
		Game:         svc,
		History:      store,
		Slot:         "main",
		WSMux:        mx,
		SessionStore: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
	})
	return &testEnv{e: e, store: store, svc: svc, mux: mx}
}

func (env *testEnv) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetState(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodGet, "/game", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode(t, rec)
	assert.Equal(t, "IDLE", st["phase"])
	assert.Equal(t, float64(5000), st["goal"])
	assert.Nil(t, st["shop"])
	assert.Len(t, st["upgrades"], 8)
}

func TestStartDayAndActions(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/game/day", `{"durationSec":30,"priceModifier":1.2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode(t, rec)
	assert.Equal(t, "PLAYING", st["phase"])
	shopView := st["shop"].(map[string]any)
	assert.Equal(t, float64(600), shopView["pricePerUnit"])
	assert.Equal(t, float64(30), shopView["timeRemainingSec"])

	rec = env.do(t, http.MethodPost, "/game/day", `{}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/game/slots/0/load", `{"filling":"PIZZA"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["ok"])

	rec = env.do(t, http.MethodPost, "/game/slots/0/load", `{"filling":"PIZZA"}`, nil)
	assert.Equal(t, false, decode(t, rec)["ok"], "slot already cooking")

	rec = env.do(t, http.MethodPost, "/game/slots/1/load", `{"filling":"KIMCHI"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/game/slots/x/load", `{"filling":"PIZZA"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/game/slots/0/collect", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["ok"], "still cooking")

	rec = env.do(t, http.MethodPost, "/game/clean", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["cleared"])

	rec = env.do(t, http.MethodPost, "/game/upgrades/MOLD_COUNT", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "no shopping during a day")
}

func TestUpgradeEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/game/upgrades/FRYER", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/game/upgrades/AUTO_SERVE", "", nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	env.store.snaps["main"] = progress.Snapshot{CurrentDay: 2, CumulativeRevenue: 100000}
	require.NoError(t, env.svc.Restore(context.Background()))

	rec = env.do(t, http.MethodPost, "/game/upgrades/AUTO_BAKE", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.svc.Snapshot().Upgrades.Of(economy.AutoBake))

	rec = env.do(t, http.MethodPost, "/game/upgrades/AUTO_BAKE", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "already maxed")
}

func TestFinishDayOutOfPhase(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodPost, "/game/day/finish", `{"bonus":100}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetHistory(t *testing.T) {
	env := newTestEnv(t, false)
	for day := 1; day <= 3; day++ {
		_, _ = env.store.AppendSummary(context.Background(), "main", day, shop.Summary{Revenue: day * 100})
	}

	rec := env.do(t, http.MethodGet, "/game/history?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []storage.DayRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)
}

func TestAdminRoutesDisabledWithoutSecrets(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodPost, "/admin/reset", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func signToken(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestAdminReset(t *testing.T) {
	env := newTestEnv(t, true)
	env.store.snaps["main"] = progress.Snapshot{CurrentDay: 7, CumulativeRevenue: 10}
	require.NoError(t, env.svc.Restore(context.Background()))

	rec := env.do(t, http.MethodPost, "/admin/reset", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/reset", "", bearer(signToken(t, adminSubject, time.Now().Add(-time.Minute))))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/reset", "", bearer(signToken(t, "someone", time.Now().Add(time.Minute))))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 7, env.svc.Snapshot().CurrentDay)

	rec = env.do(t, http.MethodPost, "/admin/reset", "", bearer(signToken(t, adminSubject, time.Now().Add(time.Minute))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.svc.Snapshot().CurrentDay)
}

func TestGetTokenWithPasscode(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/auth/token", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/token", "", http.Header{"Passcode": []string{"000000x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	code, err := totp.GenerateCode(testOTPSecret, time.Now())
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/auth/token", "", http.Header{"Passcode": []string{code}})
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Body.String()

	rec = env.do(t, http.MethodPost, "/auth/verify", "", bearer(token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebsocketActions(t *testing.T) {
	env := newTestEnv(t, false)
	require.NoError(t, env.svc.StartDay(game.DayOptions{}))

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/ws"
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.NotEmpty(t, res.Header.Values("Set-Cookie"), "player id is kept in a session cookie")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"load","payload":{"slot":1,"filling":"HONEY"}}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg stream.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "ack", msg.Type)
	var ack stream.Ack
	require.NoError(t, json.Unmarshal(msg.Payload, &ack))
	assert.Equal(t, stream.Ack{Action: "load", OK: true}, ack)

	slot := env.svc.State().Shop.Slots[1]
	assert.Equal(t, shop.Cooking, slot.State)
	assert.Equal(t, shop.Honey, slot.Filling)

	require.NoError(t, env.mux.Broadcast("frame", env.svc.State(), nil))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "frame", msg.Type)
}

func TestWebsocketSendsStateOnConnect(t *testing.T) {
	env := newTestEnv(t, false)
	env.mux.RegisterConnectHook(func(id stream.ID, _ *stream.User) {
		assert.NoError(t, env.mux.Send(id, "state", env.svc.State()))
	})

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"clean"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg stream.Message
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "state", msg.Type, "state comes before anything else")

	var st struct {
		Phase string `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &st))
	assert.Equal(t, "IDLE", st.Phase)

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "ack", msg.Type)
	assert.Equal(t, 1, env.mux.Connected())
}
