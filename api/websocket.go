package api

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/stream"
)

const (
	sessionName   = "bungeoppang"
	playerIDKey   = "playerId"
	readLimit     = stream.MessageSizeLimit
	sessionMaxAge = 7 * 24 * 60 * 60
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func handleWebsocketConn(logger *log.Logger, mx *stream.Mux) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(mx)

	return func(c echo.Context) error {
		sess, err := session.Get(sessionName, c)
		if err != nil {
			logger.Error("get session", "err", err)
		}

		// Writes happen from the loop broadcaster and from action acks.
		var conn *websocket.Conn
		var writeMu sync.Mutex
		write := func(id stream.ID, data []byte) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if conn == nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("ws write", "err", err, "id", id)
			}
		}

		playerID, reconnected := previousPlayer(sess, mx)
		if !reconnected {
			playerID = mx.NewID()
		}

		if sess != nil {
			if sess.Options == nil {
				sess.Options = &sessions.Options{Path: "/"}
			}
			sess.Options.MaxAge = sessionMaxAge
			sess.Options.HttpOnly = true
			sess.Values[playerIDKey] = playerID
			if err := sess.Save(c.Request(), c.Response()); err != nil {
				logger.Error("save session", "err", err)
			}
		}

		logger.Debug("upgrading to websocket connection", "id", playerID, "reconnected", reconnected)

		// the upgrade response only carries headers passed explicitly
		responseHeader := http.Header{}
		for _, cookie := range c.Response().Header().Values("Set-Cookie") {
			responseHeader.Add("Set-Cookie", cookie)
		}

		ws, err := upgrader.Upgrade(c.Response(), c.Request(), responseHeader)
		if err != nil {
			logger.Error(err)
			return err
		}
		defer ws.Close()
		ws.SetReadLimit(readLimit)

		writeMu.Lock()
		conn = ws
		writeMu.Unlock()
		defer func() {
			writeMu.Lock()
			conn = nil
			writeMu.Unlock()
		}()

		// connect hooks write to the player, so join only once conn is set
		if err := mx.ConnectAs(playerID, write); err != nil {
			logger.Debug("player id taken, drawing a new one", "id", playerID, "err", err)
			playerID = mx.Connect(write)
		}
		defer mx.Disconnect(playerID)

		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				logger.Debug("ws read", "err", err, "id", playerID)
				break
			}

			if err = mx.UserMessage(playerID, msg); err != nil {
				logger.Errorf("mux user message: %s", err)
				_ = mx.Send(playerID, "error", err.Error())
			}
		}

		return nil
	}
}

// previousPlayer returns the id stored in the session when no connected
// player holds it.
func previousPlayer(sess *sessions.Session, mx *stream.Mux) (stream.ID, bool) {
	if sess == nil {
		return 0, false
	}
	id, ok := sess.Values[playerIDKey].(stream.ID)
	if !ok || id == 0 || mx.IsConnected(id) {
		return 0, false
	}
	return id, true
}
