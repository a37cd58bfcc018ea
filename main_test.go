package main

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/stream"
)

func TestCleanup(t *testing.T) {
	expected := []int{4, 3, 2, 1, 0}
	out := []int{}
	cfs := CleanupFuncs{}
	for i := range 5 {
		cfs.Defer(func() error {
			out = append(out, i)
			return nil
		})
	}

	err := cfs.Cleanup()
	assert.NoError(t, err)

	require.Len(t, out, 5)
	for i := range expected {
		assert.Equal(t, expected[i], out[i])
	}
}

func TestCleanupJoinsErrors(t *testing.T) {
	cfs := CleanupFuncs{}
	cfs.Defer(func() error { return errors.New("first") })
	cfs.Defer(func() error { return nil })
	cfs.Defer(func() error { return errors.New("last") })

	err := cfs.Cleanup()
	require.Error(t, err)
	assert.Equal(t, "last\nfirst", err.Error())
}

type closer struct {
	err    error
	closed int
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

func TestCleanupDeferCloseRunsOnce(t *testing.T) {
	db := &closer{err: errors.New("busy")}
	cache := &closer{}
	cfs := CleanupFuncs{}
	cfs.DeferClose("db", db)
	cfs.DeferClose("cache", cache)

	err := cfs.Cleanup()
	require.Error(t, err)
	assert.Equal(t, "close db: busy", err.Error())
	assert.NoError(t, cfs.Cleanup(), "second cleanup has nothing left to run")
	assert.Equal(t, 1, db.closed)
	assert.Equal(t, 1, cache.closed)
}

func TestInitDependencies(t *testing.T) {
	config := viper.New()
	setDefaults(config)
	config.Set("SAVE_DB_PATH", "")
	config.Set("SAVE_SLOT", "test")
	config.Set("SEED1", 1)
	config.Set("SEED2", 2)

	deps, cfs, err := initDependencies(log.New(io.Discard), config)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cfs.Cleanup()) })

	assert.Equal(t, "test", deps.Slot)
	assert.Equal(t, 1, deps.Game.Snapshot().CurrentDay)
	assert.Zero(t, deps.WSMux.Connected())
	assert.NotNil(t, deps.SessionStore)

	var got []string
	id := deps.WSMux.Connect(func(_ stream.ID, data []byte) {
		got = append(got, string(data))
	})
	require.Len(t, got, 1)
	assert.Contains(t, got[0], `"type":"state"`)

	require.NoError(t, deps.Game.StartDay(game.DayOptions{DurationSec: 30}))
	require.NoError(t, deps.WSMux.UserMessage(id, []byte(`{"type":"clean"}`)))
	assert.Contains(t, got[len(got)-1], `"type":"ack"`)
}
