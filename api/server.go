package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/storage"
	"github.com/tifye/bungeoppang/stream"
)

// History lists finished days of a save slot.
type History interface {
	Summaries(ctx context.Context, slot string, limit uint) ([]storage.DayRecord, error)
}

type ServerDependencies struct {
	Game         *game.Service
	History      History
	Slot         string
	WSMux        *stream.Mux
	SessionStore sessions.Store
}

func NewServer(logger *log.Logger, config *viper.Viper, deps *ServerDependencies) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := &http.Server{
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       25 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		ErrorLog:          logger.StandardLog(),
		MaxHeaderBytes:    1024,
	}

	registerRoutes(e, logger, config, deps)

	return server
}
