package api

import (
	"github.com/charmbracelet/log"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
)

func registerRoutes(e *echo.Echo, logger *log.Logger, config *viper.Viper, deps *ServerDependencies) {
	g := e.Group("/game")
	g.GET("", handleGetState(deps.Game))
	g.GET("/special", handleGetSpecial(deps.Game))
	g.GET("/history", handleGetHistory(logger, deps.History, deps.Slot))
	g.POST("/day", handlePostStartDay(logger, deps.Game))
	g.POST("/day/finish", handlePostFinishDay(logger, deps.Game))
	g.POST("/slots/:slot/load", handlePostLoad(deps.Game))
	g.POST("/slots/:slot/collect", handlePostCollect(deps.Game))
	g.POST("/clean", handlePostClean(deps.Game))
	g.POST("/upgrades/:category", handlePostUpgrade(logger, deps.Game))

	ws := e.Group("/game/ws", session.Middleware(deps.SessionStore))
	ws.GET("", handleWebsocketConn(logger.WithPrefix("ws"), deps.WSMux))

	// admin routes need both secrets
	if config.GetString("JWT_SIGNING_KEY") == "" || config.GetString("OTP_SECRET") == "" {
		logger.Warn("admin routes disabled, JWT_SIGNING_KEY or OTP_SECRET not set")
		return
	}
	e.GET("/auth/token", handleGetToken(logger, config))
	e.POST("/auth/verify", handlePostVerifyToken(logger, config))

	admin := e.Group("/admin", requireAuthMiddleware(logger, config))
	admin.POST("/reset", handlePostReset(logger, deps.Game))
}
