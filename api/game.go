package api

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/economy"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/progress"
	"github.com/tifye/bungeoppang/shop"
)

type actionResponse struct {
	OK      bool `json:"ok"`
	Cleared int  `json:"cleared,omitempty"`
}

func handleGetState(svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(svc)
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.State())
	}
}

func handleGetSpecial(svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(svc)
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.State().Special)
	}
}

func handleGetHistory(logger *log.Logger, history History, slot string) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(history)
	assert.AssertNotEmpty(slot)

	type request struct {
		Limit uint `query:"limit"`
	}
	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		if req.Limit == 0 || req.Limit > 100 {
			req.Limit = 20
		}

		records, err := history.Summaries(c.Request().Context(), slot, req.Limit)
		if err != nil {
			logger.Error("day history", "err", err)
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, records)
	}
}

func handlePostStartDay(logger *log.Logger, svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(svc)
	return func(c echo.Context) error {
		var opts game.DayOptions
		if err := c.Bind(&opts); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}

		err := svc.StartDay(opts)
		if errors.Is(err, game.ErrWrongPhase) {
			return c.String(http.StatusConflict, err.Error())
		}
		if err != nil {
			logger.Error("start day", "err", err)
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, svc.State())
	}
}

func handlePostFinishDay(logger *log.Logger, svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(svc)

	type request struct {
		Bonus int `json:"bonus"`
	}
	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}

		err := svc.FinishDay(c.Request().Context(), req.Bonus)
		if errors.Is(err, game.ErrWrongPhase) {
			return c.String(http.StatusConflict, err.Error())
		}
		if err != nil {
			logger.Error("finish day", "err", err)
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, svc.State())
	}
}

func handlePostLoad(svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(svc)

	type request struct {
		Slot    int          `param:"slot"`
		Filling shop.Filling `json:"filling"`
	}
	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		if !req.Filling.Valid() {
			return c.String(http.StatusBadRequest, "unknown filling")
		}
		return c.JSON(http.StatusOK, actionResponse{OK: svc.Load(req.Slot, req.Filling)})
	}
}

func handlePostCollect(svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(svc)

	type request struct {
		Slot int `param:"slot"`
	}
	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		return c.JSON(http.StatusOK, actionResponse{OK: svc.Collect(req.Slot)})
	}
}

func handlePostClean(svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(svc)
	return func(c echo.Context) error {
		n := svc.CleanAll()
		return c.JSON(http.StatusOK, actionResponse{OK: n > 0, Cleared: n})
	}
}

func handlePostUpgrade(logger *log.Logger, svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(svc)

	type request struct {
		Category string `param:"category"`
	}
	type response struct {
		Cost  int        `json:"cost"`
		State game.State `json:"state"`
	}
	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		category, err := economy.ParseCategory(req.Category)
		if err != nil {
			return c.String(http.StatusNotFound, err.Error())
		}

		cost, err := svc.PurchaseUpgrade(c.Request().Context(), category)
		switch {
		case errors.Is(err, progress.ErrInsufficient):
			return c.String(http.StatusPaymentRequired, err.Error())
		case errors.Is(err, progress.ErrMaxLevel), errors.Is(err, game.ErrWrongPhase):
			return c.String(http.StatusConflict, err.Error())
		case err != nil:
			logger.Error("purchase upgrade", "category", category, "err", err)
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, response{Cost: cost, State: svc.State()})
	}
}

func handlePostReset(logger *log.Logger, svc *game.Service) echo.HandlerFunc {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(svc)
	return func(c echo.Context) error {
		if err := svc.Reset(c.Request().Context()); err != nil {
			logger.Error("reset", "err", err)
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, svc.State())
	}
}
