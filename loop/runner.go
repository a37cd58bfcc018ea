package loop

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/shop"
	"golang.org/x/time/rate"
)

// Game is the part of game.Service the runner drives.
type Game interface {
	Frame(now time.Time)
	Second(ctx context.Context) (shop.Summary, bool, error)
	State() game.State
}

type Publisher func(st game.State)

// Runner drives a game from a frame ticker and a 1 Hz ticker on a single
// goroutine and publishes render frames at a throttled rate.
type Runner struct {
	logger     *log.Logger
	game       Game
	publish    Publisher
	frameEvery time.Duration
	limiter    *rate.Limiter
}

func NewRunner(logger *log.Logger, g Game, frameHz, broadcastHz int, publish Publisher) *Runner {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(g)
	assert.AssertNotNil(publish)
	assert.Assert(frameHz > 0, "frame rate must be positive")
	assert.Assert(broadcastHz > 0, "broadcast rate must be positive")

	return &Runner{
		logger:     logger,
		game:       g,
		publish:    publish,
		frameEvery: time.Second / time.Duration(frameHz),
		limiter:    rate.NewLimiter(rate.Limit(broadcastHz), 1),
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	frames := time.NewTicker(r.frameEvery)
	defer frames.Stop()
	seconds := time.NewTicker(time.Second)
	defer seconds.Stop()

	r.logger.Info("game loop started", "frameEvery", r.frameEvery)
	defer r.logger.Info("game loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-frames.C:
			r.frame(now)
		case <-seconds.C:
			r.second(ctx)
		}
	}
}

func (r *Runner) frame(now time.Time) {
	r.game.Frame(now)
	if !r.limiter.AllowN(now, 1) {
		return
	}
	st := r.game.State()
	if st.Phase != game.Playing {
		return
	}
	r.publish(st)
}

func (r *Runner) second(ctx context.Context) {
	sum, ended, err := r.game.Second(ctx)
	if err != nil {
		r.logger.Error("day end", "err", err)
	}
	if !ended {
		return
	}
	r.logger.Debug("publishing day end", "revenue", sum.Revenue, "success", sum.Success)
	r.publish(r.game.State())
}
