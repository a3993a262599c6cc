package runner

import (
	"log/slog"
	"time"
)

// Ticker is the part of time.Ticker the runners use, so tests can drive
// ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

type Options struct {
	// Interval between ticks; one second in production.
	Interval time.Duration
	// DisplayDelay is how long a completed session stays completed before
	// going idle.
	DisplayDelay time.Duration
	NewTicker    TickerFunc
	Logger       *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.DisplayDelay < 0 {
		o.DisplayDelay = 0
	}
	if o.NewTicker == nil {
		o.NewTicker = NewStdTicker
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

const subscriberBuffer = 16
