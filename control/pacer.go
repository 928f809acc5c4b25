package control

import (
	"context"
	"time"
)

// Pacer blocks until the next tick boundary. Next returns false once the loop should stop.
type Pacer interface {
	Next(ctx context.Context) bool
}

type TickerPacer struct {
	ticker *time.Ticker
}

func NewTickerPacer(interval time.Duration) *TickerPacer {
	return &TickerPacer{ticker: time.NewTicker(interval)}
}

func (tp *TickerPacer) Next(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-tp.ticker.C:
		return true
	}
}

func (tp *TickerPacer) Stop() {
	tp.ticker.Stop()
}
