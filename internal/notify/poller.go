package notify

import (
	"context"
	"time"

	"github.com/safar/boutique/internal/models"
)

// Poller drives periodic notification fetches for the lifetime of a buyer
// session.
type Poller struct {
	dispatcher *Dispatcher
	interval   time.Duration
}

func NewPoller(dispatcher *Dispatcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{dispatcher: dispatcher, interval: interval}
}

// Watch polls immediately and then on every tick, sending each batch on the
// returned channel. A stale batch is dropped when the consumer has not caught
// up. Cancelling ctx stops the ticker and closes the channel; the caller must
// cancel on logout or teardown so no timer leaks across sessions.
func (p *Poller) Watch(ctx context.Context, buyerID string) <-chan []models.Notification {
	out := make(chan []models.Notification, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		deliver := func() {
			batch := p.dispatcher.Poll(ctx, buyerID)
			select {
			case out <- batch:
			default:
				select {
				case <-out:
				default:
				}
				out <- batch
			}
		}

		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deliver()
			}
		}
	}()

	return out
}
