// Package payment is a stand-in for a real payment processor: it always
// succeeds after a configured delay.
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Receipt struct {
	Reference   string          `json:"reference"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	ProcessedAt time.Time       `json:"processedAt"`
}

type Processor struct {
	delay time.Duration
}

func NewProcessor(delay time.Duration) *Processor {
	return &Processor{delay: delay}
}

// Process simulates charging the given amount. It fails only when the context
// is cancelled before the delay elapses.
func (p *Processor) Process(ctx context.Context, method string, amount decimal.Decimal) (*Receipt, error) {
	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return &Receipt{
		Reference:   "PAY-" + uuid.NewString(),
		Method:      method,
		Amount:      amount,
		ProcessedAt: time.Now().UTC(),
	}, nil
}
