package dispatch

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeventeLantos/sms-automation/internal/model"
)

type breakerDispatcher struct {
	next Dispatcher
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker fails sends fast once maxFailures consecutive sends failed, until
// the breaker half-opens again after cooldown. maxFailures <= 0 disables it.
func WithBreaker(next Dispatcher, name string, maxFailures int, cooldown time.Duration) Dispatcher {
	if maxFailures <= 0 {
		return next
	}
	return &breakerDispatcher{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(maxFailures)
			},
		}),
	}
}

func (b *breakerDispatcher) Dispatch(ctx context.Context, recipient, body string) (model.Receipt, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Dispatch(ctx, recipient, body)
	})
	if err != nil {
		return model.Receipt{}, err
	}
	return res.(model.Receipt), nil
}
