package dispatch

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/LeventeLantos/sms-automation/internal/model"
)

// DefaultSimulatedDelay matches the preview latency of a real send.
const DefaultSimulatedDelay = 500 * time.Millisecond

// Simulator stands in for a messaging capability on hosts without one.
// It always succeeds after a fixed delay.
type Simulator struct {
	delay time.Duration
}

func NewSimulator(delay time.Duration) *Simulator {
	if delay < 0 {
		delay = 0
	}
	return &Simulator{delay: delay}
}

func (s *Simulator) Dispatch(ctx context.Context, recipient, body string) (model.Receipt, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return model.Receipt{}, ctx.Err()
		case <-t.C:
		}
	}

	now := time.Now().UTC()
	return model.Receipt{
		RemoteID:  "sim_" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Simulated: true,
		SentAt:    now,
	}, nil
}
