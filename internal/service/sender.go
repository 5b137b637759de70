package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/LeventeLantos/sms-automation/internal/dispatch"
	"github.com/LeventeLantos/sms-automation/internal/model"
)

// Attempt is one send, tied to the log entry that tracks it.
type Attempt struct {
	EntryID   string
	Recipient string
	Body      string
}

type Sender struct {
	dispatcher dispatch.Dispatcher
	contentMax int

	onSent   func(ctx context.Context, a Attempt, r model.Receipt) error
	onFailed func(ctx context.Context, a Attempt, reason string) error
}

func NewSender(d dispatch.Dispatcher, contentMax int) *Sender {
	return &Sender{
		dispatcher: d,
		contentMax: contentMax,
	}
}

func (s *Sender) WithHooks(
	onSent func(ctx context.Context, a Attempt, r model.Receipt) error,
	onFailed func(ctx context.Context, a Attempt, reason string) error,
) *Sender {
	s.onSent = onSent
	s.onFailed = onFailed
	return s
}

// Send dispatches a and reports the outcome through exactly one hook.
func (s *Sender) Send(ctx context.Context, a Attempt) bool {
	if s.contentMax > 0 && utf8.RuneCountInString(a.Body) > s.contentMax {
		s.fail(ctx, a, fmt.Sprintf("message exceeds %d characters", s.contentMax))
		return false
	}

	r, err := s.dispatcher.Dispatch(ctx, a.Recipient, a.Body)
	if err != nil {
		s.fail(ctx, a, err.Error())
		return false
	}

	if s.onSent != nil {
		if err := s.onSent(ctx, a, r); err != nil {
			slog.Warn("sent hook failed", "entry_id", a.EntryID, "err", err)
		}
	}
	return true
}

func (s *Sender) fail(ctx context.Context, a Attempt, reason string) {
	if s.onFailed != nil {
		if err := s.onFailed(ctx, a, reason); err != nil {
			slog.Warn("failed hook failed", "entry_id", a.EntryID, "err", err)
		}
	}
}
