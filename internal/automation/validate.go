package automation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/LeventeLantos/sms-automation/internal/model"
	"github.com/LeventeLantos/sms-automation/internal/phone"
)

var (
	ErrInvalidPhoneNumber = errors.New("please enter a valid 10-digit phone number")
	ErrEmptyMessage       = errors.New("please enter a message to send")
	ErrMessageTooLong     = errors.New("message is too long")
	ErrInvalidInterval    = errors.New("invalid send interval")
	ErrAlreadyRunning     = errors.New("automation is already running")
)

// Validate checks cfg without touching any state. contentMax <= 0 disables
// the length check.
func Validate(cfg model.Configuration, contentMax int) error {
	if len(phone.Digits(cfg.Recipient)) < phone.MinDigits {
		return ErrInvalidPhoneNumber
	}
	if strings.TrimSpace(cfg.Body) == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(cfg.Body); contentMax > 0 && n > contentMax {
		return fmt.Errorf("%w: %d/%d characters", ErrMessageTooLong, n, contentMax)
	}
	if cfg.Interval.Magnitude < 1 {
		return fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidInterval, cfg.Interval.Magnitude)
	}
	if cfg.Interval.Unit != model.Seconds && cfg.Interval.Unit != model.Minutes {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidInterval, cfg.Interval.Unit)
	}
	if limit := cfg.Interval.Unit.MaxMagnitude(); int64(cfg.Interval.Magnitude) > limit {
		return fmt.Errorf("%w: at most %d %s, got %d", ErrInvalidInterval, limit, cfg.Interval.Unit, cfg.Interval.Magnitude)
	}
	return nil
}
