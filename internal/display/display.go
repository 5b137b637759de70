// Package display renders automation snapshots as plain text for the console
// and the /v1/activity endpoint.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LeventeLantos/sms-automation/internal/model"
	"github.com/LeventeLantos/sms-automation/internal/phone"
)

const EmptyLog = "No messages sent yet. Configure and start the automation above."

const timeLayout = "15:04:05"

// Renderer formats timestamps in Location. A nil Location means time.Local.
type Renderer struct {
	Location   *time.Location
	ContentMax int
}

func ModeBadge(mode string) string {
	if mode == "native" {
		return "Native Mode - Real SMS"
	}
	return "Web Mode - Simulation Only"
}

func StatusLine(running bool, sent int) string {
	state := "Idle"
	if running {
		state = "Active"
	}
	return fmt.Sprintf("%s | Messages sent: %d", state, sent)
}

func CharCounter(body string, limit int) string {
	return fmt.Sprintf("%d/%d", utf8.RuneCountInString(body), limit)
}

func dot(s model.Status) string {
	switch s {
	case model.Sent:
		return "●"
	case model.Error:
		return "✗"
	default:
		return "○"
	}
}

func (r Renderer) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r Renderer) LogLine(e model.LogEntry) string {
	return fmt.Sprintf("%s %s %s", e.Timestamp.In(r.loc()).Format(timeLayout), dot(e.Status), e.Message)
}

// Render writes the badge, status, active configuration and activity log.
func (r Renderer) Render(w io.Writer, s model.Snapshot) error {
	var b strings.Builder

	b.WriteString(ModeBadge(s.Mode))
	b.WriteByte('\n')
	b.WriteString(StatusLine(s.Running, s.SentCount))
	b.WriteByte('\n')

	if s.Config != nil {
		limit := r.ContentMax
		if limit <= 0 {
			limit = 160
		}
		fmt.Fprintf(&b, "To %s every %s | %s\n",
			phone.Format(s.Config.Recipient), s.Config.Interval, CharCounter(s.Config.Body, limit))
	}

	b.WriteByte('\n')
	if len(s.Logs) == 0 {
		b.WriteString(EmptyLog)
		b.WriteByte('\n')
	} else {
		b.WriteString("ACTIVITY LOG\n")
		for _, e := range s.Logs {
			b.WriteString(r.LogLine(e))
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
