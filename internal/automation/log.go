package automation

import "github.com/LeventeLantos/sms-automation/internal/model"

// DefaultLogCapacity is how many entries the activity log keeps.
const DefaultLogCapacity = 50

// activityLog is newest-first and bounded. Callers hold the controller lock.
type activityLog struct {
	entries  []model.LogEntry
	capacity int
}

func newActivityLog(capacity int) *activityLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &activityLog{
		entries:  make([]model.LogEntry, 0, capacity),
		capacity: capacity,
	}
}

// prepend adds e at the front and evicts from the back past capacity.
func (l *activityLog) prepend(e model.LogEntry) {
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, model.LogEntry{})
	}
	copy(l.entries[1:], l.entries)
	l.entries[0] = e
}

// resolve moves the pending entry with id to status. Resolved or evicted
// entries are left alone and resolve reports false.
func (l *activityLog) resolve(id string, status model.Status, msg string) bool {
	for i := range l.entries {
		if l.entries[i].ID != id {
			continue
		}
		if l.entries[i].Status != model.Pending {
			return false
		}
		l.entries[i].Status = status
		l.entries[i].Message = msg
		return true
	}
	return false
}

func (l *activityLog) list() []model.LogEntry {
	out := make([]model.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
