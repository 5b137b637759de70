package model

import "time"

type Status string

const (
	Pending Status = "pending"
	Sent    Status = "sent"
	Error   Status = "error"
)

// LogEntry records one send attempt. It is created Pending and resolved once.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
}

// Receipt is what a dispatcher hands back for an accepted message.
type Receipt struct {
	RemoteID  string    `json:"remoteMessageId"`
	Simulated bool      `json:"simulated"`
	SentAt    time.Time `json:"sentAt"`
}
