package cache

import (
	"context"
	"errors"

	"github.com/LeventeLantos/sms-automation/internal/model"
)

var ErrNotFound = errors.New("receipt not found")

// ReceiptCache keeps dispatch receipts for a while so a log entry can be traced
// to the gateway's message ID. It is not a log store.
type ReceiptCache interface {
	StoreSent(ctx context.Context, entryID string, r model.Receipt) error
	Lookup(ctx context.Context, entryID string) (model.Receipt, error)
}
