// Package dispatch hands messages to whatever messaging capability the host
// has. Select picks the implementation once at startup.
package dispatch

import (
	"context"
	"time"

	"github.com/LeventeLantos/sms-automation/internal/model"
	"github.com/LeventeLantos/sms-automation/internal/phone"
)

type Mode string

const (
	Native    Mode = "native"
	Simulated Mode = "simulated"
)

// Dispatcher delivers one message. A nil error means the capability accepted it.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient, body string) (model.Receipt, error)
}

// SendClient is a transport returning the remote message ID.
type SendClient interface {
	Send(ctx context.Context, phoneNumber, message string) (remoteMessageID string, err error)
}

// Gateway dispatches through a real SMS transport.
type Gateway struct {
	client  SendClient
	address func(raw string) (string, error)
	now     func() time.Time
}

// NewGateway sends the bare digits of the recipient, like a phone's own SMS app expects.
func NewGateway(c SendClient) *Gateway {
	return &Gateway{
		client: c,
		address: func(raw string) (string, error) {
			return phone.Digits(raw), nil
		},
		now: time.Now,
	}
}

// NewE164Gateway addresses recipients in E.164, filling in countryCode for national numbers.
func NewE164Gateway(c SendClient, countryCode string) *Gateway {
	return &Gateway{
		client: c,
		address: func(raw string) (string, error) {
			return phone.E164(raw, countryCode)
		},
		now: time.Now,
	}
}

func (g *Gateway) Dispatch(ctx context.Context, recipient, body string) (model.Receipt, error) {
	to, err := g.address(recipient)
	if err != nil {
		return model.Receipt{}, err
	}

	id, err := g.client.Send(ctx, to, body)
	if err != nil {
		return model.Receipt{}, err
	}
	return model.Receipt{RemoteID: id, SentAt: g.now().UTC()}, nil
}
