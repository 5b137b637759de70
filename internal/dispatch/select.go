package dispatch

import (
	"time"

	"github.com/LeventeLantos/sms-automation/internal/client"
	"github.com/LeventeLantos/sms-automation/internal/config"
)

const breakerCooldown = 30 * time.Second

// IsNativeHost reports whether a real messaging capability is configured and allowed.
func IsNativeHost(cfg config.DispatchConfig) bool {
	if cfg.Mode == config.ModeSimulated {
		return false
	}
	return cfg.Gateway.URL != "" || cfg.Twilio.Enabled()
}

// Select builds the dispatcher for this process. A webhook gateway wins over
// Twilio when both are configured.
func Select(cfg config.DispatchConfig) (Dispatcher, Mode) {
	if !IsNativeHost(cfg) {
		return Instrument(NewSimulator(cfg.SimulatedDelay), Simulated), Simulated
	}

	var d Dispatcher
	var name string
	if cfg.Gateway.URL != "" {
		d = NewGateway(client.NewWebhookClient(cfg.Gateway.URL, cfg.Gateway.Timeout))
		name = "gateway"
	} else {
		tw := client.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Gateway.Timeout)
		tw.FromNumber = cfg.Twilio.FromNumber
		tw.MessagingServiceSID = cfg.Twilio.MessagingServiceSID
		if cfg.Twilio.BaseURL != "" {
			tw.BaseURL = cfg.Twilio.BaseURL
		}
		d = NewE164Gateway(tw, cfg.Twilio.CountryCode)
		name = "twilio"
	}

	d = WithBreaker(d, name, cfg.BreakerMax, breakerCooldown)
	return Instrument(d, Native), Native
}
