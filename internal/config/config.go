package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Automation AutomationConfig
	Dispatch   DispatchConfig
	Redis      RedisConfig
	Autostart  AutostartConfig
}

type ServerConfig struct {
	Address string
}

type LogConfig struct {
	Format string
	Level  string
}

type AutomationConfig struct {
	ContentMax     int
	LogCapacity    int
	ConsoleDisplay bool
}

type DispatchMode string

const (
	ModeAuto      DispatchMode = "auto"
	ModeNative    DispatchMode = "native"
	ModeSimulated DispatchMode = "simulated"
)

type DispatchConfig struct {
	Mode           DispatchMode
	SimulatedDelay time.Duration
	BreakerMax     int

	Gateway GatewayConfig
	Twilio  TwilioConfig
}

type GatewayConfig struct {
	URL     string
	Timeout time.Duration
}

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	FromNumber          string
	MessagingServiceSID string
	BaseURL             string
	CountryCode         string
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != ""
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// AutostartConfig starts the automation at boot when Phone is set.
type AutostartConfig struct {
	Phone    string
	Message  string
	Interval int
	Unit     string
}

func (a AutostartConfig) Enabled() bool {
	return a.Phone != ""
}

// env mirrors the process environment; LoadAll folds it into Config.
type env struct {
	ServerAddress string `envconfig:"SERVER_ADDRESS" default:":8080"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`

	ContentMax     int  `envconfig:"CONTENT_MAX" default:"160"`
	LogCapacity    int  `envconfig:"LOG_CAPACITY" default:"50"`
	ConsoleDisplay bool `envconfig:"CONSOLE_DISPLAY" default:"false"`

	DispatchMode     string `envconfig:"DISPATCH_MODE" default:"auto"`
	SimulatedDelayMS int    `envconfig:"SIMULATED_DELAY_MS" default:"500"`
	BreakerMax       int    `envconfig:"BREAKER_MAX_FAILURES" default:"0"`

	GatewayURL            string `envconfig:"GATEWAY_URL"`
	GatewayTimeoutSeconds int    `envconfig:"GATEWAY_TIMEOUT_SECONDS" default:"10"`

	TwilioAccountSID          string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken           string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber          string `envconfig:"TWILIO_FROM_NUMBER"`
	TwilioMessagingServiceSID string `envconfig:"TWILIO_MESSAGING_SERVICE_SID"`
	TwilioBaseURL             string `envconfig:"TWILIO_BASE_URL" default:"https://api.twilio.com"`
	TwilioCountryCode         string `envconfig:"TWILIO_COUNTRY_CODE" default:"1"`

	RedisAddr       string `envconfig:"REDIS_ADDR"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`
	RedisTTLSeconds int    `envconfig:"REDIS_TTL_SECONDS" default:"86400"`

	AutostartPhone    string `envconfig:"AUTOSTART_PHONE"`
	AutostartMessage  string `envconfig:"AUTOSTART_MESSAGE"`
	AutostartInterval int    `envconfig:"AUTOSTART_INTERVAL" default:"10"`
	AutostartUnit     string `envconfig:"AUTOSTART_UNIT" default:"seconds"`
}

func LoadAll() (*Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: e.ServerAddress,
		},
		Log: LogConfig{
			Format: e.LogFormat,
			Level:  e.LogLevel,
		},
		Automation: AutomationConfig{
			ContentMax:     e.ContentMax,
			LogCapacity:    e.LogCapacity,
			ConsoleDisplay: e.ConsoleDisplay,
		},
		Dispatch: DispatchConfig{
			Mode:           DispatchMode(strings.ToLower(strings.TrimSpace(e.DispatchMode))),
			SimulatedDelay: time.Duration(e.SimulatedDelayMS) * time.Millisecond,
			BreakerMax:     e.BreakerMax,
			Gateway: GatewayConfig{
				URL:     e.GatewayURL,
				Timeout: time.Duration(e.GatewayTimeoutSeconds) * time.Second,
			},
			Twilio: TwilioConfig{
				AccountSID:          e.TwilioAccountSID,
				AuthToken:           e.TwilioAuthToken,
				FromNumber:          e.TwilioFromNumber,
				MessagingServiceSID: e.TwilioMessagingServiceSID,
				BaseURL:             e.TwilioBaseURL,
				CountryCode:         e.TwilioCountryCode,
			},
		},
		Redis: loadRedisConfig(e),
		Autostart: AutostartConfig{
			Phone:    e.AutostartPhone,
			Message:  e.AutostartMessage,
			Interval: e.AutostartInterval,
			Unit:     e.AutostartUnit,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig(e env) RedisConfig {
	if e.RedisAddr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  e.RedisAddr,
		Password: e.RedisPassword,
		DB:       e.RedisDB,
		TTL:      time.Duration(e.RedisTTLSeconds) * time.Second,
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Automation.ContentMax <= 0 {
		errs = append(errs, errors.New("CONTENT_MAX must be > 0"))
	}
	if cfg.Automation.LogCapacity <= 0 {
		errs = append(errs, errors.New("LOG_CAPACITY must be > 0"))
	}
	if cfg.Dispatch.SimulatedDelay < 0 {
		errs = append(errs, errors.New("SIMULATED_DELAY_MS must be >= 0"))
	}
	if cfg.Dispatch.BreakerMax < 0 {
		errs = append(errs, errors.New("BREAKER_MAX_FAILURES must be >= 0"))
	}
	if cfg.Dispatch.Gateway.Timeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT_SECONDS must be > 0"))
	}

	d := cfg.Dispatch
	switch d.Mode {
	case ModeAuto, ModeSimulated:
	case ModeNative:
		if d.Gateway.URL == "" && !d.Twilio.Enabled() {
			errs = append(errs, errors.New("DISPATCH_MODE=native requires GATEWAY_URL or TWILIO_ACCOUNT_SID"))
		}
	default:
		errs = append(errs, fmt.Errorf("DISPATCH_MODE must be one of auto, native, simulated; got %q", d.Mode))
	}

	if d.Twilio.Enabled() {
		if d.Twilio.AuthToken == "" {
			errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required with TWILIO_ACCOUNT_SID"))
		}
		if d.Twilio.FromNumber == "" && d.Twilio.MessagingServiceSID == "" {
			errs = append(errs, errors.New("TWILIO_FROM_NUMBER or TWILIO_MESSAGING_SERVICE_SID is required with TWILIO_ACCOUNT_SID"))
		}
	}

	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}

	if cfg.Autostart.Enabled() && cfg.Autostart.Interval < 1 {
		errs = append(errs, errors.New("AUTOSTART_INTERVAL must be >= 1"))
	}

	return errors.Join(errs...)
}
