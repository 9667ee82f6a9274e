package config

import "time"

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	ClientURL   string `mapstructure:"client_url"`
}

// PaymentConfig tunes the mobile-money confirmation loop.
type PaymentConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	GraceTicks       int           `mapstructure:"grace_ticks"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	ManualCodeMinLen int           `mapstructure:"manual_code_min_len"`
	ReferencePrefix  string        `mapstructure:"reference_prefix"`
}

// MpesaConfig carries the Daraja merchant credentials. All credential fields
// empty means the gateway runs in simulation mode.
type MpesaConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	ShortCode      string `mapstructure:"short_code"`
	PassKey        string `mapstructure:"pass_key"`
	AuthURL        string `mapstructure:"auth_url"`
	STKPushURL     string `mapstructure:"stk_push_url"`
	QueryURL       string `mapstructure:"query_url"`
	CallbackURL    string `mapstructure:"callback_url"`

	// GatewayURL is the base URL the payment core's gateway client calls;
	// it points back at this service's /mpesa facade.
	GatewayURL string `mapstructure:"gateway_url"`
}

// RedisConfig configures the shared cache. An empty Addr disables redis and
// token caching falls back to process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	FilePath    string `mapstructure:"file_path"`
	Development bool   `mapstructure:"development"`
}
