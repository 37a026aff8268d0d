package shared

import "time"

const (
	ALWAYS_CALL_POLICY          = "always-call"
	CALL_ON_SMS_FAILURE_POLICY  = "call-on-sms-failure"
	STATIC_LOCATION_SOURCE      = "static"
	HTTP_LOCATION_SOURCE        = "http"
	NO_LOCATION_SOURCE          = "none"
	DEFAULT_LOCATION_TIMEOUT    = 5 * time.Second
	DEFAULT_LOCATION_STALENESS  = 10 * time.Second
	DEFAULT_TOKEN_TTL           = 24 * time.Hour
	DEFAULT_TWILIO_COUNTRY_CODE = "1"
)

type Config struct {
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Location LocationConfig `mapstructure:"location"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	Server   ServerConfig   `mapstructure:"server"`
}

type StoreConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type DispatchConfig struct {
	CallPolicy              string        `mapstructure:"callPolicy" validate:"omitempty,oneof=always-call call-on-sms-failure"`
	RequireCallConfirmation bool          `mapstructure:"requireCallConfirmation"`
	PromptCallPermission    bool          `mapstructure:"promptCallPermission"`
	LocationTimeout         time.Duration `mapstructure:"locationTimeout" validate:"gte=0"`
	LocationMaxStaleness    time.Duration `mapstructure:"locationMaxStaleness" validate:"gte=0"`
}

type LocationConfig struct {
	Source string               `mapstructure:"source" validate:"omitempty,oneof=static http none"`
	Static StaticLocationConfig `mapstructure:"static"`
	HTTP   HTTPLocationConfig   `mapstructure:"http"`
}

type StaticLocationConfig struct {
	Latitude  float64 `mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `mapstructure:"longitude" validate:"gte=-180,lte=180"`
}

type HTTPLocationConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken" validate:"required_with=AccountSid"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
	FromNumber          string `mapstructure:"fromNumber" validate:"omitempty,e164"`
	DefaultCountryCode  string `mapstructure:"defaultCountryCode" validate:"omitempty,numeric"`
}

type ServerConfig struct {
	Port          int           `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	PrivateKeyPem string        `mapstructure:"privateKeyPem"`
	TokenTTL      time.Duration `mapstructure:"tokenTTL"`
}

// ApplyDefaults fills in zero values that have a documented default.
// LocationMaxStaleness is left alone since 0 means "never reuse a fix"; its
// default is applied when the config is read.
func (c *Config) ApplyDefaults() {
	if c.Dispatch.CallPolicy == "" {
		c.Dispatch.CallPolicy = ALWAYS_CALL_POLICY
	}
	if c.Dispatch.LocationTimeout == 0 {
		c.Dispatch.LocationTimeout = DEFAULT_LOCATION_TIMEOUT
	}
	if c.Location.Source == "" {
		c.Location.Source = NO_LOCATION_SOURCE
	}
	if c.Twilio.DefaultCountryCode == "" {
		c.Twilio.DefaultCountryCode = DEFAULT_TWILIO_COUNTRY_CODE
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.TokenTTL == 0 {
		c.Server.TokenTTL = DEFAULT_TOKEN_TTL
	}
}
