package shared

import (
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	config := Config{Store: StoreConfig{Dir: "/tmp"}}
	config.ApplyDefaults()

	assert.Equal(t, ALWAYS_CALL_POLICY, config.Dispatch.CallPolicy)
	assert.Equal(t, DEFAULT_LOCATION_TIMEOUT, config.Dispatch.LocationTimeout)
	assert.Equal(t, time.Duration(0), config.Dispatch.LocationMaxStaleness, "Zero staleness disables the cache")
	assert.Equal(t, NO_LOCATION_SOURCE, config.Location.Source)
	assert.Equal(t, "1", config.Twilio.DefaultCountryCode)
	assert.Equal(t, 3000, config.Server.Port)
}

func TestConfigValidation(t *testing.T) {
	validate := validator.New()

	testCases := []struct {
		description string
		mutate      func(c *Config)
		valid       bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"unknown call policy", func(c *Config) { c.Dispatch.CallPolicy = "never" }, false},
		{"unknown location source", func(c *Config) { c.Location.Source = "gps" }, false},
		{"latitude out of range", func(c *Config) { c.Location.Static.Latitude = 91 }, false},
		{"auth token required with account sid", func(c *Config) { c.Twilio.AccountSid = "AC123" }, false},
		{"from number must be e164", func(c *Config) { c.Twilio.FromNumber = "5551234567" }, false},
		{"missing store dir", func(c *Config) { c.Store.Dir = "" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config := Config{Store: StoreConfig{Dir: "/tmp"}}
			config.ApplyDefaults()
			tc.mutate(&config)

			err := validate.Struct(config)
			if tc.valid {
				assert.Nil(t, err)
			} else {
				assert.NotNil(t, err)
			}
		})
	}
}

func TestErrorKindDescribe(t *testing.T) {
	assert.Equal(t, "permission required", PermissionRequired.Describe())
	assert.Equal(t, "something_else", ErrorKind("something_else").Describe())
}
