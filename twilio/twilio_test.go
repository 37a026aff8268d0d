package twilio

import (
	"strings"
	"testing"

	"github.com/Daskott/sos/shared"
	"github.com/stretchr/testify/assert"
)

func TestE164(t *testing.T) {
	testCases := []struct {
		number      string
		countryCode string
		expected    string
	}{
		{"5551234567", "1", "+15551234567"},
		{"5551234567", "44", "+445551234567"},
		{"15551234567", "1", "+15551234567"},
		{"447911123456", "1", "+447911123456"},
		{"5551234567", "", "+5551234567"},
	}

	for _, tc := range testCases {
		t.Run(tc.number+"/"+tc.countryCode, func(t *testing.T) {
			assert.Equal(t, tc.expected, E164(tc.number, tc.countryCode))
		})
	}
}

func TestSayTwiML(t *testing.T) {
	twiml, err := SayTwiML(" Help <me> & hurry ")
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(twiml, "<?xml"))
	assert.Contains(t, twiml, `<Response><Say loop="2">Help &lt;me&gt; &amp; hurry</Say></Response>`)
}

func TestCapabilities(t *testing.T) {
	testCases := []struct {
		description string
		config      shared.TwilioConfig
		canMessage  bool
		canCall     bool
	}{
		{"nothing configured", shared.TwilioConfig{}, false, false},
		{"credentials only", shared.TwilioConfig{AccountSid: "AC1", AuthToken: "t"}, false, false},
		{"messaging service", shared.TwilioConfig{AccountSid: "AC1", AuthToken: "t", MessagingServiceSid: "MG1"}, true, false},
		{"from number", shared.TwilioConfig{AccountSid: "AC1", AuthToken: "t", FromNumber: "+15550001111"}, true, true},
		{"from number without credentials", shared.TwilioConfig{FromNumber: "+15550001111"}, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			client := NewClient(tc.config)
			assert.Equal(t, tc.canMessage, client.CanMessage())
			assert.Equal(t, tc.canCall, client.CanCall())
		})
	}
}
