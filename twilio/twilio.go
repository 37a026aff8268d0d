package twilio

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/Daskott/sos/shared"
	"github.com/Daskott/sos/utils"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var undeliveredStatuses = map[string]bool{"failed": true, "undelivered": true, "canceled": true}

type ClientWrapper struct {
	client *twilio.RestClient
	config shared.TwilioConfig
}

func NewClient(config shared.TwilioConfig) *ClientWrapper {
	client := twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return &ClientWrapper{client: client, config: config}
}

// CanMessage reports whether enough is configured to send SMS.
func (cw *ClientWrapper) CanMessage() bool {
	return cw.hasCredentials() && (cw.config.MessagingServiceSid != "" || cw.config.FromNumber != "")
}

// CanCall reports whether enough is configured to place voice calls.
func (cw *ClientWrapper) CanCall() bool {
	return cw.hasCredentials() && cw.config.FromNumber != ""
}

// SendMessage sends 'msg' to the digit-only number 'to' and returns the message SID.
func (cw *ClientWrapper) SendMessage(to, msg string) (string, error) {
	params := &openapi.CreateMessageParams{}
	if cw.config.MessagingServiceSid != "" {
		params.SetMessagingServiceSid(cw.config.MessagingServiceSid)
	} else {
		params.SetFrom(cw.config.FromNumber)
	}
	params.SetTo(E164(to, cw.config.DefaultCountryCode))
	params.SetBody(msg)

	resp, err := cw.client.ApiV2010.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("SendMessage: %v", err)
	}

	if resp.Status != nil && undeliveredStatuses[*resp.Status] {
		return "", fmt.Errorf("SendMessage: message %v: %v", *resp.Status, stringValue(resp.ErrorMessage))
	}

	return stringValue(resp.Sid), nil
}

// PlaceCall dials the digit-only number 'to' and reads 'say' to whoever answers.
// It returns the call SID.
func (cw *ClientWrapper) PlaceCall(to, say string) (string, error) {
	twiml, err := SayTwiML(say)
	if err != nil {
		return "", fmt.Errorf("PlaceCall: %v", err)
	}

	params := &openapi.CreateCallParams{}
	params.SetFrom(cw.config.FromNumber)
	params.SetTo(E164(to, cw.config.DefaultCountryCode))
	params.SetTwiml(twiml)

	resp, err := cw.client.ApiV2010.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("PlaceCall: %v", err)
	}

	if resp.Status != nil && undeliveredStatuses[*resp.Status] {
		return "", fmt.Errorf("PlaceCall: call %v", *resp.Status)
	}

	return stringValue(resp.Sid), nil
}

// E164 formats a digit-only number for Twilio. Ten digit numbers are
// national numbers and get 'countryCode' prepended.
func E164(number, countryCode string) string {
	digits := utils.DigitsOnly(number)
	if len(digits) == 10 && countryCode != "" {
		digits = utils.DigitsOnly(countryCode) + digits
	}

	return "+" + digits
}

type sayResponse struct {
	XMLName xml.Name `xml:"Response"`
	Say     sayVerb  `xml:"Say"`
}

type sayVerb struct {
	Loop int    `xml:"loop,attr"`
	Text string `xml:",chardata"`
}

// SayTwiML returns a TwiML document that reads 'text' twice.
func SayTwiML(text string) (string, error) {
	body, err := xml.Marshal(sayResponse{Say: sayVerb{Loop: 2, Text: strings.TrimSpace(text)}})
	if err != nil {
		return "", err
	}

	return xml.Header + string(body), nil
}

func (cw *ClientWrapper) hasCredentials() bool {
	return cw.config.AccountSid != "" && cw.config.AuthToken != ""
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
