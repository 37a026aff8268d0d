// Package messaging delivers the alert text to every emergency contact.
// Gateways never return errors: every failure is recorded per recipient.
package messaging

import (
	"context"
	"fmt"
	"io"

	"github.com/Daskott/sos/colors"
	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/shared"
	"go.uber.org/zap"
)

type Delivery struct {
	Recipient contacts.PhoneNumber `json:"recipient"`
	Delivered bool                 `json:"delivered"`
	Reason    shared.ErrorKind     `json:"reason,omitempty"`
}

// Report is the per-recipient result of one send.
type Report struct {
	Available  bool             `json:"available"`
	Deliveries []Delivery       `json:"deliveries"`
	Reason     shared.ErrorKind `json:"reason,omitempty"`
}

func (report Report) DeliveredCount() int {
	count := 0
	for _, delivery := range report.Deliveries {
		if delivery.Delivered {
			count++
		}
	}

	return count
}

// AggregateResult is what platforms that present a single composed message
// can report: one result for every recipient.
type AggregateResult string

const (
	Sent        AggregateResult = "sent"
	Cancelled   AggregateResult = "cancelled"
	Unavailable AggregateResult = "unavailable"
)

// FromAggregate applies 'result' uniformly to every recipient.
func FromAggregate(recipients []contacts.PhoneNumber, result AggregateResult) Report {
	if result == Unavailable {
		return unavailableReport(recipients)
	}

	report := Report{Available: true, Deliveries: make([]Delivery, 0, len(recipients))}
	for _, recipient := range recipients {
		delivery := Delivery{Recipient: recipient, Delivered: result == Sent}
		if !delivery.Delivered {
			delivery.Reason = shared.DeliveryFailed
		}
		report.Deliveries = append(report.Deliveries, delivery)
	}

	if result != Sent {
		report.Reason = shared.DeliveryFailed
	}

	return report
}

func unavailableReport(recipients []contacts.PhoneNumber) Report {
	report := Report{Reason: shared.CapabilityUnavailable, Deliveries: make([]Delivery, 0, len(recipients))}
	for _, recipient := range recipients {
		report.Deliveries = append(report.Deliveries, Delivery{Recipient: recipient, Reason: shared.CapabilityUnavailable})
	}

	return report
}

// SMSSender is the slice of the twilio client this package needs.
type SMSSender interface {
	CanMessage() bool
	SendMessage(to, body string) (string, error)
}

// TwilioGateway sends one SMS per recipient.
type TwilioGateway struct {
	sender SMSSender
	logg   *zap.SugaredLogger
}

func NewTwilioGateway(sender SMSSender, logg *zap.SugaredLogger) *TwilioGateway {
	return &TwilioGateway{sender: sender, logg: logg}
}

// Send attempts every recipient in order. A failed recipient does not stop
// the remaining ones.
func (gateway *TwilioGateway) Send(ctx context.Context, recipients []contacts.PhoneNumber, body string) Report {
	if gateway.sender == nil || !gateway.sender.CanMessage() {
		gateway.logWarnf("twilio messaging is not configured")
		return unavailableReport(recipients)
	}

	report := Report{Available: true, Deliveries: make([]Delivery, 0, len(recipients))}
	for _, recipient := range recipients {
		delivery := Delivery{Recipient: recipient}

		sid, err := gateway.sender.SendMessage(recipient.String(), body)
		if err != nil {
			gateway.logWarnf("unable to send SMS to %v: %v", recipient, err)
			delivery.Reason = shared.DeliveryFailed
			report.Reason = shared.DeliveryFailed
		} else {
			gateway.logInfof("SMS to %v accepted, sid=%v", recipient, sid)
			delivery.Delivered = true
		}

		report.Deliveries = append(report.Deliveries, delivery)
	}

	return report
}

func (gateway *TwilioGateway) logInfof(template string, args ...interface{}) {
	gateway.logg.Infof(colors.Prefix(colors.Blue, "sms")+template, args...)
}

func (gateway *TwilioGateway) logWarnf(template string, args ...interface{}) {
	gateway.logg.Warnf(colors.Prefix(colors.Yellow, "sms")+template, args...)
}

// ConsoleGateway prints the composed message instead of sending it, and
// reports the aggregate result for all recipients at once.
type ConsoleGateway struct {
	Out io.Writer
}

func (gateway ConsoleGateway) Send(ctx context.Context, recipients []contacts.PhoneNumber, body string) Report {
	if gateway.Out == nil {
		return FromAggregate(recipients, Unavailable)
	}

	_, err := fmt.Fprintf(gateway.Out, "SMS to %v:\n  %s\n", recipients, body)
	if err != nil {
		return FromAggregate(recipients, Cancelled)
	}

	return FromAggregate(recipients, Sent)
}
