package messaging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/logger"
	"github.com/Daskott/sos/shared"
	"github.com/stretchr/testify/assert"
)

type SMSSenderStub struct {
	Configured bool
	Failures   map[string]error
	Sent       []string
}

func (stub *SMSSenderStub) CanMessage() bool {
	return stub.Configured
}

func (stub *SMSSenderStub) SendMessage(to, body string) (string, error) {
	stub.Sent = append(stub.Sent, to)
	if err := stub.Failures[to]; err != nil {
		return "", err
	}
	return "SM" + to, nil
}

var recipients = []contacts.PhoneNumber{"5551234567", "5559876543"}

func TestFromAggregate(t *testing.T) {
	testCases := []struct {
		result         AggregateResult
		available      bool
		delivered      int
		reason         shared.ErrorKind
		recipientKinds shared.ErrorKind
	}{
		{Sent, true, 2, shared.NoError, shared.NoError},
		{Cancelled, true, 0, shared.DeliveryFailed, shared.DeliveryFailed},
		{Unavailable, false, 0, shared.CapabilityUnavailable, shared.CapabilityUnavailable},
	}

	for _, tc := range testCases {
		t.Run(string(tc.result), func(t *testing.T) {
			report := FromAggregate(recipients, tc.result)

			assert.Equal(t, tc.available, report.Available)
			assert.Equal(t, tc.delivered, report.DeliveredCount())
			assert.Equal(t, tc.reason, report.Reason)
			assert.Len(t, report.Deliveries, 2)

			for i, delivery := range report.Deliveries {
				assert.Equal(t, recipients[i], delivery.Recipient, "Recipient order should be preserved")
				assert.Equal(t, tc.recipientKinds, delivery.Reason)
			}
		})
	}
}

func TestTwilioGatewayUnavailable(t *testing.T) {
	stub := &SMSSenderStub{Configured: false}
	gateway := NewTwilioGateway(stub, logger.NewNopLogger())

	report := gateway.Send(context.Background(), recipients, "help")
	assert.False(t, report.Available)
	assert.Equal(t, shared.CapabilityUnavailable, report.Reason)
	assert.Equal(t, 0, report.DeliveredCount())
	assert.Empty(t, stub.Sent, "Nothing should be sent when messaging is unavailable")

	report = NewTwilioGateway(nil, logger.NewNopLogger()).Send(context.Background(), recipients, "help")
	assert.Equal(t, shared.CapabilityUnavailable, report.Reason)
}

func TestTwilioGatewayPartialFailure(t *testing.T) {
	stub := &SMSSenderStub{
		Configured: true,
		Failures:   map[string]error{"5551234567": errors.New("invalid 'To' number")},
	}
	gateway := NewTwilioGateway(stub, logger.NewNopLogger())

	report := gateway.Send(context.Background(), recipients, "help")
	assert.True(t, report.Available)
	assert.Equal(t, []string{"5551234567", "5559876543"}, stub.Sent, "Should attempt every recipient in order")
	assert.Equal(t, []Delivery{
		{Recipient: "5551234567", Delivered: false, Reason: shared.DeliveryFailed},
		{Recipient: "5559876543", Delivered: true},
	}, report.Deliveries)
	assert.Equal(t, shared.DeliveryFailed, report.Reason)
	assert.Equal(t, 1, report.DeliveredCount())
}

func TestConsoleGateway(t *testing.T) {
	out := new(bytes.Buffer)

	report := ConsoleGateway{Out: out}.Send(context.Background(), recipients, "EMERGENCY: help")
	assert.Equal(t, 2, report.DeliveredCount())
	assert.Contains(t, out.String(), "EMERGENCY: help")
	assert.Contains(t, out.String(), "5559876543")

	report = ConsoleGateway{}.Send(context.Background(), recipients, "EMERGENCY: help")
	assert.Equal(t, shared.CapabilityUnavailable, report.Reason)
}
