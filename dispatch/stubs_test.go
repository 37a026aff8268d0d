package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Daskott/sos/calling"
	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/location"
	"github.com/Daskott/sos/messaging"
	"github.com/Daskott/sos/permissions"
	"github.com/Daskott/sos/shared"
)

type ContactStoreStub struct {
	Contact *contacts.EmergencyContact
	Err     error
}

func (stub ContactStoreStub) Get(ctx context.Context) (*contacts.EmergencyContact, error) {
	return stub.Contact, stub.Err
}

type LocatorStub struct {
	Fix   *location.Fix
	mu    sync.Mutex
	Calls int
}

func (stub *LocatorStub) Acquire(ctx context.Context, timeout, maxStaleness time.Duration) *location.Fix {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.Calls++
	return stub.Fix
}

// MessengerStub reports per-recipient results, or an aggregate one when
// Aggregate is set.
type MessengerStub struct {
	Aggregate messaging.AggregateResult
	Failing   map[contacts.PhoneNumber]bool

	mu         sync.Mutex
	Recipients [][]contacts.PhoneNumber
	Bodies     []string
}

func (stub *MessengerStub) Send(ctx context.Context, recipients []contacts.PhoneNumber, body string) messaging.Report {
	stub.mu.Lock()
	stub.Recipients = append(stub.Recipients, recipients)
	stub.Bodies = append(stub.Bodies, body)
	stub.mu.Unlock()

	if stub.Aggregate != "" {
		return messaging.FromAggregate(recipients, stub.Aggregate)
	}

	report := messaging.Report{Available: true}
	for _, recipient := range recipients {
		delivery := messaging.Delivery{Recipient: recipient, Delivered: !stub.Failing[recipient]}
		if !delivery.Delivered {
			delivery.Reason = shared.DeliveryFailed
			report.Reason = shared.DeliveryFailed
		}
		report.Deliveries = append(report.Deliveries, delivery)
	}

	return report
}

func (stub *MessengerStub) SendCount() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return len(stub.Bodies)
}

// CallerStub returns Results in order, repeating the last one.
type CallerStub struct {
	Results []calling.Result

	mu            sync.Mutex
	Numbers       []contacts.PhoneNumber
	Confirmations []bool
}

func (stub *CallerStub) Call(ctx context.Context, number contacts.PhoneNumber, requireConfirmation bool, confirm calling.ConfirmFunc) calling.Result {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	stub.Numbers = append(stub.Numbers, number)
	stub.Confirmations = append(stub.Confirmations, requireConfirmation)

	if requireConfirmation && (confirm == nil || !confirm(ctx, number)) {
		return calling.Result{Reason: shared.CallDeclined}
	}

	if len(stub.Results) == 0 {
		return calling.Result{Initiated: true}
	}

	idx := len(stub.Numbers) - 1
	if idx >= len(stub.Results) {
		idx = len(stub.Results) - 1
	}

	return stub.Results[idx]
}

func (stub *CallerStub) CallCount() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return len(stub.Numbers)
}

type RequesterStub struct {
	Status permissions.Status
	Asked  int
}

func (stub *RequesterStub) Ensure(ctx context.Context, kind permissions.Kind) permissions.Status {
	stub.Asked++
	return stub.Status
}

type RecorderStub struct {
	Outcomes []Outcome
}

func (stub *RecorderStub) Observe(outcome Outcome, elapsed time.Duration) {
	stub.Outcomes = append(stub.Outcomes, outcome)
}

var errStoreUnavailable = errors.New("database is locked")
