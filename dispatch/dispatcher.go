// Package dispatch turns a single "send distress signal" trigger into SMS
// messages to every emergency contact and a voice call to the primary one.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/Daskott/sos/calling"
	"github.com/Daskott/sos/colors"
	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/location"
	"github.com/Daskott/sos/logger"
	"github.com/Daskott/sos/messaging"
	"github.com/Daskott/sos/permissions"
	"github.com/Daskott/sos/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallPolicy decides when the primary contact gets a voice call.
type CallPolicy string

const (
	// AlwaysCall calls after every message dispatch, whatever the SMS outcome.
	AlwaysCall CallPolicy = shared.ALWAYS_CALL_POLICY
	// CallOnSMSFailure calls only if no SMS was delivered.
	CallOnSMSFailure CallPolicy = shared.CALL_ON_SMS_FAILURE_POLICY
)

// ParseCallPolicy maps a configured policy name to a CallPolicy. An empty name
// selects AlwaysCall.
func ParseCallPolicy(name string) (CallPolicy, error) {
	switch policy := CallPolicy(name); policy {
	case AlwaysCall, CallOnSMSFailure:
		return policy, nil
	case "":
		return AlwaysCall, nil
	}

	return "", fmt.Errorf("unknown call policy %q, must be %q or %q", name, AlwaysCall, CallOnSMSFailure)
}

// ContactReader loads the configured emergency contact.
type ContactReader interface {
	Get(ctx context.Context) (*contacts.EmergencyContact, error)
}

// Locator returns a best-effort fix, or nil.
type Locator interface {
	Acquire(ctx context.Context, timeout, maxStaleness time.Duration) *location.Fix
}

// Messenger sends one SMS body to every recipient.
type Messenger interface {
	Send(ctx context.Context, recipients []contacts.PhoneNumber, body string) messaging.Report
}

// Caller starts a voice call to the primary contact.
type Caller interface {
	Call(ctx context.Context, number contacts.PhoneNumber, requireConfirmation bool, confirm calling.ConfirmFunc) calling.Result
}

// PermissionRequester prompts the owner for a permission that is still undetermined.
type PermissionRequester interface {
	Ensure(ctx context.Context, kind permissions.Kind) permissions.Status
}

// Recorder observes finished dispatches, e.g. for metrics.
type Recorder interface {
	Observe(outcome Outcome, elapsed time.Duration)
}

// Trigger is one press of the distress button.
type Trigger struct {
	// Source names where the trigger came from, for logs ("cli", "api").
	Source string
	// Confirm is consulted before dialing when call confirmation is required.
	Confirm calling.ConfirmFunc
}

// Dispatcher runs the emergency sequence. It holds no per-dispatch state, so
// one Dispatcher can serve concurrent triggers.
type Dispatcher struct {
	store     ContactReader
	locator   Locator
	messenger Messenger
	caller    Caller

	policy                  CallPolicy
	requireCallConfirmation bool
	locationTimeout         time.Duration
	locationMaxStaleness    time.Duration
	requester               PermissionRequester
	recorder                Recorder
	logg                    *zap.SugaredLogger
	now                     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithPolicy(policy CallPolicy) Option {
	return func(d *Dispatcher) { d.policy = policy }
}

func WithCallConfirmation(required bool) Option {
	return func(d *Dispatcher) { d.requireCallConfirmation = required }
}

func WithLocationBounds(timeout, maxStaleness time.Duration) Option {
	return func(d *Dispatcher) {
		d.locationTimeout = timeout
		d.locationMaxStaleness = maxStaleness
	}
}

// WithPermissionRequester lets the dispatcher prompt for the call permission
// and call once more when the call gateway reports it is required.
func WithPermissionRequester(requester PermissionRequester) Option {
	return func(d *Dispatcher) { d.requester = requester }
}

func WithRecorder(recorder Recorder) Option {
	return func(d *Dispatcher) { d.recorder = recorder }
}

func WithLogger(logg *zap.SugaredLogger) Option {
	return func(d *Dispatcher) { d.logg = logg }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New returns a Dispatcher with the always-call policy and default location
// bounds, adjusted by 'opts'.
func New(store ContactReader, locator Locator, messenger Messenger, caller Caller, opts ...Option) *Dispatcher {
	dispatcher := &Dispatcher{
		store:                store,
		locator:              locator,
		messenger:            messenger,
		caller:               caller,
		policy:               AlwaysCall,
		locationTimeout:      shared.DEFAULT_LOCATION_TIMEOUT,
		locationMaxStaleness: shared.DEFAULT_LOCATION_STALENESS,
		logg:                 logger.NewNopLogger(),
		now:                  time.Now,
	}

	for _, opt := range opts {
		opt(dispatcher)
	}

	return dispatcher
}

func (d *Dispatcher) Policy() CallPolicy {
	return d.policy
}

// Dispatch runs validate, locate, compose, message, call and report strictly
// in that order. Nothing is retried. 'ctx' is checked between steps and can
// interrupt a permission prompt, but once a gateway call has started it runs
// to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger Trigger) Outcome {
	outcome := Outcome{ID: uuid.NewString(), StartedAt: d.now(), MessagesAttempted: []MessageAttempt{}}
	logg := d.logg.With("dispatch_id", outcome.ID)
	stepCtx := context.WithoutCancel(ctx)

	defer func() {
		if d.recorder != nil {
			d.recorder.Observe(outcome, d.now().Sub(outcome.StartedAt))
		}
		logg.Infof(colors.Prefix(colors.Blue, "dispatch")+"finished: %v", outcome.Notice())
	}()

	logg.Infof(colors.Prefix(colors.Blue, "dispatch")+"triggered by %q, policy=%v", trigger.Source, d.policy)

	contact, err := d.store.Get(stepCtx)
	if err != nil {
		logg.Errorf(colors.Prefix(colors.Red, "dispatch")+"unable to load emergency contact: %v", err)
	}

	if contact == nil || contact.Primary == "" {
		outcome.FailureReason = shared.NoContactsConfigured
		return outcome
	}

	if d.cancelled(ctx, &outcome, logg) {
		return outcome
	}

	fix := d.locator.Acquire(ctx, d.locationTimeout, d.locationMaxStaleness)
	outcome.LocationIncluded = fix != nil
	outcome.Message = Compose(contact.DisplayName, fix)

	if d.cancelled(ctx, &outcome, logg) {
		return outcome
	}

	report := d.messenger.Send(stepCtx, contact.Recipients(), outcome.Message)
	for _, delivery := range report.Deliveries {
		outcome.MessagesAttempted = append(outcome.MessagesAttempted, MessageAttempt{
			Recipient: delivery.Recipient,
			Delivered: delivery.Delivered,
			Reason:    delivery.Reason,
		})
	}
	outcome.setFailureReason(report.Reason)

	if !d.shouldCall(report) {
		logg.Infof(colors.Prefix(colors.Blue, "dispatch")+"%v of %v SMS delivered, skipping call", report.DeliveredCount(), len(report.Deliveries))
		return outcome
	}

	if d.cancelled(ctx, &outcome, logg) {
		return outcome
	}

	result := d.call(ctx, stepCtx, contact.Primary, trigger.Confirm, logg)
	outcome.CallAttempted = &CallAttempt{Recipient: contact.Primary, Initiated: result.Initiated, Reason: result.Reason}
	outcome.setFailureReason(result.Reason)

	return outcome
}

func (d *Dispatcher) shouldCall(report messaging.Report) bool {
	if d.policy == CallOnSMSFailure {
		return !report.Available || report.DeliveredCount() == 0
	}

	return true
}

// call dials with 'stepCtx'. Only the permission prompt sees 'ctx'.
func (d *Dispatcher) call(ctx, stepCtx context.Context, number contacts.PhoneNumber, confirm calling.ConfirmFunc, logg *zap.SugaredLogger) calling.Result {
	result := d.caller.Call(stepCtx, number, d.requireCallConfirmation, confirm)
	if result.Reason != shared.PermissionRequired || d.requester == nil {
		return result
	}

	status := d.requester.Ensure(ctx, permissions.Call)
	if status != permissions.Granted {
		logg.Warnf(colors.Prefix(colors.Yellow, "dispatch")+"call permission is %v", status)
		return result
	}

	return d.caller.Call(stepCtx, number, d.requireCallConfirmation, confirm)
}

func (d *Dispatcher) cancelled(ctx context.Context, outcome *Outcome, logg *zap.SugaredLogger) bool {
	if ctx.Err() == nil {
		return false
	}

	logg.Warnf(colors.Prefix(colors.Yellow, "dispatch")+"cancelled: %v", ctx.Err())
	outcome.Cancelled = true
	return true
}

// setFailureReason keeps the first non-nominal kind in step order.
func (outcome *Outcome) setFailureReason(reason shared.ErrorKind) {
	if outcome.FailureReason == shared.NoError {
		outcome.FailureReason = reason
	}
}
