// Package calling places the voice call to the primary emergency contact.
package calling

import (
	"context"
	"fmt"
	"io"

	"github.com/Daskott/sos/colors"
	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/permissions"
	"github.com/Daskott/sos/shared"
	"go.uber.org/zap"
)

const DEFAULT_CALL_MESSAGE = "This is an emergency alert. Your contact needs immediate help. Please check your text messages for details."

type Result struct {
	Initiated bool             `json:"initiated"`
	Reason    shared.ErrorKind `json:"reason,omitempty"`
}

// ConfirmFunc asks the owner whether to dial 'number'. It is supplied by the
// caller of the dispatch (CLI prompt, API request flag).
type ConfirmFunc func(ctx context.Context, number contacts.PhoneNumber) bool

// PermissionChecker reads the call permission without prompting.
type PermissionChecker interface {
	Status(ctx context.Context, kind permissions.Kind) (permissions.Status, error)
}

// Dialer is the slice of the twilio client this package needs.
type Dialer interface {
	CanCall() bool
	PlaceCall(to, say string) (string, error)
}

type TwilioGateway struct {
	dialer  Dialer
	checker PermissionChecker
	message string
	logg    *zap.SugaredLogger
}

func NewTwilioGateway(dialer Dialer, checker PermissionChecker, logg *zap.SugaredLogger) *TwilioGateway {
	return &TwilioGateway{dialer: dialer, checker: checker, message: DEFAULT_CALL_MESSAGE, logg: logg}
}

// Call dials 'number' if the call permission is granted and, when
// 'requireConfirmation' is set, the owner confirms. It never waits on a
// permission prompt.
func (gateway *TwilioGateway) Call(ctx context.Context, number contacts.PhoneNumber, requireConfirmation bool, confirm ConfirmFunc) Result {
	if result, ok := checkPermission(ctx, gateway.checker, gateway.logg); !ok {
		return result
	}

	if requireConfirmation && (confirm == nil || !confirm(ctx, number)) {
		gateway.logInfof("call to %v declined", number)
		return Result{Reason: shared.CallDeclined}
	}

	if gateway.dialer == nil || !gateway.dialer.CanCall() {
		gateway.logWarnf("twilio voice is not configured")
		return Result{Reason: shared.CallFailed}
	}

	sid, err := gateway.dialer.PlaceCall(number.String(), gateway.message)
	if err != nil {
		gateway.logWarnf("unable to call %v: %v", number, err)
		return Result{Reason: shared.CallFailed}
	}

	gateway.logInfof("call to %v initiated, sid=%v", number, sid)
	return Result{Initiated: true}
}

func (gateway *TwilioGateway) logInfof(template string, args ...interface{}) {
	gateway.logg.Infof(colors.Prefix(colors.Blue, "call")+template, args...)
}

func (gateway *TwilioGateway) logWarnf(template string, args ...interface{}) {
	gateway.logg.Warnf(colors.Prefix(colors.Yellow, "call")+template, args...)
}

// ConsoleGateway prints the call instead of placing it.
type ConsoleGateway struct {
	Out     io.Writer
	Checker PermissionChecker
	Logg    *zap.SugaredLogger
}

func (gateway ConsoleGateway) Call(ctx context.Context, number contacts.PhoneNumber, requireConfirmation bool, confirm ConfirmFunc) Result {
	if result, ok := checkPermission(ctx, gateway.Checker, gateway.Logg); !ok {
		return result
	}

	if requireConfirmation && (confirm == nil || !confirm(ctx, number)) {
		return Result{Reason: shared.CallDeclined}
	}

	if gateway.Out == nil {
		return Result{Reason: shared.CallFailed}
	}

	fmt.Fprintf(gateway.Out, "Dialing %v...\n", number)
	return Result{Initiated: true}
}

func checkPermission(ctx context.Context, checker PermissionChecker, logg *zap.SugaredLogger) (Result, bool) {
	if checker == nil {
		return Result{}, true
	}

	status, err := checker.Status(ctx, permissions.Call)
	if err != nil {
		logg.Errorf("unable to read call permission: %v", err)
	}

	if status != permissions.Granted {
		return Result{Reason: shared.PermissionRequired}, false
	}

	return Result{}, true
}
