// Package permissions tracks whether the owner allowed location sharing and
// outgoing calls. Every permission starts undetermined and is resolved by a
// one-time prompt.
package permissions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Daskott/sos/models"
	pkgErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const NAMESPACE = "permissions"

type Kind string

const (
	Location Kind = "location"
	Call     Kind = "call"
)

var Kinds = []Kind{Location, Call}

type Status string

const (
	Undetermined Status = "undetermined"
	Granted      Status = "granted"
	Denied       Status = "denied"
)

var questions = map[Kind]string{
	Location: "Allow sharing your current location with your emergency contacts?",
	Call:     "Allow placing a phone call to your primary emergency contact?",
}

// ParseKind returns the Kind named 'name'.
func ParseKind(name string) (Kind, error) {
	for _, kind := range Kinds {
		if string(kind) == strings.ToLower(name) {
			return kind, nil
		}
	}

	return "", fmt.Errorf("unknown permission %q, must be one of %v", name, Kinds)
}

// ParseStatus returns the Status named 'name'.
func ParseStatus(name string) (Status, error) {
	switch status := Status(strings.ToLower(name)); status {
	case Undetermined, Granted, Denied:
		return status, nil
	}

	return "", fmt.Errorf("unknown permission status %q", name)
}

// Prompter asks the owner a yes/no question.
type Prompter interface {
	Ask(ctx context.Context, question string) (bool, error)
}

// Resolver reads and resolves persisted permission state.
type Resolver struct {
	db       *gorm.DB
	prompter Prompter
	logg     *zap.SugaredLogger
}

// NewResolver returns a Resolver. 'prompter' may be nil, in which case
// undetermined permissions stay undetermined.
func NewResolver(db *gorm.DB, prompter Prompter, logg *zap.SugaredLogger) *Resolver {
	return &Resolver{db: db, prompter: prompter, logg: logg}
}

// Status returns the stored status for 'kind' without prompting.
func (resolver *Resolver) Status(ctx context.Context, kind Kind) (Status, error) {
	value, ok, err := models.FindSetting(resolver.db.WithContext(ctx), NAMESPACE, string(kind))
	if err != nil {
		return Undetermined, pkgErrors.Wrap(err, "permissions.Status")
	}

	if !ok {
		return Undetermined, nil
	}

	return Status(value), nil
}

// All returns the status of every known permission.
func (resolver *Resolver) All(ctx context.Context) (map[Kind]Status, error) {
	statuses := make(map[Kind]Status, len(Kinds))
	for _, kind := range Kinds {
		status, err := resolver.Status(ctx, kind)
		if err != nil {
			return nil, err
		}
		statuses[kind] = status
	}

	return statuses, nil
}

// Ensure returns the status for 'kind', prompting once if it is undetermined.
// The answer is persisted so the owner is never asked twice.
func (resolver *Resolver) Ensure(ctx context.Context, kind Kind) Status {
	status, err := resolver.Status(ctx, kind)
	if err != nil {
		resolver.logg.Errorf("unable to read %v permission: %v", kind, err)
		return Undetermined
	}

	if status != Undetermined || resolver.prompter == nil {
		return status
	}

	allowed, err := resolver.prompter.Ask(ctx, questions[kind])
	if err == nil {
		err = ctx.Err()
	}

	// an interrupted prompt is not an answer
	if err != nil {
		resolver.logg.Warnf("%v permission prompt unresolved: %v", kind, err)
		return Undetermined
	}

	status = Denied
	if allowed {
		status = Granted
	}

	if err := resolver.Set(ctx, kind, status); err != nil {
		resolver.logg.Errorf("unable to save %v permission: %v", kind, err)
	}

	return status
}

// Set stores 'status' for 'kind'.
func (resolver *Resolver) Set(ctx context.Context, kind Kind, status Status) error {
	db := resolver.db.WithContext(ctx)
	if status == Undetermined {
		return pkgErrors.Wrap(models.DeleteSettings(db, NAMESPACE, string(kind)), "permissions.Set")
	}

	return pkgErrors.Wrap(models.SaveSetting(db, NAMESPACE, string(kind), string(status)), "permissions.Set")
}

// Reset returns every permission to undetermined.
func (resolver *Resolver) Reset(ctx context.Context) error {
	return pkgErrors.Wrap(models.DeleteSettings(resolver.db.WithContext(ctx), NAMESPACE), "permissions.Reset")
}

// StdinPrompter asks questions on 'out' and reads y/N answers from 'in'.
type StdinPrompter struct {
	reader *bufio.Reader
	out    io.Writer

	mu sync.Mutex
	// read left running by an interrupted question; its line is discarded
	abandoned chan answer
}

type answer struct {
	line string
	err  error
}

func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{reader: bufio.NewReader(in), out: out}
}

// Ask prints 'question' and waits for a y/N answer or for ctx to be done.
func (prompter *StdinPrompter) Ask(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(prompter.out, "%s [y/N]: ", question)

	response, err := prompter.ReadLine(ctx)
	if err != nil {
		return false, err
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// ReadLine returns the next line of input. If ctx is done first it returns
// ctx.Err(), and the line typed afterwards is dropped rather than used as the
// answer to a later question.
func (prompter *StdinPrompter) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompter.mu.Lock()
	abandoned := prompter.abandoned
	prompter.abandoned = nil
	prompter.mu.Unlock()

	answers := make(chan answer, 1)
	go func() {
		if abandoned != nil {
			<-abandoned
		}

		line, err := prompter.reader.ReadString('\n')
		if err != nil && line != "" {
			err = nil
		}
		answers <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		prompter.mu.Lock()
		prompter.abandoned = answers
		prompter.mu.Unlock()
		return "", ctx.Err()
	case res := <-answers:
		return res.line, res.err
	}
}
