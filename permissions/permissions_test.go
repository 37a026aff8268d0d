package permissions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Daskott/sos/logger"
	"github.com/Daskott/sos/models"
	"github.com/stretchr/testify/assert"
)

type PrompterStub struct {
	Answer bool
	Err    error
	Asked  []string
	OnAsk  func()
}

func (stub *PrompterStub) Ask(ctx context.Context, question string) (bool, error) {
	stub.Asked = append(stub.Asked, question)
	if stub.OnAsk != nil {
		stub.OnAsk()
	}
	return stub.Answer, stub.Err
}

func TestStatusDefaultsToUndetermined(t *testing.T) {
	resolver := NewResolver(models.InitializeTestDb(), nil, logger.NewNopLogger())

	status, err := resolver.Status(context.Background(), Location)
	assert.Nil(t, err)
	assert.Equal(t, Undetermined, status)
}

func TestEnsurePromptsOnce(t *testing.T) {
	testCases := []struct {
		answer   bool
		expected Status
	}{
		{true, Granted},
		{false, Denied},
	}

	for _, tc := range testCases {
		t.Run(string(tc.expected), func(t *testing.T) {
			ctx := context.Background()
			prompter := &PrompterStub{Answer: tc.answer}
			resolver := NewResolver(models.InitializeTestDb(), prompter, logger.NewNopLogger())

			assert.Equal(t, tc.expected, resolver.Ensure(ctx, Location))
			assert.Equal(t, tc.expected, resolver.Ensure(ctx, Location))
			assert.Len(t, prompter.Asked, 1, "Owner should only be asked once")

			status, err := resolver.Status(ctx, Location)
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, status, "Answer should be persisted")
		})
	}
}

func TestEnsureWithoutPrompter(t *testing.T) {
	resolver := NewResolver(models.InitializeTestDb(), nil, logger.NewNopLogger())
	assert.Equal(t, Undetermined, resolver.Ensure(context.Background(), Call))
}

func TestEnsureUnresolvedPrompt(t *testing.T) {
	ctx := context.Background()
	prompter := &PrompterStub{Err: errors.New("stdin closed")}
	resolver := NewResolver(models.InitializeTestDb(), prompter, logger.NewNopLogger())

	assert.Equal(t, Undetermined, resolver.Ensure(ctx, Call))

	status, err := resolver.Status(ctx, Call)
	assert.Nil(t, err)
	assert.Equal(t, Undetermined, status, "An unanswered prompt should not be stored as an answer")
}

func TestEnsureInterruptedPrompt(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{"answer after interrupt", nil},
		{"prompt returns interrupt", context.Canceled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			prompter := &PrompterStub{Answer: false, Err: tc.err, OnAsk: cancel}
			resolver := NewResolver(models.InitializeTestDb(), prompter, logger.NewNopLogger())

			assert.Equal(t, Undetermined, resolver.Ensure(ctx, Call))

			status, err := resolver.Status(context.Background(), Call)
			assert.Nil(t, err)
			assert.Equal(t, Undetermined, status, "Interrupting the prompt should not store a denial")
		})
	}
}

func TestSetAndReset(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(models.InitializeTestDb(), nil, logger.NewNopLogger())

	assert.Nil(t, resolver.Set(ctx, Location, Granted))
	assert.Nil(t, resolver.Set(ctx, Call, Denied))

	statuses, err := resolver.All(ctx)
	assert.Nil(t, err)
	assert.Equal(t, map[Kind]Status{Location: Granted, Call: Denied}, statuses)

	assert.Nil(t, resolver.Set(ctx, Call, Undetermined))
	status, _ := resolver.Status(ctx, Call)
	assert.Equal(t, Undetermined, status)

	assert.Nil(t, resolver.Reset(ctx))
	statuses, err = resolver.All(ctx)
	assert.Nil(t, err)
	assert.Equal(t, map[Kind]Status{Location: Undetermined, Call: Undetermined}, statuses)
}

func TestParse(t *testing.T) {
	kind, err := ParseKind("Call")
	assert.Nil(t, err)
	assert.Equal(t, Call, kind)

	_, err = ParseKind("camera")
	assert.NotNil(t, err)

	status, err := ParseStatus("GRANTED")
	assert.Nil(t, err)
	assert.Equal(t, Granted, status)

	_, err = ParseStatus("maybe")
	assert.NotNil(t, err)
}

func TestStdinPrompter(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"yes", true},
	}

	for _, tc := range testCases {
		t.Run(strings.TrimSpace(tc.input), func(t *testing.T) {
			out := new(bytes.Buffer)
			prompter := NewStdinPrompter(strings.NewReader(tc.input), out)

			allowed, err := prompter.Ask(context.Background(), "Allow?")
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, allowed)
			assert.Equal(t, "Allow? [y/N]: ", out.String())
		})
	}

	_, err := NewStdinPrompter(strings.NewReader(""), new(bytes.Buffer)).Ask(context.Background(), "Allow?")
	assert.NotNil(t, err, "EOF without an answer should be an error")
}

func TestStdinPrompterReadsOneAnswerPerQuestion(t *testing.T) {
	prompter := NewStdinPrompter(strings.NewReader("y\nn\n"), new(bytes.Buffer))

	first, err := prompter.Ask(context.Background(), "First?")
	assert.Nil(t, err)
	second, err := prompter.Ask(context.Background(), "Second?")
	assert.Nil(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestStdinPrompterInterrupted(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	prompter := NewStdinPrompter(reader, new(bytes.Buffer))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := prompter.Ask(ctx, "First?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go writer.Write([]byte("n\ny\n"))

	allowed, err := prompter.Ask(context.Background(), "Second?")
	assert.Nil(t, err)
	assert.True(t, allowed, "Line typed for the interrupted question should be dropped")
}

func TestStdinPrompterReadLine(t *testing.T) {
	prompter := NewStdinPrompter(strings.NewReader("\n"), new(bytes.Buffer))

	line, err := prompter.ReadLine(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, "\n", line)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = prompter.ReadLine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
