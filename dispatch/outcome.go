package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/shared"
)

type MessageAttempt struct {
	Recipient contacts.PhoneNumber `json:"recipient"`
	Delivered bool                 `json:"delivered"`
	Reason    shared.ErrorKind     `json:"reason,omitempty"`
}

type CallAttempt struct {
	Recipient contacts.PhoneNumber `json:"recipient"`
	Initiated bool                 `json:"initiated"`
	Reason    shared.ErrorKind     `json:"reason,omitempty"`
}

// Outcome is the report of one dispatch invocation. Every failure upstream
// is captured here; Dispatch never returns an error.
type Outcome struct {
	ID                string           `json:"id"`
	StartedAt         time.Time        `json:"started_at"`
	MessagesAttempted []MessageAttempt `json:"messages_attempted"`
	CallAttempted     *CallAttempt     `json:"call_attempted,omitempty"`
	LocationIncluded  bool             `json:"location_included"`
	Message           string           `json:"message,omitempty"`
	FailureReason     shared.ErrorKind `json:"failure_reason,omitempty"`
	Cancelled         bool             `json:"cancelled,omitempty"`
}

// Delivered returns how many recipients the message reached.
func (outcome Outcome) Delivered() int {
	count := 0
	for _, attempt := range outcome.MessagesAttempted {
		if attempt.Delivered {
			count++
		}
	}

	return count
}

// SetupRequired reports whether the owner must configure contacts first.
func (outcome Outcome) SetupRequired() bool {
	return outcome.FailureReason == shared.NoContactsConfigured
}

// Notice renders the outcome as the short, non-blocking text shown to the
// owner, reflecting any partial success.
func (outcome Outcome) Notice() string {
	if outcome.SetupRequired() {
		return "No emergency contacts configured. Set up your contacts first."
	}

	parts := []string{}
	if len(outcome.MessagesAttempted) > 0 {
		parts = append(parts, outcome.messagesNotice())
	}

	if call := outcome.CallAttempted; call != nil {
		if call.Initiated {
			parts = append(parts, fmt.Sprintf("call to %v initiated", call.Recipient))
		} else {
			parts = append(parts, fmt.Sprintf("call not initiated: %v", call.Reason.Describe()))
		}
	}

	if outcome.Cancelled {
		parts = append(parts, "alert cancelled")
	}

	if len(parts) == 0 {
		return "Nothing was sent"
	}

	notice := strings.Join(parts, ", ")
	return strings.ToUpper(notice[:1]) + notice[1:]
}

func (outcome Outcome) messagesNotice() string {
	if outcome.allMessagesHaveReason(shared.CapabilityUnavailable) {
		return "SMS unavailable"
	}

	notice := fmt.Sprintf("SMS sent to %v of %v contacts", outcome.Delivered(), len(outcome.MessagesAttempted))
	if !outcome.LocationIncluded {
		notice += " (without location)"
	}

	return notice
}

func (outcome Outcome) allMessagesHaveReason(reason shared.ErrorKind) bool {
	for _, attempt := range outcome.MessagesAttempted {
		if attempt.Reason != reason {
			return false
		}
	}

	return len(outcome.MessagesAttempted) > 0
}
