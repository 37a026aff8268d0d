package shared

// ErrorKind tags a non-nominal result inside an outcome. Collaborators of the
// dispatcher report failures as kinds rather than returning errors.
type ErrorKind string

const (
	NoError               ErrorKind = ""
	NoContactsConfigured  ErrorKind = "no_contacts_configured"
	InvalidInput          ErrorKind = "invalid_input"
	LocationUnavailable   ErrorKind = "location_unavailable"
	CapabilityUnavailable ErrorKind = "capability_unavailable"
	DeliveryFailed        ErrorKind = "delivery_failed"
	PermissionRequired    ErrorKind = "permission_required"
	CallDeclined          ErrorKind = "call_declined"
	CallFailed            ErrorKind = "call_failed"
)

var errorKindDescriptions = map[ErrorKind]string{
	NoContactsConfigured:  "no emergency contacts configured",
	InvalidInput:          "invalid input",
	LocationUnavailable:   "location unavailable",
	CapabilityUnavailable: "messaging unavailable",
	DeliveryFailed:        "delivery failed",
	PermissionRequired:    "permission required",
	CallDeclined:          "call declined",
	CallFailed:            "call failed",
}

// Describe returns a short human readable description of the kind.
func (k ErrorKind) Describe() string {
	if desc, ok := errorKindDescriptions[k]; ok {
		return desc
	}
	return string(k)
}
