package dispatch

import (
	"fmt"
	"strings"

	"github.com/Daskott/sos/location"
)

const (
	DISTRESS_PREAMBLE = "EMERGENCY:"
	MAP_LINK_BASE_URL = "https://www.google.com/maps?q="
)

// Compose builds the alert text. It is pure: the same inputs always produce
// the same message.
func Compose(displayName string, fix *location.Fix) string {
	message := DISTRESS_PREAMBLE + " I need immediate assistance!"
	if name := strings.TrimSpace(displayName); name != "" {
		message = fmt.Sprintf("%s %s needs immediate help!", DISTRESS_PREAMBLE, name)
	}

	if fix != nil {
		message += " Current location: " + MapLink(*fix)
	}

	return message
}

// MapLink returns a map URL pointing at 'fix', with coordinates to six
// decimal places (about 10cm).
func MapLink(fix location.Fix) string {
	return fmt.Sprintf("%s%.6f,%.6f", MAP_LINK_BASE_URL, fix.Latitude, fix.Longitude)
}
