// Package contacts persists the one required and one optional emergency
// phone number, plus the display name used when composing alerts.
package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/Daskott/sos/models"
	"github.com/Daskott/sos/utils"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	NAMESPACE        = "contacts"
	PRIMARY_KEY      = "primary"
	SECONDARY_KEY    = "secondary"
	DISPLAY_NAME_KEY = "display_name"
	MIN_DIGITS       = 10
)

var ErrInvalidInput = errors.New("phone number must contain at least 10 digits")

// PhoneNumber is a digit-only string of at least MIN_DIGITS digits.
type PhoneNumber string

// Normalize strips every non-digit from 'raw' and checks the result is long enough.
func Normalize(raw string) (PhoneNumber, error) {
	digits := utils.DigitsOnly(raw)
	if len(digits) < MIN_DIGITS {
		return "", fmt.Errorf("%w: %q", ErrInvalidInput, raw)
	}

	return PhoneNumber(digits), nil
}

func (number PhoneNumber) String() string {
	return string(number)
}

type EmergencyContact struct {
	DisplayName string      `json:"display_name,omitempty"`
	Primary     PhoneNumber `json:"primary"`
	Secondary   PhoneNumber `json:"secondary,omitempty"`
}

// Recipients returns the numbers to alert, primary first.
func (contact EmergencyContact) Recipients() []PhoneNumber {
	recipients := []PhoneNumber{contact.Primary}
	if contact.Secondary != "" {
		recipients = append(recipients, contact.Secondary)
	}

	return recipients
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the stored contact, or nil if no primary number is stored.
func (store *Store) Get(ctx context.Context) (*EmergencyContact, error) {
	values, err := models.FindSettings(store.db.WithContext(ctx), NAMESPACE)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "contacts.Get")
	}

	if values[PRIMARY_KEY] == "" {
		return nil, nil
	}

	return &EmergencyContact{
		DisplayName: values[DISPLAY_NAME_KEY],
		Primary:     PhoneNumber(values[PRIMARY_KEY]),
		Secondary:   PhoneNumber(values[SECONDARY_KEY]),
	}, nil
}

// Set replaces both stored numbers. An invalid primary fails with ErrInvalidInput
// and leaves the store untouched; an invalid or empty secondary is dropped.
func (store *Store) Set(ctx context.Context, primary, secondary string) error {
	return pkgErrors.Wrap(store.save(ctx, nil, primary, secondary), "contacts.Set")
}

// Save replaces the display name and both numbers in one transaction, so a
// failure leaves all three as they were. An empty name removes it.
func (store *Store) Save(ctx context.Context, displayName, primary, secondary string) error {
	return pkgErrors.Wrap(store.save(ctx, &displayName, primary, secondary), "contacts.Save")
}

func (store *Store) save(ctx context.Context, displayName *string, primary, secondary string) error {
	primaryNumber, err := Normalize(primary)
	if err != nil {
		return err
	}

	secondaryNumber, err := Normalize(secondary)
	if err != nil {
		secondaryNumber = ""
	}

	return store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.SaveSetting(tx, NAMESPACE, PRIMARY_KEY, primaryNumber.String()); err != nil {
			return err
		}

		if err := saveOrDelete(tx, SECONDARY_KEY, secondaryNumber.String()); err != nil {
			return err
		}

		if displayName == nil {
			return nil
		}

		return saveOrDelete(tx, DISPLAY_NAME_KEY, *displayName)
	})
}

// SelectNumbers returns the first two valid numbers of 'numbers' as primary and
// secondary. It fails with ErrInvalidInput if none are valid.
func SelectNumbers(numbers []string) (primary, secondary string, err error) {
	valid := []string{}
	for _, number := range numbers {
		if _, err := Normalize(number); err == nil {
			valid = append(valid, number)
		}
	}

	switch len(valid) {
	case 0:
		return "", "", fmt.Errorf("%w: no valid number in %q", ErrInvalidInput, numbers)
	case 1:
		return valid[0], "", nil
	default:
		return valid[0], valid[1], nil
	}
}

func saveOrDelete(db *gorm.DB, key, value string) error {
	if value == "" {
		return models.DeleteSettings(db, NAMESPACE, key)
	}

	return models.SaveSetting(db, NAMESPACE, key, value)
}

// Clear removes every stored value.
func (store *Store) Clear(ctx context.Context) error {
	return pkgErrors.Wrap(models.DeleteSettings(store.db.WithContext(ctx), NAMESPACE), "contacts.Clear")
}
