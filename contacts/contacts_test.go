package contacts

import (
	"context"
	"errors"
	"testing"

	"github.com/Daskott/sos/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input    string
		expected PhoneNumber
		valid    bool
	}{
		{"5551234567", "5551234567", true},
		{"(555) 123-4567", "5551234567", true},
		{"+1 (555) 123-4567", "15551234567", true},
		{"555-1234", "", false},
		{"555 123 456", "", false},
		{"phone", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			number, err := Normalize(tc.input)
			if !tc.valid {
				assert.True(t, errors.Is(err, ErrInvalidInput), "Expected ErrInvalidInput, got %v", err)
				return
			}

			assert.Nil(t, err)
			assert.Equal(t, tc.expected, number)
		})
	}
}

func TestGetWithoutContact(t *testing.T) {
	store := NewStore(models.InitializeTestDb())

	contact, err := store.Get(context.Background())
	assert.Nil(t, err)
	assert.Nil(t, contact, "Should return nil when no primary number is stored")
}

func TestSetRoundTrip(t *testing.T) {
	testCases := []struct {
		description string
		primary     string
		secondary   string
		expected    EmergencyContact
	}{
		{
			description: "Should store primary & secondary",
			primary:     "5551234567",
			secondary:   "5559876543",
			expected:    EmergencyContact{Primary: "5551234567", Secondary: "5559876543"},
		},
		{
			description: "Should normalize both numbers",
			primary:     "(555) 123-4567",
			secondary:   "555.987.6543",
			expected:    EmergencyContact{Primary: "5551234567", Secondary: "5559876543"},
		},
		{
			description: "Should silently drop an invalid secondary",
			primary:     "5551234567",
			secondary:   "911",
			expected:    EmergencyContact{Primary: "5551234567"},
		},
		{
			description: "Should store primary only",
			primary:     "5551234567",
			expected:    EmergencyContact{Primary: "5551234567"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			store := NewStore(models.InitializeTestDb())

			err := store.Set(context.Background(), tc.primary, tc.secondary)
			assert.Nil(t, err)

			contact, err := store.Get(context.Background())
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, *contact)
		})
	}
}

func TestSetInvalidPrimaryLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewStore(models.InitializeTestDb())

	err := store.Set(ctx, "5551234567", "5559876543")
	assert.Nil(t, err)

	for _, primary := range []string{"", "123", "555-123-456", "no digits here"} {
		err = store.Set(ctx, primary, "5550001111")
		assert.True(t, errors.Is(err, ErrInvalidInput), "Expected ErrInvalidInput for %q", primary)
	}

	contact, err := store.Get(ctx)
	assert.Nil(t, err)
	assert.Equal(t, EmergencyContact{Primary: "5551234567", Secondary: "5559876543"}, *contact)
}

func TestSetReplacesPreviousValues(t *testing.T) {
	ctx := context.Background()
	store := NewStore(models.InitializeTestDb())

	assert.Nil(t, store.Set(ctx, "5551234567", "5559876543"))
	assert.Nil(t, store.Set(ctx, "5550001111", ""))

	contact, err := store.Get(ctx)
	assert.Nil(t, err)
	assert.Equal(t, EmergencyContact{Primary: "5550001111"}, *contact, "Secondary should not be merged from the previous set")
}

func TestSave(t *testing.T) {
	testCases := []struct {
		description string
		name        string
		primary     string
		secondary   string
		expected    EmergencyContact
		expectErr   bool
	}{
		{
			description: "Should replace name and numbers",
			name:        "Ada",
			primary:     "5550001111",
			expected:    EmergencyContact{DisplayName: "Ada", Primary: "5550001111"},
		},
		{
			description: "Should remove the name when empty",
			primary:     "5550001111",
			secondary:   "5550002222",
			expected:    EmergencyContact{Primary: "5550001111", Secondary: "5550002222"},
		},
		{
			description: "Should NOT change the name when the primary is invalid",
			name:        "Ada",
			primary:     "123",
			expected:    EmergencyContact{DisplayName: "Tony", Primary: "5551234567", Secondary: "5559876543"},
			expectErr:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(models.InitializeTestDb())
			assert.Nil(t, store.Save(ctx, "Tony", "5551234567", "5559876543"))

			err := store.Save(ctx, tc.name, tc.primary, tc.secondary)
			if tc.expectErr {
				assert.True(t, errors.Is(err, ErrInvalidInput))
			} else {
				assert.Nil(t, err)
			}

			contact, err := store.Get(ctx)
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, *contact)
		})
	}
}

func TestSaveRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	db := models.InitializeTestDb()
	store := NewStore(db)
	assert.Nil(t, store.Save(ctx, "Tony", "5551234567", "5559876543"))

	err := db.Callback().Create().Before("gorm:create").Register("test:fail_display_name", func(tx *gorm.DB) {
		if setting, ok := tx.Statement.Dest.(*models.Setting); ok && setting.Name == DISPLAY_NAME_KEY {
			tx.AddError(errors.New("disk full"))
		}
	})
	assert.Nil(t, err)

	assert.NotNil(t, store.Save(ctx, "Ada", "5550001111", ""))

	contact, err := store.Get(ctx)
	assert.Nil(t, err)
	assert.Equal(t, EmergencyContact{DisplayName: "Tony", Primary: "5551234567", Secondary: "5559876543"}, *contact,
		"Numbers should not change when the name cannot be saved")
}

func TestSelectNumbers(t *testing.T) {
	testCases := []struct {
		description string
		numbers     []string
		primary     string
		secondary   string
		expectErr   bool
	}{
		{"first two valid numbers", []string{"12", "555-123-4567", "bad", "5559876543", "5550001111"}, "555-123-4567", "5559876543", false},
		{"one valid number", []string{"12", "5551234567"}, "5551234567", "", false},
		{"no valid number", []string{"12", "34"}, "", "", true},
		{"empty list", nil, "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			primary, secondary, err := SelectNumbers(tc.numbers)
			if tc.expectErr {
				assert.True(t, errors.Is(err, ErrInvalidInput))
			} else {
				assert.Nil(t, err)
			}

			assert.Equal(t, tc.primary, primary)
			assert.Equal(t, tc.secondary, secondary)
		})
	}
}

func TestDisplayNameAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(models.InitializeTestDb())

	assert.Nil(t, store.Save(ctx, "Tony", "5551234567", ""))

	contact, err := store.Get(ctx)
	assert.Nil(t, err)
	assert.Equal(t, "Tony", contact.DisplayName)
	assert.Equal(t, []PhoneNumber{"5551234567"}, contact.Recipients())

	assert.Nil(t, store.Clear(ctx))

	contact, err = store.Get(ctx)
	assert.Nil(t, err)
	assert.Nil(t, contact)
}

func TestRecipientsOrder(t *testing.T) {
	contact := EmergencyContact{Primary: "5551234567", Secondary: "5559876543"}
	assert.Equal(t, []PhoneNumber{"5551234567", "5559876543"}, contact.Recipients())
}
