package phone_test

import (
	"strings"
	"testing"

	"github.com/niksmo/storefront/internal/core/phone"
	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	assert.Equal(t, "79123456789", phone.Digits("+7 (912) 345-67-89"))
	assert.Equal(t, "", phone.Digits("+() -"))
	assert.Equal(t, "12", phone.Digits("a1٣b2"))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		digits string
		want   string
	}{
		{"", "+7"},
		{"7", "+7"},
		{"79", "+7 (9"},
		{"791", "+7 (91"},
		{"7912", "+7 (912)"},
		{"79123", "+7 (912) 3"},
		{"7912345", "+7 (912) 345"},
		{"79123456", "+7 (912) 345-6"},
		{"791234567", "+7 (912) 345-67"},
		{"7912345678", "+7 (912) 345-67-8"},
		{"79123456789", "+7 (912) 345-67-89"},
		{"791234567890", "+7 (912) 345-67-89"},
	}
	for _, tt := range tests {
		t.Run(tt.digits, func(t *testing.T) {
			assert.Equal(t, tt.want, phone.Format(tt.digits))
		})
	}
}

func TestInput(t *testing.T) {
	t.Run("ProgressiveTyping", func(t *testing.T) {
		var shown string
		for i, c := range "9123456789012" {
			shown = phone.Input(shown, shown+string(c))
			assert.True(t, strings.HasPrefix(shown, "+7 ("), "step %d: %q", i, shown)
			assert.LessOrEqual(t, len(phone.Digits(shown)), phone.MaxDigits)
		}
		assert.Equal(t, "+7 (912) 345-67-89", shown)
		assert.True(t, phone.Valid(shown))
	})

	t.Run("ProgressiveTypingFromFocus", func(t *testing.T) {
		shown := phone.Focus("")
		for i, c := range "79000000001" {
			shown = phone.Input(shown, shown+string(c))
			assert.True(t, strings.HasPrefix(shown, "+7 ("), "step %d: %q", i, shown)
			assert.LessOrEqual(t, len(phone.Digits(shown)), phone.MaxDigits)
		}
		assert.Equal(t, "+7 (790) 000-00-00", shown)
	})

	t.Run("LeadingTrunkKept", func(t *testing.T) {
		assert.Equal(t, "+7 (9", phone.Input("", "79"))
	})

	t.Run("EmptyClears", func(t *testing.T) {
		assert.Equal(t, "", phone.Input("+7", ""))
		assert.Equal(t, "", phone.Input("", "abc"))
	})

	t.Run("Deletion", func(t *testing.T) {
		assert.Equal(t, "+7 (912) 345-67", phone.Input("+7 (912) 345-67-8", "+7 (912) 345-67-"))
		assert.Equal(t, "+7 (91", phone.Input("+7 (912", "+7 (91"))
		assert.Equal(t, "+7", phone.Input("+7 (", "+7 "))
	})

	t.Run("DeletionForcesTrunk", func(t *testing.T) {
		assert.Equal(t, "+7 (12", phone.Input("8 (123", "8 (12"))
	})
}

func TestFocus(t *testing.T) {
	assert.Equal(t, "+7 (", phone.Focus(""))
	assert.Equal(t, "+7 (912", phone.Focus("+7 (912"))
	assert.False(t, phone.Valid(phone.Focus("")))
}

func TestValid(t *testing.T) {
	assert.True(t, phone.Valid("+7 (912) 345-67-89"))
	assert.True(t, phone.Valid("79000000001"))
	assert.False(t, phone.Valid("89123456789"))
	assert.False(t, phone.Valid("+7 (912) 345-67-8"))
	assert.False(t, phone.Valid("791234567890"))
	assert.False(t, phone.Valid(""))
}

func TestPretty(t *testing.T) {
	assert.Equal(t, "+7 (900) 000-00-01", phone.Pretty("79000000001"))
	assert.Equal(t, "12345", phone.Pretty("12345"))
}
