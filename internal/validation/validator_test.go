package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pionia-project/pionia/internal/errors"
)

func TestAsEmail(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"simple address", "user@example.com", true},
		{"subdomain", "user@mail.example.co.ke", true},
		{"plus tag", "user+tag@example.com", true},
		{"missing at", "user.example.com", false},
		{"missing domain", "user@", false},
		{"empty", "", false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.AsEmail(tt.value)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAsPhone(t *testing.T) {
	v := New()

	t.Run("accepts international format", func(t *testing.T) {
		ok, err := v.AsPhone("+254700000000")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("accepts spaces", func(t *testing.T) {
		ok, err := v.AsPhone("+254 700 000 000")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects letters", func(t *testing.T) {
		ok, err := v.AsPhone("not-a-phone")
		assert.False(t, ok)
		assert.Error(t, err)
	})
}

func TestAsInternationalPhone(t *testing.T) {
	v := New()

	t.Run("accepts number with dialing code", func(t *testing.T) {
		ok, err := v.AsInternationalPhone("+254700000000", "+254")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects number without dialing code", func(t *testing.T) {
		ok, err := v.AsInternationalPhone("0700000000", "+254")
		assert.False(t, ok)
		require.Error(t, err)
		assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
	})

	t.Run("custom pattern overrides builtin", func(t *testing.T) {
		ok, err := v.AsInternationalPhone("+10000", "+1", `^\+1[0-9]{4}$`)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAsPassword(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"strong password", "Abc123!@", true},
		{"all lowercase", "abc123", false},
		{"too short", "Ab1!", false},
		{"missing digit", "Abcdefg!", false},
		{"missing special", "Abcdefg1", false},
		{"missing upper", "abcdefg1!", false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.AsPassword(tt.value)
			assert.Equal(t, tt.valid, ok)
			if !tt.valid {
				assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
			}
		})
	}
}

func TestNonFailingMode(t *testing.T) {
	v := NewNonFailing()

	ok, err := v.AsEmail("not-an-email")
	assert.False(t, ok)
	assert.NoError(t, err)

	ok, err = v.AsPassword("weak")
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestFormatChecks(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		check func(string, ...string) (bool, error)
		value string
		valid bool
	}{
		{"numeric integer", v.AsNumeric, "42", true},
		{"numeric decimal", v.AsNumeric, "-3.14", true},
		{"numeric word", v.AsNumeric, "fortytwo", false},
		{"integer", v.AsInteger, "-7", true},
		{"integer decimal rejected", v.AsInteger, "7.5", false},
		{"url", v.AsURL, "https://example.com/path", true},
		{"url no scheme", v.AsURL, "example.com", false},
		{"ipv4", v.AsIP, "192.168.1.1", true},
		{"ipv6", v.AsIP, "::1", true},
		{"ip invalid", v.AsIP, "999.999.999.999", false},
		{"mac colons", v.AsMAC, "00:1A:2B:3C:4D:5E", true},
		{"mac invalid", v.AsMAC, "00:1A:2B", false},
		{"domain", v.AsDomain, "sub.example.com", true},
		{"domain no tld", v.AsDomain, "localhost", false},
		{"slug", v.AsSlug, "my-first-post", true},
		{"slug uppercase", v.AsSlug, "My-Post", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.check(tt.value)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCustomPatternInvalid(t *testing.T) {
	v := New()
	ok, err := v.AsEmail("user@example.com", "([")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom pattern")
}

func TestRequire(t *testing.T) {
	payload := map[string]any{"name": "todo", "empty": "", "null": nil}

	t.Run("present value", func(t *testing.T) {
		value, err := Require(payload, "name")
		require.NoError(t, err)
		assert.Equal(t, "todo", value)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := Require(payload, "absent")
		require.Error(t, err)
		assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := Require(payload, "empty")
		assert.Error(t, err)
	})

	t.Run("nil value", func(t *testing.T) {
		_, err := Require(payload, "null")
		assert.Error(t, err)
	})
}

func TestString(t *testing.T) {
	assert.Equal(t, "abc", String("abc"))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "42", String(42))
}
