// Package validation provides the stateless format checks offered to
// services, plus struct-tag payload validation.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/pionia-project/pionia/internal/errors"
)

// Built-in patterns. Callers may override any of them per call with a
// custom regular expression.
var (
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	numericPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	macPattern     = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
	domainPattern  = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*\.[a-z]{2,}$`)
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

const minPasswordLength = 8

// Validator performs reentrant format checks. In failing mode (the
// default) a failed check returns an InvalidData error; in non-failing
// mode it returns false with a nil error.
type Validator struct {
	failing bool
}

// New creates a Validator in failing mode.
func New() *Validator {
	return &Validator{failing: true}
}

// NewNonFailing creates a Validator that reports failures as a false
// result instead of an error.
func NewNonFailing() *Validator {
	return &Validator{failing: false}
}

// fail reports a failed check according to the validator's mode.
func (v *Validator) fail(format string, args ...any) (bool, error) {
	if v.failing {
		return false, errors.InvalidData(format, args...)
	}
	return false, nil
}

// matches checks value against the custom pattern if given, otherwise
// the built-in one.
func (v *Validator) matches(value, what string, builtin *regexp.Regexp, custom []string) (bool, error) {
	pattern := builtin
	if len(custom) > 0 && custom[0] != "" {
		compiled, err := regexp.Compile(custom[0])
		if err != nil {
			return false, errors.InvalidData("Invalid custom pattern for %s: %v", what, err)
		}
		pattern = compiled
	}
	if !pattern.MatchString(value) {
		return v.fail("%q is not a valid %s", value, what)
	}
	return true, nil
}

// AsEmail checks that value is a valid email address.
func (v *Validator) AsEmail(value string, pattern ...string) (bool, error) {
	return v.matches(value, "email address", emailPattern, pattern)
}

// AsPhone checks that value is a valid phone number.
func (v *Validator) AsPhone(value string, pattern ...string) (bool, error) {
	return v.matches(strings.ReplaceAll(value, " ", ""), "phone number", phonePattern, pattern)
}

// AsInternationalPhone checks that value is a valid phone number
// starting with the given international dialing code.
func (v *Validator) AsInternationalPhone(value, dialingCode string, pattern ...string) (bool, error) {
	normalized := strings.ReplaceAll(value, " ", "")
	if dialingCode != "" && !strings.HasPrefix(normalized, dialingCode) {
		return v.fail("%q must start with dialing code %s", value, dialingCode)
	}
	return v.matches(normalized, "phone number", phonePattern, pattern)
}

// AsPassword checks password strength: minimum length plus at least one
// uppercase letter, one lowercase letter, one digit, and one special
// character.
func (v *Validator) AsPassword(value string, pattern ...string) (bool, error) {
	if len(pattern) > 0 && pattern[0] != "" {
		return v.matches(value, "password", nil, pattern)
	}
	if len(value) < minPasswordLength {
		return v.fail("Password must be at least %d characters long", minPasswordLength)
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_':
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return v.fail("Password must contain an uppercase letter")
	case !hasLower:
		return v.fail("Password must contain a lowercase letter")
	case !hasDigit:
		return v.fail("Password must contain a digit")
	case !hasSpecial:
		return v.fail("Password must contain a special character")
	}
	return true, nil
}

// AsNumeric checks that value is a decimal number.
func (v *Validator) AsNumeric(value string, pattern ...string) (bool, error) {
	return v.matches(value, "number", numericPattern, pattern)
}

// AsInteger checks that value is an integer.
func (v *Validator) AsInteger(value string, pattern ...string) (bool, error) {
	return v.matches(value, "integer", integerPattern, pattern)
}

// AsURL checks that value is an absolute URL with a host.
func (v *Validator) AsURL(value string, pattern ...string) (bool, error) {
	if len(pattern) > 0 && pattern[0] != "" {
		return v.matches(value, "URL", nil, pattern)
	}
	parsed, err := url.ParseRequestURI(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return v.fail("%q is not a valid URL", value)
	}
	return true, nil
}

// AsIP checks that value is an IPv4 or IPv6 address.
func (v *Validator) AsIP(value string, pattern ...string) (bool, error) {
	if len(pattern) > 0 && pattern[0] != "" {
		return v.matches(value, "IP address", nil, pattern)
	}
	if net.ParseIP(value) == nil {
		return v.fail("%q is not a valid IP address", value)
	}
	return true, nil
}

// AsMAC checks that value is a MAC address.
func (v *Validator) AsMAC(value string, pattern ...string) (bool, error) {
	return v.matches(value, "MAC address", macPattern, pattern)
}

// AsDomain checks that value is a domain name.
func (v *Validator) AsDomain(value string, pattern ...string) (bool, error) {
	return v.matches(value, "domain name", domainPattern, pattern)
}

// AsSlug checks that value is a URL slug.
func (v *Validator) AsSlug(value string, pattern ...string) (bool, error) {
	return v.matches(value, "slug", slugPattern, pattern)
}

// Require checks that the payload contains a non-empty value for key.
func Require(payload map[string]any, key string) (any, error) {
	value, ok := payload[key]
	if !ok || value == nil {
		return nil, errors.InvalidData("Field %q is required", key)
	}
	if s, ok := value.(string); ok && s == "" {
		return nil, errors.InvalidData("Field %q is required", key)
	}
	return value, nil
}

// String coerces a payload value to its string form.
func String(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
