package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/narvanalabs/domain-registry/internal/models"
)

const (
	// MaxHostnameLength is the longest textual hostname DNS can carry.
	MaxHostnameLength = 253
	// MaxLabelLength is the longest single DNS label.
	MaxLabelLength = 63
)

// hostnameLabelRegex validates a lowercased hostname label:
// - Letters, digits and hyphens only
// - Must start and end with a letter or digit
var hostnameLabelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

var numericLabelRegex = regexp.MustCompile(`^[0-9]+$`)

// HostnameValidator decides whether a string may be registered as a custom domain.
type HostnameValidator struct {
	reservedSuffixes []string
}

// NewHostnameValidator creates a validator that additionally refuses hostnames
// equal to or underneath any of the platform-owned suffixes.
func NewHostnameValidator(reservedSuffixes []string) *HostnameValidator {
	v := &HostnameValidator{}
	for _, s := range reservedSuffixes {
		s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".")
		if s != "" {
			v.reservedSuffixes = append(v.reservedSuffixes, s)
		}
	}
	return v
}

var defaultHostnameValidator = NewHostnameValidator(nil)

// ValidateHostname validates candidate with no reserved suffixes and returns
// the normalized hostname.
func ValidateHostname(candidate string) (string, error) {
	return defaultHostnameValidator.Validate(candidate)
}

// Validate checks candidate against the hostname grammar and returns it
// lowercased. Rules:
// - At most 253 characters, labels of 1-63 characters
// - Labels are alphanumeric with inner hyphens, never two hyphens in a row
// - An optional leading "*" label, nowhere else
// - At least two labels besides the wildcard, the last two not all digits
func (v *HostnameValidator) Validate(candidate string) (string, error) {
	if candidate == "" {
		return "", invalid("domain is required")
	}

	hostname := strings.ToLower(candidate)
	if len(hostname) > MaxHostnameLength {
		return "", invalid(fmt.Sprintf("domain must be %d characters or less", MaxHostnameLength))
	}

	labels := strings.Split(hostname, ".")
	wildcard := labels[0] == "*"
	if wildcard {
		labels = labels[1:]
	}

	if len(labels) < 2 {
		return "", invalid("domain must have at least two labels")
	}

	for _, label := range labels {
		if err := validateLabel(label); err != nil {
			return "", err
		}
	}

	// Numeric labels are fine deeper in the name (xip.io style addresses), but
	// the registrable part must not look like an IP address.
	if numericLabelRegex.MatchString(labels[len(labels)-1]) {
		return "", invalid("top-level label cannot be numeric")
	}
	if numericLabelRegex.MatchString(labels[len(labels)-2]) {
		return "", invalid("second-level label cannot be numeric")
	}

	name := strings.Join(labels, ".")
	for _, suffix := range v.reservedSuffixes {
		if name == suffix || strings.HasSuffix(name, "."+suffix) {
			return "", invalid(fmt.Sprintf("domains under %q are reserved by the platform", suffix))
		}
	}

	return hostname, nil
}

func validateLabel(label string) error {
	switch {
	case label == "":
		return invalid("domain cannot contain an empty label")
	case label == "*":
		return invalid("wildcard is only allowed as the leftmost label")
	case len(label) > MaxLabelLength:
		return invalid(fmt.Sprintf("label %q must be %d characters or less", label, MaxLabelLength))
	case !hostnameLabelRegex.MatchString(label):
		return invalid(fmt.Sprintf("label %q must contain only letters, numbers, and hyphens, and cannot start or end with a hyphen", label))
	case strings.Contains(label, "--"):
		// Covers punycode ("xn--") as well as platform-internal names.
		return invalid(fmt.Sprintf("label %q cannot contain consecutive hyphens", label))
	}
	return nil
}

func invalid(message string) error {
	return &models.ValidationError{
		Field:   "domain",
		Message: message,
	}
}
