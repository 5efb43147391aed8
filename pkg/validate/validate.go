// Package validate holds the input rules shared by the HTTP binding layer and the services.
package validate

import (
	"net/netip"
	"strings"
)

const (
	PhoneMinLength = 8
	PhoneMaxLength = 15
)

// IsValidIPAddress accepts dotted IPv4 with octets 0-255 and any IPv6 form.
func IsValidIPAddress(s string) bool {
	if s == "" {
		return false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Zone() == ""
}

// FormatIPInput cleans partially typed IPv4 input: it drops foreign characters, collapses
// repeated dots and keeps at most four groups of at most three digits. A leading dot is
// kept as typed.
func FormatIPInput(s string) string {
	var b strings.Builder
	groups, digits := 1, 0
	lastDot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if digits == 3 {
				continue
			}
			b.WriteRune(r)
			digits++
			lastDot = false
		case r == '.':
			if lastDot {
				continue
			}
			if groups == 4 {
				return b.String()
			}
			b.WriteRune(r)
			groups++
			digits = 0
			lastDot = true
		}
	}
	return b.String()
}

func isPhoneRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == ' ' || r == '-' || r == '+' || r == '(' || r == ')'
}

// FormatPhoneInput keeps digits, spaces and the characters + - ( ).
func FormatPhoneInput(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isPhoneRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidPhoneNumber checks the submitted form of a number, before normalisation.
func IsValidPhoneNumber(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < PhoneMinLength || len(s) > PhoneMaxLength {
		return false
	}
	digits := 0
	for _, r := range s {
		if !isPhoneRune(r) {
			return false
		}
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0
}

// NormalizePhone strips formatting so that "+1 (555) 010-9999" becomes "+15550109999".
func NormalizePhone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
