// Package format holds Brazilian-locale formatting helpers shared by the
// screening workers: CPF identifiers and BRL currency values.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonDigits  = regexp.MustCompile(`\D`)
	cpfPattern = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
)

// FormatCPF renders a CPF as XXX.XXX.XXX-XX. Inputs shorter than 11 digits
// are zero-padded on the left (leading zeros are commonly dropped upstream).
// Values that still do not have 11 digits are returned unchanged.
func FormatCPF(value string) string {
	digits := nonDigits.ReplaceAllString(value, "")
	if len(digits) < 11 {
		digits = strings.Repeat("0", 11-len(digits)) + digits
	}
	if len(digits) != 11 {
		return value
	}
	return fmt.Sprintf("%s.%s.%s-%s", digits[0:3], digits[3:6], digits[6:9], digits[9:11])
}

// IsCPF reports whether value contains exactly 11 digits that could be a
// CPF. Sequences of a single repeated digit are rejected.
func IsCPF(value string) bool {
	digits := nonDigits.ReplaceAllString(value, "")
	if len(digits) != 11 {
		return false
	}
	return !allSameDigit(digits)
}

// ExtractCPFs scans free text for CPF-shaped tokens (formatted or bare) and
// returns them normalized to digits only, deduplicated in order of first
// appearance.
func ExtractCPFs(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, match := range cpfPattern.FindAllString(text, -1) {
		digits := nonDigits.ReplaceAllString(match, "")
		if len(digits) != 11 || allSameDigit(digits) {
			continue
		}
		if !seen[digits] {
			seen[digits] = true
			out = append(out, digits)
		}
	}
	return out
}

// DigitsOnly strips everything but digits from value.
func DigitsOnly(value string) string {
	return nonDigits.ReplaceAllString(value, "")
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// FormatCurrency renders a value as Brazilian Reais, e.g. R$ 1.234.567,89.
func FormatCurrency(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	whole := int64(value)
	cents := int64(value*100+0.5) - whole*100
	if cents >= 100 {
		whole++
		cents -= 100
	}

	grouped := groupThousands(whole)
	formatted := fmt.Sprintf("R$ %s,%02d", grouped, cents)
	if negative {
		return "-" + formatted
	}
	return formatted
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ".")
}
