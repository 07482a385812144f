package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCPF(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare digits", "12345678901", "123.456.789-01"},
		{"already formatted", "123.456.789-01", "123.456.789-01"},
		{"leading zeros dropped", "345678901", "003.456.789-01"},
		{"too many digits", "123456789012", "123456789012"},
		{"with noise", "cpf: 123.456.789-01", "123.456.789-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCPF(tt.input))
		})
	}
}

func TestIsCPF(t *testing.T) {
	assert.True(t, IsCPF("12345678901"))
	assert.True(t, IsCPF("123.456.789-01"))
	assert.False(t, IsCPF("1234567890"))
	assert.False(t, IsCPF("11111111111"), "repeated digit sequences are not valid CPFs")
	assert.False(t, IsCPF("not a cpf"))
}

func TestExtractCPFs(t *testing.T) {
	text := "Candidates: 123.456.789-01, 98765432100 and again 123.456.789-01. Ignore 11111111111."
	cpfs := ExtractCPFs(text)

	assert.Equal(t, []string{"12345678901", "98765432100"}, cpfs)
}

func TestExtractCPFsEmpty(t *testing.T) {
	assert.Empty(t, ExtractCPFs("no identifiers here"))
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero", 0, "R$ 0,00"},
		{"cents", 0.5, "R$ 0,50"},
		{"thousands", 1234.56, "R$ 1.234,56"},
		{"millions", 1234567.89, "R$ 1.234.567,89"},
		{"negative", -150.75, "-R$ 150,75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCurrency(tt.input))
		})
	}
}
