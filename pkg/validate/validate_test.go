package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidIPAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"8.8.8.8", true},
		{"192.168.0.1", true},
		{"255.255.255.255", true},
		{"2001:4860:4860::8888", true},
		{"::1", true},
		{"999.1.1.1", false},
		{"not an ip", false},
		{"1.2.3", false},
		{"", false},
		{"fe80::1%eth0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidIPAddress(tt.in))
		})
	}
}

func TestFormatIPInput(t *testing.T) {
	assert.Equal(t, "12.34.5.6", FormatIPInput("12..34.5.6abc"))
	assert.Equal(t, "1.2.3.4", FormatIPInput("1.2.3.4.5"))
	assert.Equal(t, "123.4", FormatIPInput("12345.4"))
	assert.Equal(t, "8.8.", FormatIPInput("8.8."))
	assert.Equal(t, ".", FormatIPInput("..abc"))
	assert.Equal(t, ".1", FormatIPInput(".1"))
	assert.Equal(t, ".1.2", FormatIPInput("..1..2"))
	assert.Equal(t, "", FormatIPInput("abc"))
}

func TestPhone(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		assert.True(t, IsValidPhoneNumber("+79991234567"))
		assert.True(t, IsValidPhoneNumber("(555) 010-99"))
		assert.False(t, IsValidPhoneNumber("1234567"))
		assert.False(t, IsValidPhoneNumber("+7999123456789012"))
		assert.False(t, IsValidPhoneNumber("+7999abc4567"))
		assert.False(t, IsValidPhoneNumber("--------"))
	})

	t.Run("formatting", func(t *testing.T) {
		assert.Equal(t, "+7 (999) 123-45", FormatPhoneInput("+7 (999) 123-45#x"))
		assert.Equal(t, "+15550109999", NormalizePhone(" +1 (555) 010-9999 "))
		assert.Equal(t, "5550109999", NormalizePhone("555+010+9999"))
	})
}
