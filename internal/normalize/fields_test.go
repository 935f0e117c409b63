package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"9876543210", "+919876543210"},
		{"09876543210", "+919876543210"},
		{"98765-43210", "+919876543210"},
		{"(987) 654 3210", "+919876543210"},
		{"+91 98765 43210", "+919876543210"},
		{"+1 (555) 123-4567", "+15551234567"},
		{"1234567", "+911234567"},
		{"123456", ""},
		{"000123", ""},
		{"+12", ""},
		{"abc", ""},
		{"(+91) 98765 43210", "+919876543210"},
		{"Ph: +91 98765 43210", "+919876543210"},
		{"Tel:+44 20 7946 0958", "+442079460958"},
		{"98765 +43210", "+919876543210"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.in))
		})
	}
}

func TestPhone_Idempotent(t *testing.T) {
	for _, in := range []string{"+919876543210", "9876543210", "0 98765 43210", "1234567", "+44 20 7946 0958", "Tel:+44 20 7946 0958", "12"} {
		once := Phone(in)
		assert.Equal(t, once, Phone(once), "input %q", in)
	}
	assert.Equal(t, "+919876543210", Phone("+919876543210"))
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "2024-01-15"},
		{" 2024-01-15 ", "2024-01-15"},
		{"15/01/2024", "2024-01-15"},
		{"15-01-2024", "2024-01-15"},
		{"5/1/2024", "2024-01-05"},
		{"31/02/2024", ""},
		{"2024/01/15", "2024-01-15"},
		{"15 Jan 2024", "2024-01-15"},
		{"Jan 15, 2024", "2024-01-15"},
		{"January 15, 2024", "2024-01-15"},
		{"2024-01-15T10:00:00Z", "2024-01-15"},
		{"15-Jan-2024", "2024-01-15"},
		{"not a date", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Date(tt.in))
		})
	}
}

func TestMonthlyCTC(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"50000", 50000},
		{"50,000", 50000},
		{"₹ 75,000.50", 75000.5},
		{"INR 1,20,000", 120000},
		{"Rs. 500", 0.5},
		{"1.2.3", 1.2},
		{".5", 0.5},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := MonthlyCTC(tt.in)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}

	for _, in := range []string{"", "n/a", ".", "..", "abc"} {
		assert.Nil(t, MonthlyCTC(in), "input %q", in)
	}
}
