package greenops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "small number no separators", n: 123, want: "123"},
		{name: "four digits with separator", n: 1234, want: "1,234"},
		{name: "millions", n: 1234567, want: "1,234,567"},
		{name: "zero", n: 0, want: "0"},
		{name: "negative number", n: -1234, want: "-1,234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.n))
		})
	}
}

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "12.5 kg", FormatKg(12.46, 1))
	assert.Equal(t, "0 kg", FormatKg(0.2, 0))
	assert.Equal(t, "3 kg", FormatKg(3, -1), "negative precision is clamped to zero")
}

func TestFormatSignedKg(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  string
	}{
		{name: "increase gets plus sign", delta: 12.5, want: "+12.5 kg"},
		{name: "decrease keeps minus sign", delta: -3.26, want: "-3.3 kg"},
		{name: "zero has no sign", delta: 0, want: "0.0 kg"},
		{name: "rounds to zero has no sign", delta: 0.01, want: "0.0 kg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSignedKg(tt.delta, 1))
		})
	}
}

func TestFormatLarge(t *testing.T) {
	assert.Equal(t, "~1.5 billion", FormatLarge(1_500_000_000))
	assert.Equal(t, "~5.2 million", FormatLarge(5_208_333))
	assert.Equal(t, "999,999", FormatLarge(999_999))
}
