package whatsapp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"012345678", "85512345678"},
		{"0987654321", "855987654321"},
		{"012 345 678", "85512345678"},
		{"(012) 345-678", "85512345678"},
		{"+855 12 345 678", "85512345678"},
		{"+855012345678", "85512345678"},
		{"85512345678", "85512345678"},
		{"+14155550123", "14155550123"},
		{"0123", "0123"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in))
		})
	}
}

func TestRenderLoginCode(t *testing.T) {
	var buf bytes.Buffer
	renderLoginCode(&buf, "2@abc,def,ghi")
	assert.Contains(t, buf.String(), "Linked Devices")
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("\n")), 10)
}
