package phoneutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "5511999990000", "5511999990000"},
		{"international format", "+55 (11) 99999-0000", "5511999990000"},
		{"jid suffix", "5511999990000@c.us", "5511999990000"},
		{"whatsapp net suffix", "5511999990000@s.whatsapp.net", "5511999990000"},
		{"dashes and dots", "55-11.99999.0000", "5511999990000"},
		{"empty", "", ""},
		{"letters only", "not-a-phone", ""},
		{"suffix digits ignored", "123@g4.us", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DigitsOnly(tt.input))
		})
	}
}
