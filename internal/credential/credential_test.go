package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		code    string
		eventID int64
	}{
		{"ABC123", 1},
		{"X", 0},
		{"9F3A1B7C44D0", 987654},
	}
	for _, tc := range cases {
		token := Encode(tc.code, tc.eventID)
		code, eventID, err := Decode(token)
		require.NoError(t, err)
		assert.Equal(t, tc.code, code)
		assert.Equal(t, tc.eventID, eventID)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"||42",
		"CODE||",
		"CODE||abc",
		"CODE||-5",
		"CODE||4.2",
	}
	for _, token := range cases {
		_, _, err := Decode(token)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestGenerateCode(t *testing.T) {
	code := GenerateCode()
	assert.Len(t, code, 12)
	assert.Equal(t, strings.ToUpper(code), code)
	for _, r := range code {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z'), "unexpected rune %q", r)
	}
	assert.NotEqual(t, code, GenerateCode())
}
