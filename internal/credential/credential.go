// Package credential encodes and decodes the participant token embedded in
// event QR codes. The token is a plain delimited concatenation; it provides
// structure, not authenticity. Participant codes are restricted to
// alphanumeric characters at issuance, which guarantees the separator never
// appears inside a code.
package credential

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Separator splits the participant code from the event id inside a token.
const Separator = "||"

// ErrMalformed is returned when a token cannot be decoded.
var ErrMalformed = errors.New("malformed credential token")

// Encode builds the scannable token for a participant code and event id.
func Encode(code string, eventID int64) string {
	return code + Separator + strconv.FormatInt(eventID, 10)
}

// Decode splits a token back into its participant code and event id.
// It fails with ErrMalformed when the separator is missing, the code segment
// is empty, or the event segment is not a non-negative integer.
func Decode(token string) (string, int64, error) {
	idx := strings.Index(token, Separator)
	if idx < 0 {
		return "", 0, ErrMalformed
	}
	code := token[:idx]
	rest := token[idx+len(Separator):]
	if code == "" || rest == "" {
		return "", 0, ErrMalformed
	}
	eventID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || eventID < 0 {
		return "", 0, ErrMalformed
	}
	return code, eventID, nil
}

// GenerateCode issues a fresh alphanumeric participant code.
func GenerateCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:12])
}

// NewQRHash issues the opaque hash stored alongside a credential.
func NewQRHash() string {
	return uuid.NewString()
}
