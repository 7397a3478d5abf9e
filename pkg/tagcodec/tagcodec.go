// Package tagcodec reverses the encoding applied to UDF user tag values.
// Tags may only contain alphanumeric characters, so values are stored as
// base64 with the '=' padding stripped.
package tagcodec

import (
	"encoding/base64"
	"strings"

	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
)

// Decode restores the stripped padding, base64-decodes the value and trims
// trailing newlines. Malformed input yields a DecodeError, distinguishable
// from a tag that legitimately decodes to the empty string.
func Decode(tag string) (string, error) {
	padded := tag + strings.Repeat("=", (4-len(tag)%4)%4)
	raw, err := base64.StdEncoding.DecodeString(padded)
	if err != nil {
		return "", agenterrors.NewDecodeError("tag value", err)
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

// Encode is the inverse of Decode: base64 with the padding stripped so the
// result is tag-safe.
func Encode(value string) string {
	return strings.TrimRight(base64.StdEncoding.EncodeToString([]byte(value)), "=")
}
