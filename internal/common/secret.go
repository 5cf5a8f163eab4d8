package common

import "strings"

// WipeBytes overwrites b with zeros. Used for password buffers read from the
// terminal once they have been converted for a request. Nil is a no-op.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "a***@example.com", so addresses can appear in logs.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
