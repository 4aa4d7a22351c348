package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	// SignaturePrefix is the scheme tag carried in the signature header.
	SignaturePrefix = "sha256="

	// ReplayWindow is the maximum allowed clock skew between the event
	// timestamp and now, in either direction. Older (or more future)
	// events are rejected before the signature is even computed.
	ReplayWindow = 10 * time.Minute
)

// Validate authenticates an inbound webhook push. The raw body bytes must be
// exactly what arrived on the wire: any re-encoding before this call breaks
// the HMAC and defeats the trust boundary.
func Validate(messageID, timestamp string, body []byte, signature, secret string) bool {
	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return false
	}

	age := time.Since(ts)
	if age < 0 {
		age = -age
	}
	if age >= ReplayWindow {
		return false
	}

	expected := Sign(messageID, timestamp, body, secret)
	return constantTimeEqual([]byte(signature), []byte(expected))
}

// Sign computes the signature for messageID || timestamp || body.
func Sign(messageID, timestamp string, body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// constantTimeEqual XOR-accumulates over the full buffers so the comparison
// takes the same time whether the first or the last byte differs. Length
// mismatch is the only early exit; lengths are not secret.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
