package security

import (
	"testing"
	"time"
)

const testSecret = "s3cret"

func TestValidate(t *testing.T) {
	body := []byte(`{"subscription":{"type":"stream.online"}}`)

	tests := []struct {
		name      string
		messageID string
		timestamp string
		signature func(id, ts string) string
		want      bool
	}{
		{
			name:      "valid signature within window",
			messageID: "msg-1",
			timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			signature: func(id, ts string) string { return Sign(id, ts, body, testSecret) },
			want:      true,
		},
		{
			name:      "timestamp 11 minutes old",
			messageID: "msg-2",
			timestamp: time.Now().UTC().Add(-11 * time.Minute).Format(time.RFC3339Nano),
			signature: func(id, ts string) string { return Sign(id, ts, body, testSecret) },
			want:      false,
		},
		{
			name:      "timestamp 11 minutes in the future",
			messageID: "msg-3",
			timestamp: time.Now().UTC().Add(11 * time.Minute).Format(time.RFC3339Nano),
			signature: func(id, ts string) string { return Sign(id, ts, body, testSecret) },
			want:      false,
		},
		{
			name:      "wrong secret",
			messageID: "msg-4",
			timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			signature: func(id, ts string) string { return Sign(id, ts, body, "wrong") },
			want:      false,
		},
		{
			name:      "unparseable timestamp",
			messageID: "msg-5",
			timestamp: "yesterday",
			signature: func(id, ts string) string { return Sign(id, ts, body, testSecret) },
			want:      false,
		},
		{
			name:      "missing prefix",
			messageID: "msg-6",
			timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			signature: func(id, ts string) string {
				return Sign(id, ts, body, testSecret)[len(SignaturePrefix):]
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := tt.signature(tt.messageID, tt.timestamp)
			got := Validate(tt.messageID, tt.timestamp, body, sig, testSecret)
			if got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_BodyTamper(t *testing.T) {
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	sig := Sign("msg-7", ts, []byte(`{"a":1}`), testSecret)

	if Validate("msg-7", ts, []byte(`{"a":2}`), sig, testSecret) {
		t.Error("tampered body accepted")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !constantTimeEqual([]byte("abc"), []byte("abc")) {
		t.Error("equal buffers reported unequal")
	}
	if constantTimeEqual([]byte("abc"), []byte("abd")) {
		t.Error("unequal buffers reported equal")
	}
	if constantTimeEqual([]byte("abc"), []byte("abcd")) {
		t.Error("length mismatch reported equal")
	}
}
