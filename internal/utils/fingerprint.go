package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Fingerprint hashes an attachment's raw bytes. Duplicate detection keys on
// this value, never on the filename
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// MessageIdentity derives a stable identity for an inbound message. The
// provider message id wins when present; otherwise sender, timestamp and
// subject are combined
func MessageIdentity(messageID, sender string, receivedAt time.Time, subject string) string {
	var seed string
	if messageID != "" {
		seed = messageID
	} else {
		seed = fmt.Sprintf("%s|%d|%s", sender, receivedAt.Unix(), subject)
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
