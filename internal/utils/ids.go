package utils

import (
	"crypto/sha256"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateNanoIDWithPrefix builds identifiers like "run_x8f2k1..."
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}

// GenerateMessageID creates a unique RFC 5322 message id for outbound mail
func GenerateMessageID(domain, metadata string) string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		panic(err)
	}

	timestamp := time.Now().UnixMicro()

	var hashComponent string
	if metadata != "" {
		hash := sha256.Sum256([]byte(metadata))
		hashComponent = fmt.Sprintf(".%x", hash[:4])
	}

	localPart := fmt.Sprintf("%d.%s%s", timestamp, id, hashComponent)
	return fmt.Sprintf("<%s@%s>", localPart, domain)
}
