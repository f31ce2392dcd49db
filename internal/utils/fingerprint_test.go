package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	// Arrange
	content := []byte("%PDF-1.4 report body")
	sameContent := []byte("%PDF-1.4 report body")
	otherContent := []byte("%PDF-1.4 other body")

	// Act
	fp := Fingerprint(content)

	// Assert
	require.Len(t, fp, 64)
	require.Equal(t, fp, Fingerprint(sameContent))
	require.NotEqual(t, fp, Fingerprint(otherContent))
}

func TestMessageIdentity_PrefersMessageID(t *testing.T) {
	receivedAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	withID := MessageIdentity("abc@mail.example.com", "alice@example.com", receivedAt, "Daily Report")
	sameID := MessageIdentity("abc@mail.example.com", "bob@example.com", receivedAt.Add(time.Hour), "Other subject")

	// The provider message id wins over the other fields
	require.Equal(t, withID, sameID)
}

func TestMessageIdentity_FallbackFields(t *testing.T) {
	receivedAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	identity := MessageIdentity("", "alice@example.com", receivedAt, "Daily Report")

	require.Len(t, identity, 64)
	require.Equal(t, identity, MessageIdentity("", "alice@example.com", receivedAt, "Daily Report"))
	require.NotEqual(t, identity, MessageIdentity("", "alice@example.com", receivedAt, "Other subject"))
	require.NotEqual(t, identity, MessageIdentity("", "bob@example.com", receivedAt, "Daily Report"))
}

func TestFileExtensionForContentType(t *testing.T) {
	require.Equal(t, "pdf", FileExtensionForContentType("application/pdf"))
	require.Equal(t, "pdf", FileExtensionForContentType("Application/PDF"))
	require.Equal(t, "txt", FileExtensionForContentType("text/plain; charset=utf-8"))
	require.Equal(t, "xlsx", FileExtensionForContentType("application/vnd.ms-excel"))
	require.Equal(t, "bin", FileExtensionForContentType("application/octet-stream"))
}
