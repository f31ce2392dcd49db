package storage

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/services/storage/aws_client"
)

// NewR2StorageService creates a StorageService configured for Cloudflare R2
func NewR2StorageService(accountID, accessKeyID, accessKeySecret, bucketName string, isPublic bool) interfaces.StorageService {
	r2Client := aws_client.NewS3Client(&aws.Config{
		Endpoint:         aws.String("https://" + accountID + ".r2.cloudflarestorage.com"),
		Region:           aws.String("auto"),
		Credentials:      credentials.NewStaticCredentials(accessKeyID, accessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	})

	return NewStorageService(r2Client, StorageConfig{
		BucketName: bucketName,
		IsPublic:   isPublic,
	})
}

// AcceptedKey is the storage location for an accepted document:
// accepted/<YYYY-MM-DD>/<fingerprint>.<ext>
func AcceptedKey(runDate, fingerprint, ext string) string {
	return fmt.Sprintf("accepted/%s/%s.%s", runDate, fingerprint, ext)
}

// RejectedKey is the storage location for a rejected document, tagged with
// the rejection reason as a filename suffix:
// rejected/<YYYY-MM-DD>/<fingerprint>_<reason>.<ext>
func RejectedKey(runDate, fingerprint, reason, ext string) string {
	return fmt.Sprintf("rejected/%s/%s_%s.%s", runDate, fingerprint, reason, ext)
}

// ReportKey is the storage location for the consolidated run report file
func ReportKey(runDate string) string {
	return fmt.Sprintf("reports/%s.xlsx", runDate)
}
