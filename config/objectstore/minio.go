package objectstore

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"notestash/pkg/logger"
)

// Connect builds the process-wide MinIO client from the environment and
// verifies the configured bucket is reachable before the server starts
// taking requests.
func Connect() (*minio.Client, string) {
	endpoint := strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	accessKey := strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	secretKey := strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY"))
	bucket := strings.TrimSpace(os.Getenv("MINIO_BUCKET"))
	useSSL := strings.TrimSpace(os.Getenv("MINIO_USE_SSL")) == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		logger.Sugar.Fatalf("Failed to create object storage client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		logger.Sugar.Fatalf("Failed to reach object storage at %s: %v", endpoint, err)
	}
	if !exists {
		logger.Sugar.Fatalf("Bucket %s does not exist", bucket)
	}

	logger.Sugar.Infof("Successfully connected to object storage (bucket %s)", bucket)
	return client, bucket
}
