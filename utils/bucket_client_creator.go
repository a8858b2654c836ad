package utils

import (
	"fmt"

	"go_lecture_backend/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// CreateBucketClient builds the object-storage client for the configured
// backend. MinIO talks to the configured endpoint; the s3 type targets AWS
// with the configured region.
func CreateBucketClient(cfg *config.Config) (*minio.Client, error) {
	creds := credentials.NewStaticV4(cfg.BucketAccessID, cfg.BucketAccessKey, "")

	switch cfg.StorageType {
	case "minio":
		return minio.New(cfg.BucketEndpoint, &minio.Options{
			Creds:  creds,
			Secure: cfg.UseSSL,
		})
	case "s3":
		return minio.New("s3.amazonaws.com", &minio.Options{
			Creds:  creds,
			Secure: cfg.UseSSL,
			Region: cfg.BucketRegion,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}
