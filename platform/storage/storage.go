package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"go_lecture_backend/config"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/utils"

	"github.com/minio/minio-go/v7"
)

// ObjectStore is the narrow storage surface the pipeline consumes: a
// public-read bucket for direct-publish assets and a private bucket for
// staged sources and rendered output.
type ObjectStore interface {
	UploadPublic(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	UploadPrivate(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignedGet(ctx context.Context, key, displayName string, expiry time.Duration) (string, error)
}

type Service struct {
	Client        *minio.Client
	PublicBucket  string
	PrivateBucket string
	Region        string
	StorageType   string
}

func InitStorageService(cfg *config.Config) (*Service, error) {
	client, err := utils.CreateBucketClient(cfg)
	if err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}

	ss := &Service{
		Client:        client,
		PublicBucket:  cfg.PublicBucket,
		PrivateBucket: cfg.PrivateBucket,
		Region:        cfg.BucketRegion,
		StorageType:   cfg.StorageType,
	}
	if err := ss.ensureBucket(cfg.PublicBucket, true); err != nil {
		return nil, err
	}
	if err := ss.ensureBucket(cfg.PrivateBucket, false); err != nil {
		return nil, err
	}
	logging.Logger.Info("Storage service initialized",
		"type", cfg.StorageType,
		"public_bucket", cfg.PublicBucket,
		"private_bucket", cfg.PrivateBucket,
	)
	return ss, nil
}

func (ss *Service) ensureBucket(bucket string, publicRead bool) error {
	ctx := context.Background()
	exists, err := ss.Client.BucketExists(ctx, bucket)
	if err != nil {
		logging.Logger.Error("fail ensureBucket", "bucket", bucket, "error", err)
		return err
	}
	if !exists {
		err = ss.Client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: ss.Region})
		if err != nil {
			if ss.StorageType == "s3" {
				logging.Logger.Warn("Could not create S3 bucket (might exist or no permission)",
					"bucket", bucket, "error", err)
				return nil
			}
			logging.Logger.Error("fail ensureBucket", "bucket", bucket, "error", err)
			return err
		}
	}
	if publicRead {
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
		if err := ss.Client.SetBucketPolicy(ctx, bucket, policy); err != nil {
			logging.Logger.Warn("could not set public-read policy", "bucket", bucket, "error", err)
		}
	}
	return nil
}

func (ss *Service) UploadPublic(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return ss.put(ctx, ss.PublicBucket, key, r, size, contentType)
}

func (ss *Service) UploadPrivate(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return ss.put(ctx, ss.PrivateBucket, key, r, size, contentType)
}

func (ss *Service) put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := ss.Client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logging.Logger.Error("fail put object", "bucket", bucket, "key", key, "error", err)
	}
	return err
}

// Download streams an object from the private bucket. The first read, not
// GetObject itself, surfaces a missing key, so Stat eagerly.
func (ss *Service) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := ss.Client.GetObject(ctx, ss.PrivateBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (ss *Service) Delete(ctx context.Context, key string) error {
	return ss.Client.RemoveObject(ctx, ss.PrivateBucket, key, minio.RemoveObjectOptions{})
}

func (ss *Service) Exists(ctx context.Context, key string) (bool, error) {
	_, err := ss.Client.StatObject(ctx, ss.PrivateBucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PresignedGet returns a short-lived download URL for a rendered asset,
// forcing the stored display name onto the browser download.
func (ss *Service) PresignedGet(ctx context.Context, key, displayName string, expiry time.Duration) (string, error) {
	params := make(url.Values)
	if displayName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", displayName))
	}
	u, err := ss.Client.PresignedGetObject(ctx, ss.PrivateBucket, key, expiry, params)
	if err != nil {
		logging.Logger.Error("fail PresignedGet", "key", key, "error", err)
		return "", err
	}
	return u.String(), nil
}
