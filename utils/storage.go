// campusvoice/utils/storage.go
package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LocalStorage implements models.BackupStore for a directory on local disk.
type LocalStorage struct {
	Dir string
}

func (ls *LocalStorage) SaveBackup(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	if err := os.MkdirAll(ls.Dir, 0755); err != nil {
		return "", fmt.Errorf("could not create backup directory %s: %w", ls.Dir, err)
	}
	fullPath := filepath.Join(ls.Dir, filepath.Base(name))
	f, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return fullPath, nil
}

// S3Storage implements models.BackupStore for S3-compatible object storage.
type S3Storage struct {
	Client     *minio.Client
	BucketName string
	Prefix     string
}

func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*S3Storage, error) {
	// Strip scheme if present
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	var creds *credentials.Credentials
	if accessKey == "" || secretKey == "" {
		// Use IAM role credentials if keys are not provided
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(accessKey, secretKey, "")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := minioClient.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	return &S3Storage{
		Client:     minioClient,
		BucketName: bucket,
		Prefix:     "backups/",
	}, nil
}

func (s3 *S3Storage) SaveBackup(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	key := s3.Prefix + filepath.Base(name)
	info, err := s3.Client.PutObject(ctx, s3.BucketName, key, r, size, minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	if err != nil {
		return "", fmt.Errorf("uploading backup to s3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}
