package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/purplearchive/purple-archive-server/apperrors"
)

// ObjectStorage persists finalized album assets and hands back durable URLs.
type ObjectStorage interface {
	Upload(localPath, key, contentType string) (string, error)
	Download(key, localPath string) error
	Delete(key string) error
	URLFor(key string) string
	KeyFromURL(url string) (string, error)
}

// AlbumKey and AlbumThumbKey derive the object keys a promoted upload is
// stored under.
func AlbumKey(uuid string) string {
	return "albums/" + uuid + ".gif"
}

func AlbumThumbKey(uuid string) string {
	return "albums/" + uuid + "_thumb.gif"
}

// S3Storage stores objects in a single S3 bucket.
type S3Storage struct {
	region   string
	bucket   string
	svc      *s3.S3
	uploader *s3manager.Uploader
}

// NewS3Storage builds an S3-backed store using the default credential chain.
func NewS3Storage(region, bucket string) (*S3Storage, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return &S3Storage{
		region:   region,
		bucket:   bucket,
		svc:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Upload stores the local file under key and returns its public URL.
func (s *S3Storage) Upload(localPath, key, contentType string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for upload: %w", localPath, err)
	}
	defer file.Close()

	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.External("s3", fmt.Errorf("failed to upload %s: %w", key, err))
	}
	return s.URLFor(key), nil
}

// Download fetches the object under key into localPath.
func (s *S3Storage) Download(key, localPath string) error {
	out, err := s.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.External("s3", fmt.Errorf("failed to get %s: %w", key, err))
	}
	defer out.Body.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, out.Body); err != nil {
		return apperrors.External("s3", fmt.Errorf("failed to read %s: %w", key, err))
	}
	return nil
}

// Delete removes the object under key. Deleting a missing object succeeds.
func (s *S3Storage) Delete(key string) error {
	_, err := s.svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.External("s3", fmt.Errorf("failed to delete %s: %w", key, err))
	}
	return nil
}

// URLFor returns the canonical public URL of an object.
func (s *S3Storage) URLFor(key string) string {
	return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", s.region, s.bucket, key)
}

// KeyFromURL recovers the object key from a URL previously produced by URLFor.
func (s *S3Storage) KeyFromURL(url string) (string, error) {
	prefix := s.URLFor("")
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q does not belong to bucket %q", url, s.bucket)
	}
	return strings.TrimPrefix(url, prefix), nil
}
