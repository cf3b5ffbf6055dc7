package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/cliniclog/logbook-api/config"
)

// ObjectStore wraps an S3-compatible bucket holding attestation documents.
// Attestations are private: access goes through presigned URLs, never a
// public ACL.
type ObjectStore struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// NewObjectStore builds an object store from the environment. Returns nil
// when storage is not configured, which callers treat as uploads disabled.
func NewObjectStore() (*ObjectStore, error) {
	env, err := config.Get()
	if err != nil {
		return nil, err
	}
	if env.STORAGE_ACCESS_KEY == "" || env.STORAGE_BUCKET == "" {
		return nil, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			env.STORAGE_ACCESS_KEY,
			env.STORAGE_SECRET_KEY,
			"",
		),
		Endpoint:         aws.String(env.STORAGE_ENDPOINT),
		Region:           aws.String(env.STORAGE_REGION),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &ObjectStore{
		s3Client: s3.New(sess),
		bucket:   env.STORAGE_BUCKET,
		endpoint: env.STORAGE_ENDPOINT,
	}, nil
}

// Upload stores data under key and returns the object key
func (o *ObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := o.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         aws.String("private"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Download fetches an object's bytes
func (o *ObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := o.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// Delete removes an object
func (o *ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := o.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PresignedURL generates a time-limited download link
func (o *ObjectStore) PresignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := o.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// AttestationKey builds the object key for a student's attestation upload
func AttestationKey(studentID, filename string) string {
	ext := filepath.Ext(filename)
	base := filename[:len(filename)-len(ext)]
	return fmt.Sprintf("attestations/%s/%d_%s%s", studentID, time.Now().Unix(), base, ext)
}
