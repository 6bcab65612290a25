package reporter

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/slidersolve/slider-agent/internal/agent"
)

// putObjectAPI is the part of the S3 client the uploader uses
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader mirrors solve screenshots to S3
type S3Uploader struct {
	client     putObjectAPI
	bucketName string
	region     string
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(ctx context.Context, bucketName, region string) (*S3Uploader, error) {
	if bucketName == "" {
		bucketName = os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			return nil, fmt.Errorf("no S3 bucket configured")
		}
	}

	if region == "" {
		region = os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Uploader{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
		region:     region,
	}, nil
}

// Upload stores data under key and returns the object URL
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", agent.NewStorageError(fmt.Sprintf("failed to upload %s to S3", key), err)
	}

	return u.ObjectURL(key), nil
}

// UploadScreenshot uploads a saved screenshot under solves/<runID>/
func (u *S3Uploader) UploadScreenshot(ctx context.Context, screenshot *agent.Screenshot, runID string) (string, error) {
	if screenshot == nil || len(screenshot.Data) == 0 {
		return "", agent.NewStorageError("nothing to upload", fmt.Errorf("empty screenshot"))
	}

	name := filepath.Base(screenshot.Filepath)
	if screenshot.Filepath == "" {
		name = fmt.Sprintf("%s_%s.png", screenshot.Context, screenshot.Timestamp.Format("20060102_150405"))
	}
	key := fmt.Sprintf("solves/%s/%s", runID, name)

	url, err := u.Upload(ctx, key, screenshot.Data, contentType(name))
	if err != nil {
		return "", err
	}
	log.Printf("[S3] Uploaded %s", url)
	return url, nil
}

// ObjectURL returns the virtual-hosted URL for key
func (u *S3Uploader) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucketName, u.region, key)
}

// contentType determines content type from file extension
func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
