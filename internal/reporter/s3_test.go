package reporter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/slidersolve/slider-agent/internal/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestUploadScreenshot(t *testing.T) {
	fake := &fakeS3{}
	u := &S3Uploader{client: fake, bucketName: "captcha-runs", region: "eu-west-1"}

	shot := &agent.Screenshot{Filepath: "/tmp/screenshot.png", Context: agent.ContextSolved, Data: []byte("png")}
	url, err := u.UploadScreenshot(context.Background(), shot, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "https://captcha-runs.s3.eu-west-1.amazonaws.com/solves/run-1/screenshot.png", url)
	assert.Equal(t, "captcha-runs", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "solves/run-1/screenshot.png", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, []byte("png"), fake.body)
}

func TestUploadScreenshotErrors(t *testing.T) {
	u := &S3Uploader{client: &fakeS3{err: errors.New("access denied")}, bucketName: "b", region: "us-east-1"}

	_, err := u.UploadScreenshot(context.Background(), &agent.Screenshot{Filepath: "a.png", Data: []byte("x")}, "r")
	assert.ErrorContains(t, err, "access denied")

	_, err = u.UploadScreenshot(context.Background(), &agent.Screenshot{}, "r")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("a.PNG"))
	assert.Equal(t, "image/jpeg", contentType("a.jpg"))
	assert.Equal(t, "application/octet-stream", contentType("a.bin"))
}
