package security

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestDocumentArchiveStore(t *testing.T) {
	putter := &fakePutter{}
	archive := NewDocumentArchive(putter, "heather-docs")
	archive.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	key, err := archive.Store(context.Background(), "u-1", "lab results.pdf", samplePDF())
	require.NoError(t, err)

	assert.Regexp(t, `^health-documents/u-1/2024/03/[0-9a-f]{16}-lab_results\.pdf$`, key)
	assert.Equal(t, "heather-docs", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))
	assert.Equal(t, "application/pdf", aws.ToString(putter.input.ContentType))
	assert.Equal(t, samplePDF(), putter.body)
}

func TestDocumentArchiveStoreError(t *testing.T) {
	archive := NewDocumentArchive(&fakePutter{err: errors.New("AccessDenied")}, "b")
	_, err := archive.Store(context.Background(), "u-1", "a.pdf", samplePDF())
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestDocumentKeyIsDeterministic(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := DocumentKey("u", "x.pdf", []byte("%PDF-1"), at)
	b := DocumentKey("u", "x.pdf", []byte("%PDF-1"), at)
	c := DocumentKey("u", "x.pdf", []byte("%PDF-2"), at)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestS3ClientConfigResolveEndpoint(t *testing.T) {
	cfg := S3ClientConfig{Provider: S3ProviderWasabi, Region: "eu-central-1"}.ResolveEndpoint()
	assert.Equal(t, "s3.eu-central-1.wasabisys.com", cfg.WasabiEndpoint)

	plain := S3ClientConfig{Provider: S3ProviderAWS, Region: "us-east-1"}.ResolveEndpoint()
	assert.Empty(t, plain.WasabiEndpoint)

	assert.False(t, S3ClientConfig{Bucket: "b"}.Enabled())
}
