package security

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/crypto/blake2b"
)

type S3Provider string

const (
	S3ProviderAWS    S3Provider = "aws"
	S3ProviderWasabi S3Provider = "wasabi"
)

type S3ClientConfig struct {
	Provider        S3Provider
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string

	// Wasabi only, e.g. "s3.us-east-1.wasabisys.com"
	WasabiEndpoint string
}

var WasabiEndpoints = map[string]string{
	"us-east-1":      "s3.us-east-1.wasabisys.com",
	"us-east-2":      "s3.us-east-2.wasabisys.com",
	"us-west-1":      "s3.us-west-1.wasabisys.com",
	"eu-central-1":   "s3.eu-central-1.wasabisys.com",
	"eu-west-1":      "s3.eu-west-1.wasabisys.com",
	"ap-northeast-1": "s3.ap-northeast-1.wasabisys.com",
	"ap-southeast-1": "s3.ap-southeast-1.wasabisys.com",
}

// Enabled reports whether enough settings are present to archive documents.
func (c S3ClientConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// ResolveEndpoint fills WasabiEndpoint from the region when unset.
func (c S3ClientConfig) ResolveEndpoint() S3ClientConfig {
	if c.Provider != S3ProviderWasabi || c.WasabiEndpoint != "" {
		return c
	}
	if endpoint, ok := WasabiEndpoints[c.Region]; ok {
		c.WasabiEndpoint = endpoint
	} else {
		c.WasabiEndpoint = "s3.us-east-1.wasabisys.com"
	}
	return c
}

// NewS3Client builds a client for AWS S3 or Wasabi.
func NewS3Client(ctx context.Context, cfg S3ClientConfig) (*s3.Client, error) {
	cfg = cfg.ResolveEndpoint()
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Provider == S3ProviderWasabi {
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String("https://" + cfg.WasabiEndpoint)
			o.UsePathStyle = true
		}), nil
	}
	return s3.NewFromConfig(awsCfg), nil
}

// ObjectPutter is the subset of *s3.Client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DocumentArchive stores analysed health documents under
// health-documents/<user>/<yyyy>/<mm>/<fingerprint>-<name>.
type DocumentArchive struct {
	client ObjectPutter
	bucket string
	now    func() time.Time
}

func NewDocumentArchive(client ObjectPutter, bucket string) *DocumentArchive {
	return &DocumentArchive{client: client, bucket: bucket, now: time.Now}
}

// Store uploads data with server-side encryption and returns the object key.
func (a *DocumentArchive) Store(ctx context.Context, userID, fileName string, data []byte) (string, error) {
	key := DocumentKey(userID, fileName, data, a.now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentLength:        aws.Int64(int64(len(data))),
		ContentType:          aws.String("application/pdf"),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
		Metadata: map[string]string{
			"owner": userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive document: %w", err)
	}
	return key, nil
}

// DocumentKey is deterministic for the same user, content and month.
func DocumentKey(userID, fileName string, data []byte, at time.Time) string {
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("health-documents/%s/%04d/%02d/%s-%s",
		userID, at.Year(), int(at.Month()), hex.EncodeToString(sum[:8]), SanitizeFileName(fileName))
}
