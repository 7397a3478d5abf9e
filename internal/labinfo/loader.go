// Package labinfo fetches the lab descriptor document from the lab registry
// bucket. This is a single data-plane read per run: failures surface
// immediately instead of being retried.
package labinfo

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/orijen-udf/lifecycle-agent/internal/models"
	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
)

// objectGetter is the slice of the S3 API the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Loader struct {
	api    objectGetter
	bucket string
	log    *zap.SugaredLogger
}

// NewLoader builds a loader bound to the registry bucket, authenticated with
// the credentials resolved from the metadata service.
func NewLoader(creds models.CredentialRecord, bucket, region string) *Loader {
	cfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
	}
	return newLoader(s3.NewFromConfig(cfg), bucket)
}

// NewLoaderWithAPI is the test seam.
func NewLoaderWithAPI(api objectGetter, bucket string) *Loader {
	return newLoader(api, bucket)
}

func newLoader(api objectGetter, bucket string) *Loader {
	return &Loader{
		api:    api,
		bucket: bucket,
		log:    zap.S().Named("labinfo"),
	}
}

// Load fetches and parses "<labID>.yaml" from the registry bucket.
func (l *Loader) Load(ctx context.Context, labID string) (*models.LabDescriptor, error) {
	key := labID + ".yaml"
	out, err := l.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.log.Errorw("unable to fetch lab descriptor", "bucket", l.bucket, "key", key, "error", err)
		return nil, agenterrors.NewTransportError("labinfo", fmt.Errorf("get %s/%s: %w", l.bucket, key, err))
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, agenterrors.NewTransportError("labinfo", fmt.Errorf("read %s/%s: %w", l.bucket, key, err))
	}

	var descriptor models.LabDescriptor
	if err := yaml.Unmarshal(raw, &descriptor); err != nil {
		return nil, agenterrors.NewDecodeError("lab descriptor", err)
	}
	l.log.Infow("lab descriptor loaded", "labID", labID)
	return &descriptor, nil
}
