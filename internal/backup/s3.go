package backup

import (
	"context"
	"fmt"
	"io"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Vault stores snapshots as objects under a key prefix in one bucket.
type S3Vault struct {
	name     string
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Vault creates a vault backed by an S3 bucket. Credentials come from
// the ambient AWS environment (env vars, shared config, instance role).
func NewS3Vault(ctx context.Context, name, bucket, prefix, region string) (*S3Vault, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Vault{
		name:     name,
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.TrimSuffix(prefix, "/"),
	}, nil
}

func (v *S3Vault) Name() string { return v.name }

func (v *S3Vault) key(name string) string {
	if v.prefix == "" {
		return name
	}
	return v.prefix + "/" + name
}

func (v *S3Vault) PutSnapshot(ctx context.Context, name string, r io.Reader) error {
	key := v.key(name)
	if _, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &v.bucket,
		Key:    &key,
		Body:   r,
	}); err != nil {
		return fmt.Errorf("uploading snapshot %s: %w", name, err)
	}
	return nil
}

func (v *S3Vault) GetSnapshot(ctx context.Context, name string, w io.Writer) error {
	key := v.key(name)
	out, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &v.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("fetching snapshot %s: %w", name, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading snapshot %s: %w", name, err)
	}
	return nil
}

func (v *S3Vault) ListSnapshots(ctx context.Context) ([]string, error) {
	prefix := ""
	if v.prefix != "" {
		prefix = v.prefix + "/"
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: &v.bucket,
		Prefix: &prefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			names = append(names, strings.TrimPrefix(*obj.Key, prefix))
		}
	}
	return names, nil
}

var _ Vault = (*S3Vault)(nil)
