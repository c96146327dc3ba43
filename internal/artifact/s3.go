package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awshttp "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store is the production Store backend. Each spec bucket name
// (raw-inputs, processed-pdfs) maps to an environment-specific S3
// bucket via a name prefix, so a single AWS account can host both
// without a naming collision.
type S3Store struct {
	client       *awshttp.Client
	bucketPrefix string
	publicURLFn  func(bucket, path string) string
}

// NewS3Store builds an S3Store from the ambient AWS credential chain.
// endpointURL overrides the default endpoint for S3-compatible
// deployments (MinIO, LocalStack); leave empty for real AWS.
func NewS3Store(ctx context.Context, region, endpointURL, bucketPrefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awshttp.NewFromConfig(cfg, func(o *awshttp.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		}
	})

	store := &S3Store{client: client, bucketPrefix: bucketPrefix}
	store.publicURLFn = store.defaultPublicURL
	return store, nil
}

func (s *S3Store) realBucket(bucket string) string {
	if s.bucketPrefix == "" {
		return bucket
	}
	return s.bucketPrefix + "-" + bucket
}

func (s *S3Store) defaultPublicURL(bucket, path string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.realBucket(bucket), path)
}

func (s *S3Store) Upload(ctx context.Context, bucket, path string, data io.Reader, size int64, contentType string) (string, error) {
	input := &awshttp.PutObjectInput{
		Bucket: aws.String(s.realBucket(bucket)),
		Key:    aws.String(path),
		Body:   data,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put %s/%s: %w", bucket, path, err)
	}
	return s.publicURLFn(bucket, path), nil
}

func (s *S3Store) Download(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awshttp.GetObjectInput{
		Bucket: aws.String(s.realBucket(bucket)),
		Key:    aws.String(path),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, path, err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, path string) error {
	_, err := s.client.DeleteObject(ctx, &awshttp.DeleteObjectInput{
		Bucket: aws.String(s.realBucket(bucket)),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *S3Store) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	realBucket := s.realBucket(bucket)
	var continuationToken *string
	for {
		list, err := s.client.ListObjectsV2(ctx, &awshttp.ListObjectsV2Input{
			Bucket:            aws.String(realBucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return fmt.Errorf("s3 list %s/%s: %w", bucket, prefix, err)
		}
		if len(list.Contents) == 0 {
			return nil
		}

		ids := make([]types.ObjectIdentifier, 0, len(list.Contents))
		for _, obj := range list.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		if _, err := s.client.DeleteObjects(ctx, &awshttp.DeleteObjectsInput{
			Bucket: aws.String(realBucket),
			Delete: &types.Delete{Objects: ids},
		}); err != nil {
			return fmt.Errorf("s3 delete objects %s/%s: %w", bucket, prefix, err)
		}

		if list.IsTruncated == nil || !*list.IsTruncated {
			return nil
		}
		continuationToken = list.NextContinuationToken
	}
}
