package stacio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by IO.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Client returns the configured client, loading the default AWS
// configuration the first time one is needed.
func (o *IO) s3Client(ctx context.Context) (S3API, error) {
	o.s3Mu.Lock()
	defer o.s3Mu.Unlock()
	if o.s3 != nil {
		return o.s3, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	o.s3 = s3.NewFromConfig(cfg)
	return o.s3, nil
}

func (o *IO) openS3(ctx context.Context, bucket, key, href string) (*s3.GetObjectOutput, error) {
	client, err := o.s3Client(ctx)
	if err != nil {
		return nil, transport(href, err)
	}
	o.logger.Debugf("GET %s", href)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, notFound(href, err)
		}
		return nil, transport(href, err)
	}
	return out, nil
}

func (o *IO) getS3(ctx context.Context, bucket, key, href string) ([]byte, error) {
	out, err := o.openS3(ctx, bucket, key, href)
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, transport(href, err)
	}
	return data, nil
}

func (o *IO) putS3(ctx context.Context, bucket, key, href string, data []byte) error {
	client, err := o.s3Client(ctx)
	if err != nil {
		return transport(href, err)
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return transport(href, err)
	}
	return nil
}
