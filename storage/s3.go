package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedPut is a signed PUT request for one object.
type PresignedPut struct {
	URL       string
	Method    string
	Header    http.Header
	Key       string
	ExpiresIn time.Duration
}

// Presigner is the object store as seen by the rest of the site.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (*PresignedPut, error)
	DeleteObject(ctx context.Context, key string) error
	Bucket() string
	Region() string
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Expiry          time.Duration
}

// S3Gateway signs uploads for a single bucket.
type S3Gateway struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	region    string
	expiry    time.Duration
}

func NewS3Gateway(ctx context.Context, cfg S3Config) (*S3Gateway, error) {
	if cfg.Bucket == "" || cfg.Region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("s3 gateway needs region, bucket and credentials")
	}
	if cfg.Expiry <= 0 {
		return nil, errors.New("s3 gateway needs a positive presign expiry")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Gateway{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		expiry:    cfg.Expiry,
	}, nil
}

func (g *S3Gateway) PresignPut(ctx context.Context, key, contentType string) (*PresignedPut, error) {
	req, err := g.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(g.expiry))
	if err != nil {
		return nil, fmt.Errorf("error presigning upload for %s: %w", key, err)
	}

	return &PresignedPut{
		URL:       req.URL,
		Method:    req.Method,
		Header:    req.SignedHeader,
		Key:       key,
		ExpiresIn: g.expiry,
	}, nil
}

func (g *S3Gateway) DeleteObject(ctx context.Context, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error deleting object %s: %w", key, err)
	}
	return nil
}

func (g *S3Gateway) Bucket() string { return g.bucket }

func (g *S3Gateway) Region() string { return g.region }
