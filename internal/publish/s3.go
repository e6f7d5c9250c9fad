package publish

import (
	"bytes"
	"context"
	"covidcurve/internal/components/chrono"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mazen160/go-random"
)

type S3Config struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	// EndpointUrl is set for S3 compatible hosts, it switches to path style addressing.
	EndpointUrl     string `json:"endpoint_url"`
	AccessKeyId     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	// Prefix is prepended to every object key.
	Prefix string `json:"prefix"`
	// PublicBaseUrl is where the bucket's objects can be viewed.
	PublicBaseUrl string `json:"public_base_url"`
}

// S3Publisher stores images as objects of a bucket, each under a key
// unique to the upload.
type S3Publisher struct {
	client *s3.Client
	config S3Config
	clock  chrono.API
	tel    telemetry.API
}

func NewS3Publisher(ctx context.Context, cfg S3Config, clock chrono.API, tel telemetry.API) (S3Publisher, error) {
	if cfg.Bucket == "" || cfg.PublicBaseUrl == "" {
		return S3Publisher{}, fmt.Errorf("publish: s3 needs a bucket and public_base_url")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyId != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyId, cfg.SecretAccessKey, ""),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return S3Publisher{}, fmt.Errorf("publish: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointUrl != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointUrl)
			o.UsePathStyle = true
		}
	})

	return S3Publisher{
		client: client,
		config: cfg,
		clock:  clock,
		tel:    tel,
	}, nil
}

// objectKey is <prefix>/<date>/<name>-<random>.png
func (p S3Publisher) objectKey(name string) (string, error) {
	suffix, err := random.String(8)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(name, path.Ext(name))
	return path.Join(
		p.config.Prefix,
		p.clock.Today().Format(covid.DateLayout),
		fmt.Sprintf("%s-%s.png", base, suffix),
	), nil
}

func (p S3Publisher) Publish(ctx context.Context, name string, png []byte) (string, error) {
	key, err := p.objectKey(name)
	if err != nil {
		return "", err
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(png),
		ContentLength: aws.Int64(int64(len(png))),
		ContentType:   aws.String("image/png"),
	})
	if err != nil {
		p.tel.ReportBroken(report_publish_upload, err, key)

		var responseErr *awshttp.ResponseError
		if errors.As(err, &responseErr) {
			return "", fmt.Errorf("%w: put %s: %w", covid.ErrUpload, key, err)
		}
		return "", fmt.Errorf("%w: put %s: %w", covid.ErrNetwork, key, err)
	}

	return strings.TrimSuffix(p.config.PublicBaseUrl, "/") + "/" + key, nil
}
