package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/GoArmGo/ProtogenMap/internal/config"
)

// publicReadPolicy разрешает анонимное чтение объектов: аватары открываются прямо из браузера.
const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

// Client клиент MinIO (S3-совместимого хранилища) для аватаров, реализует ports.FileStorage.
type Client struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	publicURL  string
	logger     *slog.Logger
}

// NewMinioClient создает клиент и при необходимости создаёт бакет.
func NewMinioClient(cfg *appconfig.Config, logger *slog.Logger) (*Client, error) {
	m := cfg.Minio
	if m.AccessKeyID == "" || m.SecretAccessKey == "" || m.BucketName == "" || m.Endpoint == "" {
		return nil, fmt.Errorf("MinIO credentials (MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY, MINIO_BUCKET_NAME, MINIO_ENDPOINT) must be set")
	}

	scheme := "http"
	if m.UseSSL {
		scheme = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", scheme, m.Endpoint)

	publicURL := strings.TrimRight(m.PublicURL, "/")
	if publicURL == "" {
		publicURL = endpointURL
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(m.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(m.AccessKeyID, m.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for MinIO: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
		o.UsePathStyle = true
	})

	c := &Client{
		s3Client:   s3Client,
		uploader:   manager.NewUploader(s3Client),
		bucketName: m.BucketName,
		publicURL:  publicURL,
		logger:     logger,
	}

	if err := c.ensureBucket(m.Region); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureBucket(region string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)})
	if err == nil {
		c.logger.Info("MinIO bucket already exists", "bucket", c.bucketName)
		return nil
	}

	c.logger.Warn("MinIO bucket not found, creating", "bucket", c.bucketName)

	input := &s3.CreateBucketInput{Bucket: aws.String(c.bucketName)}
	// us-east-1 задаётся без LocationConstraint
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket '%s': %w", c.bucketName, err)
	}

	waiter := s3.NewBucketExistsWaiter(c.s3Client)
	if err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)}, 20*time.Second); err != nil {
		return fmt.Errorf("failed waiting for bucket '%s' to be created: %w", c.bucketName, err)
	}

	_, err = c.s3Client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(c.bucketName),
		Policy: aws.String(fmt.Sprintf(publicReadPolicy, c.bucketName)),
	})
	if err != nil {
		return fmt.Errorf("failed to set public read policy on '%s': %w", c.bucketName, err)
	}

	c.logger.Info("MinIO bucket created", "bucket", c.bucketName)
	return nil
}

// UploadFile загружает объект и возвращает его публичный URL.
func (c *Client) UploadFile(ctx context.Context, objectKey string, fileContent io.Reader, contentType string) (string, error) {
	start := time.Now()

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(objectKey),
		Body:        fileContent,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s to bucket %s: %w", objectKey, c.bucketName, err)
	}

	c.logger.Info("file uploaded to MinIO",
		"bucket", c.bucketName,
		"key", objectKey,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return c.ObjectURL(objectKey), nil
}

// ObjectURL публичный адрес объекта.
func (c *Client) ObjectURL(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicURL, c.bucketName, objectKey)
}

// DeleteFile удаляет объект; используется при замене аватара.
func (c *Client) DeleteFile(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s from bucket %s: %w", objectKey, c.bucketName, err)
	}
	return nil
}

// KeyFromURL возвращает ключ объекта, если url указывает в наш бакет.
func (c *Client) KeyFromURL(url string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", c.publicURL, c.bucketName)
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
