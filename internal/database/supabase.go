package database

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hypernova-labs/client-service/internal/config"
	"github.com/sirupsen/logrus"
)

// SupabaseClient representa el cliente del storage de Supabase usando S3
type SupabaseClient struct {
	s3Client *s3.Client
	config   *config.SupabaseConfig
	logger   *logrus.Logger
	bucket   string
}

// NewSupabaseClient crea una nueva instancia del cliente de Supabase
func NewSupabaseClient(cfg *config.SupabaseConfig, logger *logrus.Logger) (*SupabaseClient, error) {
	// Supabase expone un endpoint S3 propio
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               cfg.StorageEndpoint,
			SigningRegion:     cfg.StorageRegion,
			HostnameImmutable: true,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
			},
		}),
		awsconfig.WithRegion(cfg.StorageRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true // Importante para Supabase
	})

	return &SupabaseClient{
		s3Client: s3Client,
		config:   cfg,
		logger:   logger,
		bucket:   cfg.Bucket,
	}, nil
}

// HealthCheck verifica que el bucket configurado es accesible
func (s *SupabaseClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("error checking Supabase storage connection: %w", err)
	}

	return nil
}

// UploadFile sube un archivo al bucket configurado y retorna su URL
func (s *SupabaseClient) UploadFile(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading file to Supabase storage: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.config.StorageEndpoint, s.bucket, key)

	s.logger.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"file":   key,
		"url":    url,
		"size":   len(data),
	}).Info("File uploaded to Supabase storage successfully")

	return url, nil
}
