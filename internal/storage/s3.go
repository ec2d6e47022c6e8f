package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/config"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// S3 stores artifacts in an object bucket, one key prefix per namespace.
// Works against AWS or a MinIO endpoint (path-style addressing).
type S3 struct {
	client *s3.Client
	cfg    *config.S3Config
	log    *zap.Logger
}

func NewS3(cfg *config.S3Config, log *zap.Logger) (*S3, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
				Source:            aws.EndpointSourceCustom,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, domain.E(domain.KindStorageFailure, "storage.s3.config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	store := &S3{client: client, cfg: cfg, log: log}

	if err := store.ensureBucketExists(context.Background()); err != nil {
		log.Warn("Failed to ensure bucket exists", zap.Error(err))
	}

	return store, nil
}

func (s *S3) ensureBucketExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.BucketName),
	})
	if err == nil {
		return nil
	}

	s.log.Info("Creating bucket", zap.String("bucket", s.cfg.BucketName))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.cfg.BucketName),
		CreateBucketConfiguration: &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		},
	})
	return err
}

func (s *S3) key(ns Namespace, name string) string {
	return string(ns) + "/" + name
}

func (s *S3) Store(ctx context.Context, ns Namespace, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.BucketName),
		Key:           aws.String(s.key(ns, name)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ContentTypeForName(name)),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return domain.E(domain.KindStorageFailure, "storage.s3.put", err)
	}

	s.log.Debug("Artifact stored",
		zap.String("namespace", string(ns)),
		zap.String("name", name),
		zap.Int("size", len(data)))
	return nil
}

func (s *S3) Read(ctx context.Context, ns Namespace, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(s.key(ns, name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.Ef(domain.KindNotFound, "storage.s3.get",
				"%s/%s does not exist", ns, name)
		}
		return nil, domain.E(domain.KindStorageFailure, "storage.s3.get", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, domain.E(domain.KindStorageFailure, "storage.s3.read", err)
	}
	return data, nil
}

func (s *S3) Delete(ctx context.Context, ns Namespace, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(s.key(ns, name)),
	})
	if err != nil {
		return domain.E(domain.KindStorageFailure, "storage.s3.delete", err)
	}
	return nil
}

func (s *S3) Exists(ctx context.Context, ns Namespace, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(s.key(ns, name)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, domain.E(domain.KindStorageFailure, "storage.s3.head", err)
	}
	return true, nil
}
