package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appconfig "github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/domain"
)

type S3Storage struct {
	id       string
	client   *s3.Client
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

// NewS3 builds a target against AWS S3, or any S3-compatible store when an
// endpoint is configured.
func NewS3(spec *appconfig.TargetSpec) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(spec.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(spec.AccessKey, spec.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if spec.Endpoint != "" {
			o.BaseEndpoint = aws.String(spec.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		id:       spec.ID,
		client:   client,
		uploader: s3manager.NewUploader(client),
		bucket:   spec.Bucket,
		prefix:   spec.Prefix,
	}, nil
}

func (s *S3Storage) ID() string {
	return s.id
}

func (s *S3Storage) Kind() string {
	return "s3"
}

func (s *S3Storage) Store(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	key := path.Join(s.prefix, remoteName)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func (s *S3Storage) List(ctx context.Context) ([]domain.RemoteFile, error) {
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &s.prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 objects: %w", err)
	}

	var files []domain.RemoteFile
	for _, obj := range resp.Contents {
		name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name == "" {
			continue
		}
		files = append(files, domain.RemoteFile{
			Name:    name,
			Size:    aws.ToInt64(obj.Size),
			ModTime: aws.ToTime(obj.LastModified),
		})
	}

	return files, nil
}

func (s *S3Storage) Delete(ctx context.Context, remoteName string) error {
	key := path.Join(s.prefix, remoteName)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}
