package retrieval

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
)

// S3Config configures an S3-backed retrieval.
type S3Config struct {
	// Region is the AWS region.
	Region string `mapstructure:"region" validate:"required"`
	// Bucket is the bucket holding the items.
	Bucket string `mapstructure:"bucket" validate:"required"`
	// Prefix scopes the retrieval to keys under this prefix.
	Prefix string `mapstructure:"prefix"`
	// Endpoint overrides the S3 endpoint, for S3-compatible services.
	Endpoint string `mapstructure:"endpoint"`
	// AccessKey and SecretKey are static credentials. Empty means the
	// default AWS credential chain.
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// ForcePathStyle uses path-style addressing, required by most
	// S3-compatible services.
	ForcePathStyle bool `mapstructure:"force_path_style"`
}

// s3API is the slice of the S3 client the retrieval uses.
type s3API interface {
	GetObject(ctx context.Context, in *awss3.GetObjectInput, opts ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, opts ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, opts ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// S3 serves entities from an S3 bucket. Each object under the prefix is one
// item, identified by its key relative to the prefix. The manifest object
// persists the entity list.
type S3 struct {
	client s3API
	bucket string
	prefix string
	log    *logger.Logger
}

// NewS3 builds an S3 retrieval from config.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.RetrievalFailed("aws_config", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewS3FromClient(awss3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix), nil
}

// NewS3FromClient wraps an existing client. Useful for tests and for callers
// that manage their own AWS configuration.
func NewS3FromClient(client s3API, bucket, prefix string) *S3 {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    logger.WithComponent("retrieval.s3"),
	}
}

func (s *S3) manifestKey() string { return s.prefix + manifestName }

// Fetch downloads one object's payload.
func (s *S3) Fetch(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + id),
	})
	if err != nil {
		return nil, errors.RetrievalFailed("fetch", err).WithDetail("entity_id", id)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.RetrievalFailed("fetch", err).WithDetail("entity_id", id)
	}
	return data, nil
}

// List enumerates object keys under the prefix, excluding the manifest.
func (s *S3) List(ctx context.Context) ([]string, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}

	var ids []string
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, errors.RetrievalFailed("list", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			id := strings.TrimPrefix(key, s.prefix)
			if id == "" || id == manifestName || strings.HasSuffix(key, "/") {
				continue
			}
			ids = append(ids, id)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return ids, nil
}

// IsCached reports whether a manifest object exists.
func (s *S3) IsCached() bool {
	_, err := s.client.HeadObject(context.Background(), &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.manifestKey()),
	})
	return err == nil
}

// LoadFromCache rebuilds entities from the manifest object.
func (s *S3) LoadFromCache(ctx context.Context, f entity.Factory) ([]entity.Entity, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.manifestKey()),
	})
	if err != nil {
		return nil, errors.CacheFailed("load", err)
	}
	defer out.Body.Close()

	var entities []entity.Entity
	scanner := bufio.NewScanner(out.Body)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		e, err := f(ctx, id, s)
		if err != nil {
			return nil, errors.CacheFailed("load", err)
		}
		entities = append(entities, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.CacheFailed("load", err)
	}
	return entities, nil
}

// Cache persists the entity list as a newline-delimited manifest object.
func (s *S3) Cache(ctx context.Context, entities []entity.Entity) error {
	var buf bytes.Buffer
	for _, e := range entities {
		buf.WriteString(e.UniqueID())
		buf.WriteByte('\n')
	}
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.manifestKey()),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return errors.CacheFailed("store", err)
	}
	s.log.Debug("manifest cached", logger.Fields(logger.FieldCount, len(entities)))
	return nil
}

var _ Retrieval = (*S3)(nil)
