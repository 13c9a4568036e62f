package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cfbak/internal/cfbak"
)

// S3Store is an alternate SnapshotStore keeping snapshots as objects in an
// S3 bucket. Unlike the hosting service it has no per-path version check —
// PutFile is last-write-wins — which is acceptable because snapshot paths
// are unique per backup run.
type S3Store struct {
	bucket   string
	prefix   string
	region   string
	client   *s3.Client
	uploader *manager.Uploader
	logger   cfbak.Logger
}

// NewS3Store creates an S3-backed store. When accessKey is empty the default
// AWS credential chain is used.
func NewS3Store(ctx context.Context, bucket, prefix, region, accessKey, secretKey string, logger cfbak.Logger) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		region:   region,
		client:   client,
		uploader: manager.NewUploader(client),
		logger:   logger,
	}, nil
}

// key maps a store path to an object key under the configured prefix.
func (s *S3Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

// GetRepo probes the bucket.
func (s *S3Store) GetRepo(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return &cfbak.NotFoundError{Resource: "repository", Key: s.bucket}
		}
		return &cfbak.RemoteError{Service: "s3", Op: "HeadBucket " + s.bucket, Err: err}
	}
	return nil
}

// CreateRepo creates the bucket. Buckets carry no description or visibility;
// both arguments are accepted for interface parity and ignored.
func (s *S3Store) CreateRepo(ctx context.Context, _ string, _ bool) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return &cfbak.RemoteError{Service: "s3", Op: "CreateBucket " + s.bucket, Err: err}
	}
	s.logger.Info("bucket created", "bucket", s.bucket)
	return nil
}

// GetFile reads an object. The ETag serves as the version token; PutFile
// does not verify it.
func (s *S3Store) GetFile(ctx context.Context, path string) (*cfbak.FileInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, &cfbak.NotFoundError{Resource: "file", Key: path}
		}
		return nil, &cfbak.RemoteError{Service: "s3", Op: "GetObject " + path, Err: err}
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &cfbak.RemoteError{Service: "s3", Op: "GetObject " + path,
			Err: fmt.Errorf("reading object body: %w", err)}
	}
	return &cfbak.FileInfo{Content: content, SHA: aws.ToString(out.ETag)}, nil
}

// PutFile uploads an object, overwriting any previous version.
func (s *S3Store) PutFile(ctx context.Context, path string, content []byte, _ string, _ string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return &cfbak.RemoteError{Service: "s3", Op: "PutObject " + path, Err: err}
	}
	return nil
}

// ListDir lists the immediate entries under path using a delimited object
// listing: common prefixes become directories, objects become files.
func (s *S3Store) ListDir(ctx context.Context, path string) ([]cfbak.DirEntry, error) {
	prefix := s.key(strings.TrimSuffix(path, "/")) + "/"

	var entries []cfbak.DirEntry
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, &cfbak.RemoteError{Service: "s3", Op: "ListObjectsV2 " + path, Err: err}
		}

		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			entries = append(entries, cfbak.DirEntry{
				Name:    name,
				Type:    "dir",
				Path:    strings.TrimSuffix(path, "/") + "/" + name,
				HTMLURL: fmt.Sprintf("s3://%s/%s%s", s.bucket, prefix, name),
			})
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue
			}
			entries = append(entries, cfbak.DirEntry{
				Name:    name,
				Type:    "file",
				Path:    strings.TrimSuffix(path, "/") + "/" + name,
				HTMLURL: fmt.Sprintf("s3://%s/%s", s.bucket, aws.ToString(obj.Key)),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	if len(entries) == 0 {
		return nil, &cfbak.NotFoundError{Resource: "path", Key: path}
	}
	return entries, nil
}

var _ cfbak.SnapshotStore = (*S3Store)(nil)
