package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/clusterfs/fsbench/internal/bench"
)

// gatewayBackend drives the storage system through its S3-compatible object
// gateway. Streaming reads hold one GetObject body open; positioned reads
// issue ranged GetObject calls; a write buffers the object and uploads it on
// close.
type gatewayBackend struct {
	client *s3.Client
	bucket string
}

func newGateway(ctx context.Context, cfg Config) (*gatewayBackend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gateway backend requires a bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return &gatewayBackend{client: client, bucket: cfg.Bucket}, nil
}

func (*gatewayBackend) Name() string { return string(KindGateway) }

func (*gatewayBackend) Supports(op bench.Operation) error {
	// The gateway has no length-tracked full-read calls.
	if op == bench.OpReadFully || op == bench.OpPosReadFully {
		return unsupported(KindGateway, op)
	}
	return nil
}

func (b *gatewayBackend) OpenRead(ctx context.Context, path string) (bench.ReadStream, error) {
	s := &gatewayReadStream{ctx: ctx, client: b.client, bucket: b.bucket, key: objectKey(path)}
	if err := s.openFrom(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (b *gatewayBackend) OpenWrite(ctx context.Context, path string, _ int64) (bench.WriteStream, error) {
	return &gatewayWriteStream{
		ctx:    ctx,
		client: b.client,
		bucket: b.bucket,
		key:    objectKey(path),
	}, nil
}

// PrepareBase deletes every object under the base prefix for a write run.
func (b *gatewayBackend) PrepareBase(ctx context.Context, path string) error {
	prefix := objectKey(path)
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(b.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return fmt.Errorf("delete %s: %w", aws.ToString(obj.Key), err)
			}
		}
	}
	return nil
}

func objectKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

type gatewayReadStream struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string

	body io.ReadCloser
	pos  int64
}

// openFrom starts a streaming GetObject at the given offset.
func (s *gatewayReadStream) openFrom(off int64) error {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}
	if off > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-", off))
	}
	out, err := s.client.GetObject(s.ctx, input)
	if err != nil {
		return err
	}
	if s.body != nil {
		_ = s.body.Close()
	}
	s.body = out.Body
	s.pos = off
	return nil
}

func (s *gatewayReadStream) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *gatewayReadStream) ReadFully(p []byte) error {
	n, err := io.ReadFull(s.body, p)
	s.pos += int64(n)
	return err
}

func (s *gatewayReadStream) ReadAt(p []byte, off int64) (int, error) {
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)),
	})
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()
	return io.ReadFull(out.Body, p)
}

func (s *gatewayReadStream) ReadFullyAt(p []byte, off int64) error {
	n, err := s.ReadAt(p, off)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (s *gatewayReadStream) Seek(off int64) error {
	return s.openFrom(off)
}

func (s *gatewayReadStream) Pos() int64 { return s.pos }

func (s *gatewayReadStream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

type gatewayWriteStream struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buf    bytes.Buffer
}

func (s *gatewayWriteStream) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *gatewayWriteStream) Written() int64 { return int64(s.buf.Len()) }

// Close uploads the buffered object.
func (s *gatewayWriteStream) Close() error {
	_, err := s.client.PutObject(s.ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   bytes.NewReader(s.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", s.key, err)
	}
	return nil
}
