package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/stlindex/blobstore"
)

// Client is the subset of the S3 API used by Store. *s3.Client satisfies it.
type Client interface {
	manager.DownloadAPIClient
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// TransferConfig tunes the transfer manager.
type TransferConfig struct {
	// PartSize is the part size for ranged downloads and multipart uploads.
	// Default: 8MB
	PartSize int64

	// Concurrency is the number of parts transferred in parallel.
	// Default: 5
	Concurrency int
}

// DefaultTransferConfig returns the default transfer settings.
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		PartSize:    8 * 1024 * 1024,
		Concurrency: 5,
	}
}

// Store implements blobstore.Store for S3.
type Store struct {
	client     Client
	bucket     string
	prefix     string
	downloader *manager.Downloader
	uploader   *manager.Uploader
}

// Option configures a Store.
type Option func(*TransferConfig)

// WithTransferConfig overrides the transfer settings.
func WithTransferConfig(cfg TransferConfig) Option {
	return func(c *TransferConfig) { *c = cfg }
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "meshes/").
func NewStore(client Client, bucket, rootPrefix string, optFns ...Option) *Store {
	cfg := DefaultTransferConfig()
	for _, fn := range optFns {
		fn(&cfg)
	}

	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = cfg.PartSize
			d.Concurrency = cfg.Concurrency
		}),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = cfg.PartSize
			u.Concurrency = cfg.Concurrency
		}),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open probes the object with HeadObject and returns a lazily read blob.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &blob{
		store: s,
		key:   key,
		size:  aws.ToInt64(head.ContentLength),
	}, nil
}

// Put uploads data, switching to multipart uploads above PartSize.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(s.key(name)),
		Body:              bytes.NewReader(data),
		ChecksumAlgorithm: types.ChecksumAlgorithmCrc32c,
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", name, err)
	}
	return nil
}

// blob implements blobstore.Blob and blobstore.Fetcher.
type blob struct {
	store *Store
	key   string
	size  int64
}

func (b *blob) Close() error {
	return nil
}

func (b *blob) Size() int64 {
	return b.size
}

// ReadAt reads len(p) bytes starting at offset off with a ranged GET.
func (b *blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	end := min(off+int64(len(p)), b.size) - 1

	resp, err := b.store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.store.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	want := int(end - off + 1)
	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return n, err
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadAll downloads the whole object with the transfer manager.
func (b *blob) ReadAll(ctx context.Context) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(make([]byte, 0, b.size))

	n, err := b.store.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(b.store.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: download %s: %w", b.key, err)
	}
	if n != b.size {
		return nil, fmt.Errorf("s3: download %s: got %d of %d bytes: %w", b.key, n, b.size, io.ErrUnexpectedEOF)
	}
	return buf.Bytes(), nil
}
