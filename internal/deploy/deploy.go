package deploy

import (
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/scaffold/internal/errors"
	"github.com/vango-dev/scaffold/pkg/assets"
)

const (
	// CacheImmutable is sent with fingerprinted files.
	CacheImmutable = "public, max-age=31536000, immutable"

	// CacheRevalidate is sent with everything else.
	CacheRevalidate = "no-cache"

	// DefaultConcurrency is the number of parallel uploads.
	DefaultConcurrency = 8
)

// Client is the part of the S3 API used by Upload. *s3.Client implements it.
type Client interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Options configures an upload.
type Options struct {
	// Bucket is the destination bucket. Required.
	Bucket string

	// Prefix is prepended to every key, e.g. "site/".
	Prefix string

	// Dir is the build output directory.
	Dir string

	// DryRun plans the upload without calling the store.
	DryRun bool

	// Prune deletes objects under Prefix that are not in Dir.
	Prune bool

	// Concurrency bounds parallel uploads. Default: DefaultConcurrency.
	Concurrency int

	// Logger receives one line per object. Defaults to slog.Default().
	Logger *slog.Logger
}

// Object is a file scheduled for upload.
type Object struct {
	// Key is the object key, prefix included.
	Key string

	// Path is the file on disk.
	Path string

	ContentType  string
	CacheControl string
	Size         int64
}

// Result reports what Upload did.
type Result struct {
	Uploaded []Object
	Deleted  []string
}

// Plan lists the objects for dir, fingerprinted files first and each group
// sorted by key.
func Plan(dir, prefix string) ([]Object, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.New("E403").WithDetail("No output directory at " + dir)
	}

	var objects []Object
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		objects = append(objects, Object{
			Key:          Key(prefix, rel),
			Path:         p,
			ContentType:  ContentType(rel),
			CacheControl: CacheControl(rel),
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.New("E403").Wrap(err)
	}
	if len(objects) == 0 {
		return nil, errors.New("E403")
	}

	sort.Slice(objects, func(i, j int) bool {
		fi, fj := objects[i].CacheControl == CacheImmutable, objects[j].CacheControl == CacheImmutable
		if fi != fj {
			return fi
		}
		return objects[i].Key < objects[j].Key
	})
	return objects, nil
}

// Upload publishes opts.Dir to opts.Bucket.
func Upload(ctx context.Context, client Client, opts Options) (*Result, error) {
	if opts.Bucket == "" {
		return nil, errors.New("E401")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	objects, err := Plan(opts.Dir, opts.Prefix)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if opts.DryRun {
		for _, obj := range objects {
			logger.Info("would upload", "key", obj.Key, "size", obj.Size, "cache", obj.CacheControl)
		}
		result.Uploaded = objects
		return result, nil
	}

	// Bundles first, then the documents that reference them.
	split := sort.Search(len(objects), func(i int) bool {
		return objects[i].CacheControl != CacheImmutable
	})
	for _, group := range [][]Object{objects[:split], objects[split:]} {
		if err := putAll(ctx, client, opts, logger, group); err != nil {
			return nil, err
		}
	}
	result.Uploaded = objects

	if opts.Prune {
		deleted, err := prune(ctx, client, opts, logger, objects)
		if err != nil {
			return nil, err
		}
		result.Deleted = deleted
	}
	return result, nil
}

// putAll uploads objects with bounded concurrency and returns the first
// error.
func putAll(ctx context.Context, client Client, opts Options, logger *slog.Logger, objects []Object) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	sem := make(chan struct{}, opts.Concurrency)

	for _, obj := range objects {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(obj Object) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := put(ctx, client, opts.Bucket, obj); err != nil {
				once.Do(func() {
					firstErr = errors.New("E402").WithDetail(obj.Key).Wrap(err)
					cancel()
				})
				return
			}
			logger.Info("uploaded", "key", obj.Key, "size", obj.Size)
		}(obj)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func put(ctx context.Context, client Client, bucket string, obj Object) error {
	f, err := os.Open(obj.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(obj.Key),
		Body:          f,
		ContentLength: aws.Int64(obj.Size),
		ContentType:   aws.String(obj.ContentType),
		CacheControl:  aws.String(obj.CacheControl),
	})
	return err
}

// prune deletes objects under the prefix that were not just uploaded.
func prune(ctx context.Context, client Client, opts Options, logger *slog.Logger, keep []Object) ([]string, error) {
	keys := make(map[string]struct{}, len(keep))
	for _, obj := range keep {
		keys[obj.Key] = struct{}{}
	}

	input := &s3.ListObjectsV2Input{Bucket: aws.String(opts.Bucket)}
	if opts.Prefix != "" {
		input.Prefix = aws.String(Key(opts.Prefix, ""))
	}

	var stale []string
	paginator := s3.NewListObjectsV2Paginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.New("E402").WithDetail("Listing " + opts.Bucket).Wrap(err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if _, ok := keys[*obj.Key]; !ok {
				stale = append(stale, *obj.Key)
			}
		}
	}

	sort.Strings(stale)
	for _, key := range stale {
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(opts.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, errors.New("E402").WithDetail("Deleting " + key).Wrap(err)
		}
		logger.Info("deleted", "key", key)
	}
	return stale, nil
}

// Key joins prefix and a slash separated relative path.
func Key(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// CacheControl returns the Cache-Control header for a build file.
func CacheControl(rel string) string {
	if assets.IsFingerprinted(rel) {
		return CacheImmutable
	}
	return CacheRevalidate
}

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".mjs":  "text/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json",
	".map":  "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".ico":  "image/x-icon",
	".txt":  "text/plain; charset=utf-8",
}

// ContentType returns the Content-Type for a build file.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
