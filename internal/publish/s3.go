package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	defaultPartSize = 10 * 1024 * 1024
	deleteBatchSize = 1000
	uploadsPrefix   = "uploads/"
)

// S3Publisher mirrors the rendered directory into a bucket.
// Objects under uploads/ are never uploaded or deleted.
type S3Publisher struct {
	Client   *s3.Client   // required
	Bucket   string       // required
	PartSize int64        // default: 10 MiB
	Log      *slog.Logger // optional
}

func (p *S3Publisher) Publish(ctx context.Context, dir string) error {
	start := time.Now()

	uploaded, err := p.upload(ctx, dir)
	if err != nil {
		return fmt.Errorf("publish.S3Publisher: %w", err)
	}
	deleted, err := p.deleteStale(ctx, uploaded)
	if err != nil {
		return fmt.Errorf("publish.S3Publisher: %w", err)
	}

	p.log().Info("published", "bucket", p.Bucket, "uploaded", len(uploaded), "deleted", deleted, "duration", time.Since(start))
	return nil
}

// upload puts every file of dir and returns the set of written keys.
func (p *S3Publisher) upload(ctx context.Context, dir string) (map[string]struct{}, error) {
	uploader := manager.NewUploader(p.Client, func(u *manager.Uploader) {
		u.PartSize = p.partSize()
	})

	keys := make(map[string]struct{})
	err := filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, name)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, uploadsPrefix) {
			return nil
		}

		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()

		contentType, cacheControl := objectHeaders(key)
		_, err = uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(p.Bucket),
			Key:          aws.String(key),
			Body:         f,
			ContentType:  aws.String(contentType),
			CacheControl: aws.String(cacheControl),
		})
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%s: %s: %w", key, apiErr.ErrorCode(), err)
		} else if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		keys[key] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// deleteStale removes objects that the current render no longer produces.
func (p *S3Publisher) deleteStale(ctx context.Context, keep map[string]struct{}) (int, error) {
	var stale []types.ObjectIdentifier
	paginator := s3.NewListObjectsV2Paginator(p.Client, &s3.ListObjectsV2Input{Bucket: &p.Bucket})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		for _, object := range page.Contents {
			key := *object.Key
			if strings.HasPrefix(key, uploadsPrefix) {
				continue
			}
			if _, ok := keep[key]; ok {
				continue
			}
			stale = append(stale, types.ObjectIdentifier{Key: object.Key})
		}
	}

	for start := 0; start < len(stale); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(stale))
		_, err := p.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: &p.Bucket,
			Delete: &types.Delete{Objects: stale[start:end]},
		})
		if err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

func (p *S3Publisher) partSize() int64 {
	if p.PartSize == 0 {
		return defaultPartSize
	}
	return p.PartSize
}

func (p *S3Publisher) log() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// objectHeaders returns the Content-Type and Cache-Control of key.
// Pages revalidate on every request, assets are cached for a day.
func objectHeaders(key string) (contentType, cacheControl string) {
	ext := path.Ext(key)
	contentType = mime.TypeByExtension(ext)
	switch {
	case key == "_headers":
		contentType = "text/plain; charset=utf-8"
	case contentType == "":
		contentType = "application/octet-stream"
	}

	cacheControl = "public, max-age=86400"
	if ext == ".html" || ext == ".xml" || ext == ".json" || ext == ".txt" || ext == "" {
		cacheControl = "no-cache"
	}
	return contentType, cacheControl
}
