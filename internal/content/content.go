// Package content resolves the deliverable body for a content record.
// Bodies live in one of three places, checked in priority order: inline on
// the database row, in object storage under the record's storage key, or
// in a locally extracted package directory. Filesystem resolution fails
// closed: a path that escapes the package root is treated as not found.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrContentNotFound means no body could be resolved for the record.
// It covers missing rows, missing objects, and rejected paths alike so the
// response never discloses which lookup failed.
var ErrContentNotFound = errors.New("content not found")

// Source says where a resolved body came from. Locally served packages
// already carry their tracking instrumentation; database and remote bodies
// do not, and the renderer injects it for them.
type Source int

const (
	SourceInline Source = iota
	SourceRemote
	SourceLocal
)

// Resolved is a content record together with its loaded body.
type Resolved struct {
	Record *domain.ContentRecord
	Body   string
	Source Source
}

// Repository defines the content lookup contract.
type Repository interface {
	GetContent(ctx context.Context, id string) (*domain.ContentRecord, error)
}

type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader resolves content bodies. The object client is optional; without
// one, storage-key records fall through to the local package directory.
type Loader struct {
	repo       Repository
	objects    objectAPI
	bucket     string
	prefix     string
	packageDir string
}

// NewLoader creates a content loader. prefix is prepended to every storage
// key; packageDir is the root under which extracted packages live, one
// directory per content id.
func NewLoader(repo Repository, objects *s3.Client, bucket, prefix, packageDir string) *Loader {
	l := &Loader{repo: repo, bucket: bucket, prefix: prefix, packageDir: packageDir}
	if objects != nil {
		l.objects = objects
	}
	return l
}

// Resolve loads the body for a content id.
func (l *Loader) Resolve(ctx context.Context, contentID string) (*Resolved, error) {
	rec, err := l.repo.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	if rec.HTMLBody != nil && *rec.HTMLBody != "" {
		return &Resolved{Record: rec, Body: *rec.HTMLBody, Source: SourceInline}, nil
	}

	if rec.StorageKey != nil && *rec.StorageKey != "" && l.objects != nil {
		body, err := l.fetchRemote(ctx, *rec.StorageKey)
		if err == nil {
			return &Resolved{Record: rec, Body: body, Source: SourceRemote}, nil
		}
		logger.Warn("remote content fetch failed, trying local package",
			"content_id", contentID, "error", err)
	}

	body, err := l.readLocal(contentID, "index.html")
	if err != nil {
		logger.Error("content body unresolvable", "content_id", contentID, "error", err)
		return nil, ErrContentNotFound
	}
	return &Resolved{Record: rec, Body: body, Source: SourceLocal}, nil
}

// ObjectURL returns the public object URL for a storage key, used for
// video redirects.
func (l *Loader) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", l.bucket, l.objectKey(key))
}

// objectKey applies the configured bucket prefix to a storage key.
func (l *Loader) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if l.prefix == "" {
		return key
	}
	return strings.TrimRight(l.prefix, "/") + "/" + key
}

// VideoSource returns either a remote storage key to redirect to or a
// local file path to stream, for video-typed records.
func (l *Loader) VideoSource(rec *domain.ContentRecord) (storageKey, localPath string, err error) {
	if rec.StorageKey != nil && *rec.StorageKey != "" {
		return *rec.StorageKey, "", nil
	}
	p, err := l.safePath(rec.ID, "video.mp4")
	if err != nil {
		return "", "", ErrContentNotFound
	}
	if _, err := os.Stat(p); err != nil {
		return "", "", ErrContentNotFound
	}
	return "", p, nil
}

func (l *Loader) fetchRemote(ctx context.Context, key string) (string, error) {
	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.objectKey(key)),
	})
	if err != nil {
		return "", fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("read object body: %w", err)
	}
	return string(data), nil
}

func (l *Loader) readLocal(contentID, name string) (string, error) {
	p, err := l.safePath(contentID, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// safePath joins under the package root and rejects anything that resolves
// outside it. The error carries no path detail.
func (l *Loader) safePath(parts ...string) (string, error) {
	if l.packageDir == "" {
		return "", ErrContentNotFound
	}
	root, err := filepath.Abs(l.packageDir)
	if err != nil {
		return "", ErrContentNotFound
	}
	p := filepath.Join(append([]string{root}, parts...)...)
	p = filepath.Clean(p)
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", ErrContentNotFound
	}
	return p, nil
}
