package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"variant-manager/core/fsutil"
	"variant-manager/core/variant"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// PublishReport counts the objects touched by one publish.
type PublishReport struct {
	Uploaded  int `json:"uploaded"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// Mirror keeps a bucket prefix identical to the output tree.
type Mirror struct {
	client Client
	fs     *fsutil.Adapter
	bucket string
	prefix string
	output string
	logger *zap.Logger
}

// NewMirror creates a mirror of the output root into cfg.Bucket under cfg.Prefix.
func NewMirror(client Client, fs *fsutil.Adapter, cfg Config, output string, logger *zap.Logger) *Mirror {
	return &Mirror{
		client: client,
		fs:     fs,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		output: output,
		logger: logger,
	}
}

// EnsureBucket creates the target bucket when it does not exist yet.
func (m *Mirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return nil
}

// Publish mirrors the whole output tree.
func (m *Mirror) Publish(ctx context.Context) (*PublishReport, error) {
	report, err := m.syncTree(ctx, "")
	if err != nil {
		return nil, err
	}
	m.logger.Info("Output published",
		zap.String("bucket", m.bucket),
		zap.Int("uploaded", report.Uploaded),
		zap.Int("removed", report.Removed))
	return report, nil
}

// ObserveSync publishes the output after a full sync.
func (m *Mirror) ObserveSync(ctx context.Context, _ *variant.SyncReport) error {
	_, err := m.Publish(ctx)
	return err
}

// Observe mirrors a single reconcile outcome.
func (m *Mirror) Observe(ctx context.Context, out variant.Outcome) error {
	switch out.Action {
	case variant.ActionCopy, variant.ActionRestore:
		if out.Kind == fsutil.KindDir {
			_, err := m.syncTree(ctx, out.Rel)
			return err
		}
		return m.upload(ctx, out.Rel, out.Target)
	case variant.ActionRemove:
		if out.Kind == fsutil.KindDir {
			_, err := m.syncTree(ctx, out.Rel)
			return err
		}
		if err := m.client.RemoveObject(ctx, m.bucket, m.key(out.Rel), minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove object %s: %w", m.key(out.Rel), err)
		}
		return nil
	default:
		return nil
	}
}

// syncTree makes the objects below rel match the output subtree at rel.
func (m *Mirror) syncTree(ctx context.Context, rel string) (*PublishReport, error) {
	remote, err := m.listRemote(ctx, rel)
	if err != nil {
		return nil, err
	}

	report := &PublishReport{}
	root := filepath.Join(m.output, rel)
	if m.fs.IsDir(root) {
		err = m.fs.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			fileRel, err := filepath.Rel(m.output, p)
			if err != nil {
				return err
			}
			key := m.key(fileRel)
			obj, ok := remote[key]
			delete(remote, key)
			if ok && obj.Size == info.Size() {
				same, err := m.sameContent(obj, p)
				if err != nil {
					return err
				}
				if same {
					report.Unchanged++
					return nil
				}
			}
			if err := m.upload(ctx, fileRel, p); err != nil {
				return err
			}
			report.Uploaded++
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	removed, err := m.removeAll(ctx, remote)
	report.Removed = removed
	return report, err
}

func (m *Mirror) listRemote(ctx context.Context, rel string) (map[string]minio.ObjectInfo, error) {
	prefix := m.key(rel)
	if prefix != "" {
		prefix += "/"
	}

	remote := make(map[string]minio.ObjectInfo)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, obj.Err)
		}
		remote[obj.Key] = obj
	}
	return remote, nil
}

func (m *Mirror) removeAll(ctx context.Context, objects map[string]minio.ObjectInfo) (int, error) {
	if len(objects) == 0 {
		return 0, nil
	}
	objectsCh := make(chan minio.ObjectInfo, len(objects))
	for _, obj := range objects {
		objectsCh <- obj
	}
	close(objectsCh)

	var errs []error
	for rmErr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove object %s: %w", rmErr.ObjectName, rmErr.Err))
	}
	if len(errs) > 0 {
		return len(objects) - len(errs), errors.Join(errs...)
	}
	return len(objects), nil
}

// sameContent compares the object's ETag with the MD5 of the local file.
// Multipart ETags never match, so such objects are uploaded again.
func (m *Mirror) sameContent(obj minio.ObjectInfo, localPath string) (bool, error) {
	etag := strings.Trim(obj.ETag, "\"")
	if etag == "" || strings.Contains(etag, "-") {
		return false, nil
	}

	f, err := m.fs.Open(localPath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, fmt.Errorf("hash %s: %w", localPath, err)
	}
	return strings.EqualFold(etag, hex.EncodeToString(h.Sum(nil))), nil
}

func (m *Mirror) upload(ctx context.Context, rel, localPath string) error {
	f, err := m.fs.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	opts := minio.PutObjectOptions{ContentType: mime.TypeByExtension(filepath.Ext(localPath))}
	if opts.ContentType == "" {
		opts.ContentType = "application/octet-stream"
	}
	if _, err := m.client.PutObject(ctx, m.bucket, m.key(rel), f, info.Size(), opts); err != nil {
		return fmt.Errorf("upload %s: %w", m.key(rel), err)
	}
	return nil
}

// key maps an output-relative path to an object key.
func (m *Mirror) key(rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "." {
		rel = ""
	}
	return strings.Trim(path.Join(m.prefix, rel), "/")
}
