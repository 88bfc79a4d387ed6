// Package storage mirrors the output tree into an S3-compatible bucket.
//
// It wraps the MinIO Go client behind the Client interface, which keeps the mirror
// testable with the mock in core/storage/mocks. The same client works against AWS S3
// and self-hosted MinIO.
//
// # Mirror
//
// The Mirror publishes the whole output tree after a full sync and follows individual
// reconcile outcomes while watching:
//
//   - copy, restore: the affected file (or directory subtree) is uploaded.
//   - remove: the object, or every object below the directory key, is deleted.
//   - mkdir, skip: nothing, object storage has no directories.
//
// An object is uploaded when it is missing remotely, differs in size, or is older than
// the local file. Remote objects with no local counterpart are removed in one batch.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	mirror := storage.NewMirror(client, adapter, cfg.Storage, roots.Output, logger)
//	report, err := mirror.Publish(ctx)
package storage
