// Package fsutil provides the filesystem primitives used to build the final source tree.
//
// All operations go through an afero.Fs so the same code runs against the real disk
// (afero.NewOsFs) and against an in-memory filesystem in tests (afero.NewMemMapFs).
//
// # Operations
//
//   - Kind / Exists / IsFile / IsDir: existence and entity kind queries.
//   - MkdirAll: idempotent recursive directory creation.
//   - Remove: recursive removal, a missing path is not an error.
//   - CopyFile: copy-if-stale. The copy is skipped when both sides exist and their
//     modification times are equal. Copies preserve the source modification time.
//   - CopyDir: recursive copy, optionally wiping the destination first.
//   - MoveFile: copy then remove the source.
//
// Every call is blocking. OS faults (permission, ENOSPC, ...) are wrapped and returned,
// never swallowed; callers decide whether they are recoverable.
//
// # Usage
//
//	a := fsutil.New(afero.NewOsFs())
//	copied, err := a.CopyFile("/variants/main/app.ts", "/src/app.ts")
package fsutil
