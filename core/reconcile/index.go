package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"variant-manager/core/fsutil"
)

// loadIndex walks root and indexes every entry below it that is not ignored.
// A missing root yields an empty index.
func (c *Checker) loadIndex(ctx context.Context, root string) (Index, error) {
	index := make(Index)
	if root == "" || !c.fs.IsDir(root) {
		return index, nil
	}

	err := c.fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		if c.ignore.Match(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entry := Entry{Kind: fsutil.KindFile, Size: info.Size(), ModTime: info.ModTime()}
		if info.IsDir() {
			entry = Entry{Kind: fsutil.KindDir}
		}
		index[rel] = entry
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}
	return index, nil
}
