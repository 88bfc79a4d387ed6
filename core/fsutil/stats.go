package fsutil

// Stats counts the mutations an Adapter has performed since it was created.
type Stats struct {
	FilesCopied  int64 `json:"files_copied"`
	FilesSkipped int64 `json:"files_skipped"`
	DirsCreated  int64 `json:"dirs_created"`
	Removed      int64 `json:"removed"`
}

// Sub returns the difference s - other, used to report the work done by one operation.
func (s Stats) Sub(other Stats) Stats {
	return Stats{
		FilesCopied:  s.FilesCopied - other.FilesCopied,
		FilesSkipped: s.FilesSkipped - other.FilesSkipped,
		DirsCreated:  s.DirsCreated - other.DirsCreated,
		Removed:      s.Removed - other.Removed,
	}
}

// Stats returns a snapshot of the adapter counters.
func (a *Adapter) Stats() Stats {
	return Stats{
		FilesCopied:  a.filesCopied.Load(),
		FilesSkipped: a.filesSkipped.Load(),
		DirsCreated:  a.dirsCreated.Load(),
		Removed:      a.removed.Load(),
	}
}
