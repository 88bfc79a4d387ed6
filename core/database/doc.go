// Package database keeps a journal of every change made to the output tree.
//
// It wraps GORM with two dialects: sqlite for a local journal file next to the project,
// and MySQL for a journal shared between build machines.
//
// # Journal
//
// The Journal is a variant observer. Each reconcile outcome that mutated the output
// (copy, mkdir, restore, remove) becomes one row; skipped events are not recorded.
// Every full sync adds a summary row. Rows carry the watch session id so entries from
// one run can be grouped.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	journal, err := database.NewJournal(db, session)
//	entries, err := journal.Recent(ctx, 20)
package database
