package database

import (
	"context"
	"fmt"
	"time"

	"variant-manager/core/variant"

	"gorm.io/gorm"
)

// ActionSync marks journal entries written for a full sync.
const ActionSync = "sync"

// Entry is one journal row.
type Entry struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Session string    `gorm:"size:36;index" json:"session"`
	Action  string    `gorm:"size:16;index" json:"action"`
	Tier    string    `gorm:"size:16" json:"tier,omitempty"`
	Kind    string    `gorm:"size:8" json:"kind,omitempty"`
	Rel     string    `gorm:"size:1024" json:"rel,omitempty"`
	Source  string    `gorm:"size:2048" json:"source,omitempty"`
	Target  string    `gorm:"size:2048" json:"target,omitempty"`
	Reason  string    `gorm:"size:255" json:"reason,omitempty"`
	At      time.Time `gorm:"index" json:"at"`
}

// TableName pins the table name.
func (Entry) TableName() string {
	return "journal_entries"
}

// Journal records reconcile outcomes and full syncs.
type Journal struct {
	db      *gorm.DB
	session string
}

// NewJournal migrates the journal table and returns a journal tagging rows with session.
func NewJournal(db *gorm.DB, session string) (*Journal, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &Journal{db: db, session: session}, nil
}

// Observe records outcomes that changed the output tree.
func (j *Journal) Observe(ctx context.Context, out variant.Outcome) error {
	if !out.Changed() {
		return nil
	}
	entry := Entry{
		Session: j.session,
		Action:  string(out.Action),
		Tier:    out.Tier.String(),
		Kind:    out.Kind.String(),
		Rel:     out.Rel,
		Source:  out.Source,
		Target:  out.Target,
		Reason:  out.Reason,
		At:      out.At,
	}
	if err := j.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// ObserveSync records a full sync.
func (j *Journal) ObserveSync(ctx context.Context, report *variant.SyncReport) error {
	entry := Entry{
		Session: j.session,
		Action:  ActionSync,
		Target:  report.Roots.Output,
		Reason: fmt.Sprintf("copied=%d skipped=%d pruned=%d",
			report.Stats.FilesCopied, report.Stats.FilesSkipped, report.Pruned),
		At: time.Now(),
	}
	if err := j.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []Entry
	if err := j.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	return entries, nil
}
