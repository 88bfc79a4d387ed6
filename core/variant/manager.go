package variant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"variant-manager/core/fsutil"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNoSubscription is returned by StartWatch when the manager has no event source.
var ErrNoSubscription = errors.New("no watch subscription configured")

// ErrUnrelated is returned when a path belongs to neither input tree.
var ErrUnrelated = errors.New("path is outside the input roots")

// HandlerFunc processes one event delivered by a Subscription.
type HandlerFunc func(ctx context.Context, ev Event) error

// Subscription delivers watch events sequentially to a handler until stopped.
type Subscription interface {
	Start(ctx context.Context, handle HandlerFunc) error
	Stop() error
	Running() bool
	Done() <-chan struct{}
	Err() error
}

// SyncObserver is notified after every successful full sync.
type SyncObserver interface {
	ObserveSync(ctx context.Context, report *SyncReport) error
}

// Options configures a Manager.
type Options struct {
	// Fs is the filesystem the trees live on. Defaults to the OS filesystem.
	Fs afero.Fs
	// Ignore lists doublestar patterns excluded from sync and reconcile.
	Ignore []string
	// Clean wipes the output root on full sync.
	Clean bool
	// Subscription is the event source used by StartWatch.
	Subscription Subscription
	// Observers receive every reconcile outcome. Those implementing SyncObserver
	// also receive full sync reports.
	Observers []Observer
	Logger    *zap.Logger
}

// Status is a snapshot of the manager state.
type Status struct {
	Roots       Roots            `json:"roots"`
	Watching    bool             `json:"watching"`
	LastSync    *SyncReport      `json:"last_sync,omitempty"`
	LastOutcome *Outcome         `json:"last_outcome,omitempty"`
	Events      map[Action]int64 `json:"events"`
	Stats       fsutil.Stats     `json:"stats"`
}

// Resolution explains where a relative path comes from and where it lands.
type Resolution struct {
	Rel        string      `json:"rel"`
	Tier       Tier        `json:"tier"`
	Winner     Tier        `json:"winner"`
	Main       string      `json:"main"`
	Channel    string      `json:"channel,omitempty"`
	Output     string      `json:"output"`
	OutputKind fsutil.Kind `json:"output_kind"`
}

// Manager owns the full sync and the watch lifecycle for one set of roots.
type Manager struct {
	roots      Roots
	fs         *fsutil.Adapter
	resolver   *Resolver
	syncer     *Syncer
	reconciler *Reconciler
	sub        Subscription
	observers  []Observer
	logger     *zap.Logger

	// mu serializes every mutation of the output tree.
	mu    sync.Mutex
	group singleflight.Group

	statusMu    sync.RWMutex
	lastSync    *SyncReport
	lastOutcome *Outcome
	events      map[Action]int64
}

// NewManager wires the sync engine and the reconciler over roots.
func NewManager(roots Roots, opts Options) (*Manager, error) {
	if err := roots.validate(); err != nil {
		return nil, err
	}
	ignore, err := NewMatcher(opts.Ignore)
	if err != nil {
		return nil, err
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	adapter := fsutil.New(opts.Fs)
	resolver := NewResolver(roots)
	return &Manager{
		roots:      roots,
		fs:         adapter,
		resolver:   resolver,
		syncer:     NewSyncer(adapter, resolver, ignore, opts.Clean, opts.Logger),
		reconciler: NewReconciler(adapter, resolver, ignore),
		sub:        opts.Subscription,
		observers:  opts.Observers,
		logger:     opts.Logger,
		events:     make(map[Action]int64),
	}, nil
}

// Roots returns the managed roots.
func (m *Manager) Roots() Roots {
	return m.roots
}

// Resolver returns the path resolver for the managed roots.
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// Fs returns the filesystem adapter shared by sync and reconcile.
func (m *Manager) Fs() *fsutil.Adapter {
	return m.fs
}

// Sync runs a full sync while holding the mutation lock.
func (m *Manager) Sync(ctx context.Context) (*SyncReport, error) {
	m.mu.Lock()
	report, err := m.syncer.Sync(ctx)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("full sync: %w", err)
	}

	m.statusMu.Lock()
	m.lastSync = report
	m.statusMu.Unlock()

	m.logger.Info("Full sync completed",
		zap.String("output", m.roots.Output),
		zap.Int64("copied", report.Stats.FilesCopied),
		zap.Int64("skipped", report.Stats.FilesSkipped),
		zap.Int("pruned", report.Pruned))

	for _, obs := range m.observers {
		so, ok := obs.(SyncObserver)
		if !ok {
			continue
		}
		if err := so.ObserveSync(ctx, report); err != nil {
			m.logger.Warn("Sync observer failed", zap.Error(err))
		}
	}
	return report, nil
}

// Resync runs a full sync on demand. Concurrent callers share a single run.
func (m *Manager) Resync(ctx context.Context) (*SyncReport, error) {
	v, err, _ := m.group.Do("resync", func() (any, error) {
		return m.Sync(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SyncReport), nil
}

// StartWatch begins delivering events to the reconciler.
func (m *Manager) StartWatch(ctx context.Context) error {
	if m.sub == nil {
		return ErrNoSubscription
	}
	if err := m.sub.Start(ctx, m.Handle); err != nil {
		return fmt.Errorf("start watch: %w", err)
	}
	m.logger.Info("Watching for changes",
		zap.String("main", m.roots.Main),
		zap.String("channel", m.roots.Channel))
	return nil
}

// StopWatch ends the subscription. It is a no-op when the watch is not running.
func (m *Manager) StopWatch() error {
	if m.sub == nil {
		return nil
	}
	return m.sub.Stop()
}

// Done is closed when the subscription ends. Nil without a subscription.
func (m *Manager) Done() <-chan struct{} {
	if m.sub == nil {
		return nil
	}
	return m.sub.Done()
}

// Err returns the error that ended the subscription, if any.
func (m *Manager) Err() error {
	if m.sub == nil {
		return nil
	}
	return m.sub.Err()
}

// Handle reconciles one event and notifies observers of the outcome.
// Only filesystem failures are returned.
func (m *Manager) Handle(ctx context.Context, ev Event) error {
	m.mu.Lock()
	out, err := m.reconciler.Handle(ctx, ev)
	if err == nil && out.Changed() {
		err = m.syncer.Forget()
	}
	m.mu.Unlock()
	if err != nil {
		m.logger.Error("Reconcile failed", zap.String("path", ev.EventPath()), zap.Error(err))
		return fmt.Errorf("reconcile %s: %w", ev.EventPath(), err)
	}

	m.statusMu.Lock()
	m.events[out.Action]++
	m.lastOutcome = &out
	m.statusMu.Unlock()

	if out.Changed() {
		m.logger.Info("Reconciled",
			zap.String("action", string(out.Action)),
			zap.Stringer("tier", out.Tier),
			zap.String("rel", out.Rel))
	} else {
		m.logger.Debug("Event skipped",
			zap.String("path", ev.EventPath()),
			zap.String("reason", out.Reason))
	}

	for _, obs := range m.observers {
		if err := obs.Observe(ctx, out); err != nil {
			m.logger.Warn("Observer failed", zap.String("rel", out.Rel), zap.Error(err))
		}
	}
	return nil
}

// Status returns a snapshot of the manager state.
func (m *Manager) Status() Status {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	events := make(map[Action]int64, len(m.events))
	for k, v := range m.events {
		events[k] = v
	}
	st := Status{
		Roots:    m.roots,
		Watching: m.sub != nil && m.sub.Running(),
		LastSync: m.lastSync,
		Events:   events,
		Stats:    m.fs.Stats(),
	}
	if m.lastOutcome != nil {
		out := *m.lastOutcome
		st.LastOutcome = &out
	}
	return st
}

// Resolve explains path, given either absolute inside an input tree or relative
// to the tree roots.
func (m *Manager) Resolve(path string) (*Resolution, error) {
	var loc Location
	if filepath.IsAbs(path) {
		l, ok := m.resolver.Relativize(path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnrelated, path)
		}
		loc = l
	} else {
		rel := filepath.Clean(path)
		if rel == "." {
			rel = ""
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s", ErrUnrelated, path)
		}
		loc = Location{Tier: TierMain, Rel: rel}
	}

	res := &Resolution{
		Rel:    loc.Rel,
		Tier:   loc.Tier,
		Winner: TierNone,
		Main:   m.resolver.Join(m.roots.Main, loc),
		Output: m.resolver.Join(m.roots.Output, loc),
	}
	if m.roots.HasChannel() {
		res.Channel = m.resolver.Join(m.roots.Channel, loc)
		if m.fs.Exists(res.Channel) {
			res.Winner = TierChannel
		}
	}
	if res.Winner == TierNone && m.fs.Exists(res.Main) {
		res.Winner = TierMain
	}

	kind, err := m.fs.Kind(res.Output)
	if err != nil {
		return nil, err
	}
	res.OutputKind = kind
	return res, nil
}
