// Package poller runs correlation cycles on a schedule and on demand, and
// distributes each snapshot to the cache, the signal bus and notifications.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/alanyoungcy/polylive/internal/notify"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Channel is the signal bus channel carrying JSON snapshots.
const Channel = "ch:live"

const lockName = "poll"

// Collector produces one snapshot per call.
type Collector interface {
	CollectAllLiveGames(ctx context.Context) domain.Snapshot
}

// Notifier receives alerts for newly live games and failed polls.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Pruner drops expired cache entries once per cycle.
type Pruner interface {
	Prune()
}

// Options carries the optional collaborators. Nil fields disable the
// corresponding behavior.
type Options struct {
	Interval time.Duration
	Locks    domain.LockManager
	LockTTL  time.Duration
	// CycleTimeout bounds one cycle. It defaults to LockTTL so a cycle
	// never outlives its lock.
	CycleTimeout time.Duration
	Bus          domain.SignalBus
	Notifier     Notifier
	Pruner       Pruner
}

// Status is a point-in-time view of the poller for the status endpoint.
type Status struct {
	Interval  time.Duration `json:"-"`
	LastPoll  time.Time     `json:"last_poll"`
	LastGames int           `json:"last_games"`
	LastError string        `json:"last_error,omitempty"`
	Cycles    int64         `json:"cycles"`
	Skipped   int64         `json:"skipped"`
}

// Poller owns the refresh schedule. Cycles never overlap within a process,
// and with a LockManager at most one replica polls at a time.
type Poller struct {
	collector Collector
	cache     domain.SnapshotCache
	opts      Options
	trigger   chan struct{}
	group     singleflight.Group
	logger    *slog.Logger

	mu     sync.Mutex
	status Status
}

// New creates a Poller. Interval defaults to 30s, LockTTL to 90% of it and
// CycleTimeout to LockTTL.
func New(collector Collector, cache domain.SnapshotCache, opts Options, logger *slog.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = opts.Interval * 9 / 10
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = opts.LockTTL
	}
	return &Poller{
		collector: collector,
		cache:     cache,
		opts:      opts,
		trigger:   make(chan struct{}, 1),
		logger:    logger.With(slog.String("component", "poller")),
		status:    Status{Interval: opts.Interval},
	}
}

// Run polls immediately, then on every tick and every Trigger, until ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "poller starting", slog.Duration("interval", p.opts.Interval))
	p.runCycle(ctx)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.runCycle(ctx)
		case <-p.trigger:
			p.runCycle(ctx)
		}
	}
}

// Trigger requests an extra cycle. Requests made while one is already queued
// are coalesced; it reports whether a new request was queued.
func (p *Poller) Trigger() bool {
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	if _, err := p.shared(ctx, false, p.poll); err != nil {
		if errors.Is(err, domain.ErrLockHeld) || ctx.Err() != nil {
			return
		}
		p.logger.ErrorContext(ctx, "poll failed", slog.String("error", err.Error()))
	}
}

// Poll runs one cycle now. Concurrent callers share the in-flight cycle. When
// another replica holds the poll lock it returns domain.ErrLockHeld.
func (p *Poller) Poll(ctx context.Context) (domain.Snapshot, error) {
	return p.shared(ctx, true, p.poll)
}

// shared runs fn once for all concurrent callers, bounded by CycleTimeout.
// A detached cycle does not end when the caller that started it goes away;
// each caller's ctx then only limits how long that caller waits. Run's own
// cycles stay attached so shutdown stops them.
func (p *Poller) shared(ctx context.Context, detach bool, fn func(context.Context) (domain.Snapshot, error)) (domain.Snapshot, error) {
	ch := p.group.DoChan(lockName, func() (any, error) {
		parent := ctx
		if detach {
			parent = context.WithoutCancel(ctx)
		}
		cycleCtx, cancel := context.WithTimeout(parent, p.opts.CycleTimeout)
		defer cancel()
		return fn(cycleCtx)
	})
	select {
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Snapshot{}, res.Err
		}
		return res.Val.(domain.Snapshot), nil
	}
}

func (p *Poller) poll(ctx context.Context) (domain.Snapshot, error) {
	cycle := uuid.NewString()
	logger := p.logger.With(slog.String("cycle", cycle))

	if p.opts.Locks != nil {
		unlock, err := p.opts.Locks.Acquire(ctx, lockName, p.opts.LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			logger.DebugContext(ctx, "poll lock held elsewhere, skipping cycle")
			p.recordSkip()
			return domain.Snapshot{}, err
		}
		if err != nil {
			err = fmt.Errorf("poller: acquire lock: %w", err)
			p.fail(ctx, err)
			return domain.Snapshot{}, err
		}
		defer unlock()
	}

	prev, prevErr := p.cache.GetSnapshot(ctx)
	snap := p.collector.CollectAllLiveGames(ctx)
	// Sources degrade to empty results once ctx is done; such a snapshot
	// must not replace a good one.
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("poller: cycle abandoned: %w", err)
		if errors.Is(err, context.DeadlineExceeded) {
			p.fail(context.WithoutCancel(ctx), err)
		}
		return domain.Snapshot{}, err
	}

	if p.opts.Pruner != nil {
		p.opts.Pruner.Prune()
	}

	if err := p.cache.SetSnapshot(ctx, snap); err != nil {
		err = fmt.Errorf("poller: store snapshot: %w", err)
		p.fail(ctx, err)
		return snap, err
	}
	p.publish(ctx, logger, snap)

	if prevErr == nil {
		p.notifyNewGames(ctx, prev, snap)
	}

	p.mu.Lock()
	p.status.LastPoll = snap.Timestamp
	p.status.LastGames = snap.TotalGames
	p.status.LastError = ""
	p.status.Cycles++
	p.mu.Unlock()

	logger.InfoContext(ctx, "poll complete", slog.Int("total_games", snap.TotalGames))
	return snap, nil
}

func (p *Poller) publish(ctx context.Context, logger *slog.Logger, snap domain.Snapshot) {
	if p.opts.Bus == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		logger.ErrorContext(ctx, "marshal snapshot failed", slog.String("error", err.Error()))
		return
	}
	if err := p.opts.Bus.Publish(ctx, Channel, payload); err != nil {
		logger.WarnContext(ctx, "publish snapshot failed", slog.String("error", err.Error()))
	}
}

// notifyNewGames alerts on games whose event id was absent from the previous
// snapshot. Without a previous snapshot nothing is sent, so a restart does
// not re-announce every game.
func (p *Poller) notifyNewGames(ctx context.Context, prev, snap domain.Snapshot) {
	if p.opts.Notifier == nil {
		return
	}
	seen := prev.EventIDs()
	for _, ss := range snap.Sports {
		for _, g := range ss.Games {
			if seen[g.EventID] {
				continue
			}
			title, msg := notify.GameLiveMessage(g)
			if err := p.opts.Notifier.Notify(ctx, notify.EventGameLive, title, msg); err != nil {
				p.logger.WarnContext(ctx, "game live notification failed",
					slog.String("event_id", g.EventID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (p *Poller) fail(ctx context.Context, err error) {
	p.mu.Lock()
	p.status.LastError = err.Error()
	p.mu.Unlock()

	if p.opts.Notifier == nil {
		return
	}
	title, msg := notify.PollFailedMessage(err)
	if nerr := p.opts.Notifier.Notify(ctx, notify.EventPollFailed, title, msg); nerr != nil {
		p.logger.WarnContext(ctx, "poll failure notification failed", slog.String("error", nerr.Error()))
	}
}

func (p *Poller) recordSkip() {
	p.mu.Lock()
	p.status.Skipped++
	p.mu.Unlock()
}

// Latest returns the cached snapshot, running one cycle synchronously when
// nothing has been cached yet.
func (p *Poller) Latest(ctx context.Context) (domain.Snapshot, error) {
	snap, err := p.cache.GetSnapshot(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrNoSnapshot) {
		p.logger.WarnContext(ctx, "snapshot cache read failed, polling directly",
			slog.String("error", err.Error()),
		)
	}

	// Joins an in-flight cycle if there is one; re-checks the cache in case
	// a cycle finished since the read above.
	return p.shared(ctx, true, func(ctx context.Context) (domain.Snapshot, error) {
		if snap, err := p.cache.GetSnapshot(ctx); err == nil {
			return snap, nil
		}
		return p.poll(ctx)
	})
}

// Status returns the poller's current counters.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
