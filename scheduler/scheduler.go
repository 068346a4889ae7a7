package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	domainPost "github.com/AzielCF/fedisched/domains/post"
	"github.com/AzielCF/fedisched/pkg/postworker"
	"github.com/sirupsen/logrus"
)

// Scheduler is the single active polling loop. It owns startup recovery,
// claims due posts and hands each claim to the dispatcher through the worker
// pool. One post's failure never aborts the rest of a tick.
type Scheduler struct {
	store      domainPost.IPostRepository
	dispatcher *Dispatcher
	pool       *postworker.Pool
	interval   time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}

	lastTick atomic.Value // time.Time

	now func() time.Time
}

func NewScheduler(store domainPost.IPostRepository, dispatcher *Dispatcher, pool *postworker.Pool, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		pool:       pool,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start runs recovery and launches the polling loop. Safe to call once; the
// caller owns the lifecycle and must call Stop on shutdown.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.recover(ctx)
		go s.run(ctx)
		logrus.Infof("[Scheduler] started (interval: %s)", s.interval)
	})
}

// Stop terminates the loop and waits for it to exit. In-flight publishes run
// to completion in the pool; the pool is stopped separately by the caller.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		logrus.Info("[Scheduler] stopped")
	})
}

// LastTick returns the time of the most recent completed tick.
func (s *Scheduler) LastTick() (time.Time, bool) {
	v := s.lastTick.Load()
	if v == nil {
		return time.Time{}, false
	}
	return v.(time.Time), true
}

// recover resets posts stranded in publishing by a crash. A crash mid-publish
// leaves no evidence of whether the external call went through, so the posts
// are re-armed for immediate redelivery; duplicates are the accepted cost.
func (s *Scheduler) recover(ctx context.Context) {
	reset, err := s.store.ResetStuckPublishing(ctx, s.now())
	if err != nil {
		logrus.WithError(err).Error("[Scheduler] startup recovery failed")
		return
	}
	if reset > 0 {
		logrus.Infof("[Scheduler] reset %d post(s) stuck in publishing", reset)
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First poll right away; a restart should not wait a full interval to
	// deliver overdue posts.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	defer s.lastTick.Store(now)

	due, err := s.store.DueBefore(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("[Scheduler] failed to query due posts")
		return
	}
	if len(due) == 0 {
		return
	}
	logrus.Infof("[Scheduler] processing %d due post(s)", len(due))

	for _, p := range due {
		claimed, err := s.store.ClaimForPublishing(ctx, p.ID)
		if err != nil {
			logrus.WithError(err).Errorf("[Scheduler] claim failed for post %s", p.ID)
			continue
		}
		if !claimed {
			// Someone else (an overlapping tick, a manual retry) got there
			// first. Not an error.
			continue
		}

		claimedPost := p
		claimedPost.Status = domainPost.StatusPublishing

		accepted := s.pool.TryDispatch(postworker.PublishJob{
			PostID:    claimedPost.ID,
			AccountID: claimedPost.AccountID,
			Handler: func(jobCtx context.Context) error {
				return s.dispatcher.Dispatch(jobCtx, claimedPost)
			},
		})
		if !accepted {
			// Pool saturated: give the claim back so a later tick retries.
			if err := s.store.ReleaseClaim(ctx, claimedPost.ID, now); err != nil {
				logrus.WithError(err).Errorf("[Scheduler] failed to release claim for post %s", claimedPost.ID)
			}
		}
	}
}
