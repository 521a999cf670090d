package websocket

import (
	"context"
	"time"

	"github.com/quickchat/server/internal/common/clock"
	"github.com/quickchat/server/internal/common/constants"
	"github.com/quickchat/server/internal/common/logger"
)

type LastSeenStore interface {
	UpdateLastSeen(ctx context.Context, userIDs []string, seenAt time.Time) error
}

// LastSeenUpdater batches last-seen timestamp writes so a burst of
// disconnects costs one UPDATE instead of one per user. Touch never blocks;
// an overflowing queue drops the update, the next disconnect will refresh it.
type LastSeenUpdater struct {
	store      LastSeenStore
	clk        clock.Clock
	log        *logger.Logger
	flushEvery time.Duration
	queue      chan string
	done       chan struct{}
	stopped    chan struct{}
}

func NewLastSeenUpdater(store LastSeenStore, clk clock.Clock, log *logger.Logger, flushEvery time.Duration) *LastSeenUpdater {
	return &LastSeenUpdater{
		store:      store,
		clk:        clk,
		log:        log,
		flushEvery: flushEvery,
		queue:      make(chan string, constants.LastSeenQueueSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

func (u *LastSeenUpdater) Touch(userID string) {
	select {
	case u.queue <- userID:
	default:
		u.log.Debugf("last-seen queue full, dropping update for user %s", userID)
	}
}

func (u *LastSeenUpdater) Run() {
	defer close(u.stopped)
	ticker := time.NewTicker(u.flushEvery)
	defer ticker.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case userID := <-u.queue:
			pending[userID] = struct{}{}
			if len(pending) >= constants.LastSeenBatchSize {
				u.flush(pending)
				pending = make(map[string]struct{})
			}
		case <-ticker.C:
			if len(pending) > 0 {
				u.flush(pending)
				pending = make(map[string]struct{})
			}
		case <-u.done:
			u.drain(pending)
			return
		}
	}
}

func (u *LastSeenUpdater) Shutdown(ctx context.Context) error {
	close(u.done)
	select {
	case <-u.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *LastSeenUpdater) drain(pending map[string]struct{}) {
	for {
		select {
		case userID := <-u.queue:
			pending[userID] = struct{}{}
		default:
			if len(pending) > 0 {
				u.flush(pending)
			}
			return
		}
	}
}

func (u *LastSeenUpdater) flush(pending map[string]struct{}) {
	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultRequestTimeout)
	defer cancel()

	if err := u.store.UpdateLastSeen(ctx, ids, u.clk.Now()); err != nil {
		u.log.Errorf("failed to flush last-seen batch of %d: %v", len(ids), err)
	}
}
