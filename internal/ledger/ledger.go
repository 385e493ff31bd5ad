// Package ledger keeps the board like/comment counters and the users'
// received-like totals in step with the rows they summarize. Every change
// is a single atomic UPDATE in the store; nothing here reads a counter and
// writes it back.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gfdmit/tierboard/internal/log"
	"github.com/gfdmit/tierboard/internal/repository"
)

// ErrInvariantViolation marks a decrement that would have gone negative. It
// is logged, never returned.
var ErrInvariantViolation = errors.New("counter invariant violation")

type Ledger struct {
	counters repository.CounterStore
}

// New binds a ledger to the counters of one transaction.
func New(counters repository.CounterStore) *Ledger {
	return &Ledger{counters: counters}
}

func (l *Ledger) IncrementLikeCount(ctx context.Context, boardID int64) error {
	return l.AdjustLikeCount(ctx, boardID, 1)
}

func (l *Ledger) DecrementLikeCount(ctx context.Context, boardID int64) error {
	return l.AdjustLikeCount(ctx, boardID, -1)
}

func (l *Ledger) IncrementCommentCount(ctx context.Context, boardID int64) error {
	return l.AdjustCommentCount(ctx, boardID, 1)
}

func (l *Ledger) DecrementCommentCount(ctx context.Context, boardID int64) error {
	return l.AdjustCommentCount(ctx, boardID, -1)
}

func (l *Ledger) IncrementReceivedLikeCount(ctx context.Context, userID int64) error {
	return l.AdjustReceivedLikeCount(ctx, userID, 1)
}

func (l *Ledger) DecrementReceivedLikeCount(ctx context.Context, userID int64) error {
	return l.AdjustReceivedLikeCount(ctx, userID, -1)
}

func (l *Ledger) AdjustLikeCount(ctx context.Context, boardID, delta int64) error {
	if delta == 0 {
		return nil
	}
	clamped, err := l.counters.AddBoardLikes(ctx, boardID, delta)
	return l.settle("board.likeCnt", boardID, delta, clamped, err)
}

func (l *Ledger) AdjustCommentCount(ctx context.Context, boardID, delta int64) error {
	if delta == 0 {
		return nil
	}
	clamped, err := l.counters.AddBoardComments(ctx, boardID, delta)
	return l.settle("board.commentCnt", boardID, delta, clamped, err)
}

func (l *Ledger) AdjustReceivedLikeCount(ctx context.Context, userID, delta int64) error {
	if delta == 0 {
		return nil
	}
	clamped, err := l.counters.AddReceivedLikes(ctx, userID, delta)
	return l.settle("user.receivedLikeCnt", userID, delta, clamped, err)
}

func (l *Ledger) settle(counter string, id, delta int64, clamped bool, err error) error {
	if err != nil {
		return fmt.Errorf("adjust %s of %d by %d: %w", counter, id, delta, err)
	}
	if clamped {
		log.Warn.Printf("[LEDGER] %v: %s of %d adjusted by %d, floored at 0", ErrInvariantViolation, counter, id, delta)
	}
	return nil
}
