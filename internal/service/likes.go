package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
)

// likeTarget checks that the actor may like the board and returns its owner.
func likeTarget(ctx context.Context, tx repository.Stores, actorID, boardID int64) (model.User, int64, error) {
	actor, err := activeActor(ctx, tx.Users(), actorID)
	if err != nil {
		return model.User{}, 0, err
	}
	meta, err := tx.Boards().FindMeta(ctx, boardID)
	if err != nil {
		return model.User{}, 0, err
	}
	if err := requireAccess(actor, meta.Category, model.ActionLike); err != nil {
		return model.User{}, 0, err
	}
	return actor, meta.OwnerID, nil
}

// setLike moves the (actor, board) pair to want. It reports false when the
// row was already in that state. Self-likes count on the board but not
// towards the owner's received total.
func setLike(ctx context.Context, tx repository.Stores, actorID, ownerID, boardID int64, want model.LikeState, at func() time.Time) (bool, error) {
	var (
		changed bool
		err     error
		delta   int64
	)
	if want == model.Liked {
		changed, err = tx.Likes().Insert(ctx, actorID, boardID, at())
		delta = 1
	} else {
		changed, err = tx.Likes().Delete(ctx, actorID, boardID)
		delta = -1
	}
	if err != nil || !changed {
		return false, err
	}

	l := counters(tx)
	if err := l.AdjustLikeCount(ctx, boardID, delta); err != nil {
		return false, err
	}
	if actorID != ownerID {
		if err := l.AdjustReceivedLikeCount(ctx, ownerID, delta); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ToggleLike flips the actor's like on the board and returns the new state.
// A concurrent toggle that got to the row first fails this one.
func (svc *Service) ToggleLike(ctx context.Context, actorID, boardID int64) (model.LikeState, error) {
	var state model.LikeState
	err := svc.inTx(ctx, "toggle like", func(tx repository.Stores) error {
		actor, ownerID, err := likeTarget(ctx, tx, actorID, boardID)
		if err != nil {
			return err
		}
		liked, err := tx.Likes().Exists(ctx, actor.ID, boardID)
		if err != nil {
			return err
		}
		state = model.LikeState(!liked)

		changed, err := setLike(ctx, tx, actor.ID, ownerID, boardID, state, svc.now)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("like of user %d on board %d changed concurrently: %w", actor.ID, boardID, repository.ErrConflict)
		}
		return nil
	})
	return state, err
}

// AddLike makes sure the actor likes the board. Liking twice changes nothing.
func (svc *Service) AddLike(ctx context.Context, actorID, boardID int64) (bool, error) {
	return svc.putLike(ctx, "add like", actorID, boardID, model.Liked)
}

// RemoveLike makes sure the actor does not like the board.
func (svc *Service) RemoveLike(ctx context.Context, actorID, boardID int64) (bool, error) {
	return svc.putLike(ctx, "remove like", actorID, boardID, model.Unliked)
}

func (svc *Service) putLike(ctx context.Context, op string, actorID, boardID int64, want model.LikeState) (bool, error) {
	var changed bool
	err := svc.inTx(ctx, op, func(tx repository.Stores) error {
		actor, ownerID, err := likeTarget(ctx, tx, actorID, boardID)
		if err != nil {
			return err
		}
		changed, err = setLike(ctx, tx, actor.ID, ownerID, boardID, want, svc.now)
		return err
	})
	return changed, err
}

func (svc *Service) LikeStatus(ctx context.Context, actorID, boardID int64) (model.LikeState, error) {
	actor, err := activeActor(ctx, svc.repo.Users(), actorID)
	if err != nil {
		return model.Unliked, classify("like status", err)
	}
	if _, err := svc.repo.Boards().FindMeta(ctx, boardID); err != nil {
		return model.Unliked, classify("like status", err)
	}
	liked, err := svc.repo.Likes().Exists(ctx, actor.ID, boardID)
	if err != nil {
		return model.Unliked, classify("like status", err)
	}
	return model.LikeState(liked), nil
}
