package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
)

func validateCommentBody(body string) error {
	v := validation{}
	v.check(strings.TrimSpace(body) != "", "body", "must not be empty")
	return v.err()
}

func (svc *Service) WriteComment(ctx context.Context, actorID, boardID int64, body string) (model.Comment, error) {
	if err := validateCommentBody(body); err != nil {
		return model.Comment{}, err
	}

	var comment model.Comment
	err := svc.inTx(ctx, "write comment", func(tx repository.Stores) error {
		actor, err := activeActor(ctx, tx.Users(), actorID)
		if err != nil {
			return err
		}
		board, err := tx.Boards().FindMeta(ctx, boardID)
		if err != nil {
			return err
		}
		if err := requireAccess(actor, board.Category, model.ActionComment); err != nil {
			return err
		}

		now := svc.now()
		comment = model.Comment{
			BoardID:        boardID,
			OwnerID:        actor.ID,
			OwnerNickname:  actor.Nickname,
			Body:           body,
			CreatedAt:      now,
			LastModifiedAt: now,
		}
		if err := tx.Comments().Insert(ctx, &comment); err != nil {
			return err
		}
		return counters(tx).IncrementCommentCount(ctx, boardID)
	})
	if err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// EditComment replaces the body and returns the comment's board id.
func (svc *Service) EditComment(ctx context.Context, actorID, commentID int64, body string) (int64, error) {
	if err := validateCommentBody(body); err != nil {
		return 0, err
	}

	var boardID int64
	err := svc.inTx(ctx, "edit comment", func(tx repository.Stores) error {
		meta, err := tx.Comments().FindMeta(ctx, commentID)
		if err != nil {
			return err
		}
		if _, err := guardMutation(ctx, tx.Users(), actorID, meta.OwnerID); err != nil {
			return err
		}
		boardID = meta.BoardID
		return tx.Comments().UpdateBody(ctx, commentID, body, svc.now())
	})
	if err != nil {
		return 0, err
	}
	return boardID, nil
}

// DeleteComment removes the comment and returns its board id. Comments of a
// deleted account were already taken off their board's count.
func (svc *Service) DeleteComment(ctx context.Context, actorID, commentID int64) (int64, error) {
	var boardID int64
	err := svc.inTx(ctx, "delete comment", func(tx repository.Stores) error {
		meta, err := tx.Comments().FindMeta(ctx, commentID)
		if err != nil {
			return err
		}
		if _, err := guardMutation(ctx, tx.Users(), actorID, meta.OwnerID); err != nil {
			return err
		}
		if err := tx.Comments().Delete(ctx, commentID); err != nil {
			return err
		}
		boardID = meta.BoardID
		if meta.OwnerStatus != model.StatusActive {
			return nil
		}
		err = counters(tx).DecrementCommentCount(ctx, meta.BoardID)
		if errors.Is(err, repository.ErrNotFound) {
			// the board is gone and the comment was kept as history
			return nil
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return boardID, nil
}
