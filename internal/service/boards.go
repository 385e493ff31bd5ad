package service

import (
	"context"
	"unicode/utf8"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/policy"
	"github.com/gfdmit/tierboard/internal/repository"
)

const maxTitleLen = 100

type BoardInput struct {
	Category model.Category
	Title    string
	Body     string
	Image    *model.ImageUpload
}

func (in BoardInput) validate() error {
	v := validation{}
	v.check(in.Category.Valid(), "category", "unknown category")
	v.check(in.Title != "", "title", "must not be empty")
	v.check(utf8.RuneCountInString(in.Title) <= maxTitleLen, "title", "too long")
	v.check(in.Body != "", "body", "must not be empty")
	if err := v.err(); err != nil {
		return err
	}
	return validateImage(in.Image)
}

// WriteBoard creates a board. A BRONZE author's greeting post promotes them
// to SILVER in the same transaction. The image is attached afterwards and
// the board stands even when that fails.
func (svc *Service) WriteBoard(ctx context.Context, actorID int64, in BoardInput) (model.Board, error) {
	if err := in.validate(); err != nil {
		return model.Board{}, err
	}

	var board model.Board
	err := svc.inTx(ctx, "write board", func(tx repository.Stores) error {
		actor, err := activeActor(ctx, tx.Users(), actorID)
		if err != nil {
			return err
		}
		if err := requireAccess(actor, in.Category, model.ActionWrite); err != nil {
			return err
		}

		now := svc.now()
		board = model.Board{
			Category:       in.Category,
			OwnerID:        actor.ID,
			OwnerNickname:  actor.Nickname,
			OwnerRole:      actor.Role,
			Title:          in.Title,
			Body:           in.Body,
			CreatedAt:      now,
			LastModifiedAt: now,
		}
		if err := tx.Boards().Insert(ctx, &board); err != nil {
			return err
		}

		if in.Category != model.CategoryGreeting {
			return nil
		}
		next, promoted := policy.PromoteOnGreeting(actor.Role)
		if !promoted {
			return nil
		}
		swapped, err := tx.Users().SwapRole(ctx, actor.ID, actor.Role, next)
		if err != nil {
			return err
		}
		if !swapped {
			// another greeting post promoted the author first
			return forbidden("greeting already posted")
		}
		board.OwnerRole = next
		return nil
	})
	if err != nil {
		return model.Board{}, err
	}

	if !in.Image.Empty() {
		board.ImageID = svc.attachImage(ctx, board.ID, in.Image)
	}
	return board, nil
}

// EditBoard updates title and body. A new image replaces the old one; the
// old object must be removed for the edit to commit.
func (svc *Service) EditBoard(ctx context.Context, actorID, boardID int64, in BoardInput) (model.Board, error) {
	if err := in.validate(); err != nil {
		return model.Board{}, err
	}
	replace := !in.Image.Empty()

	err := svc.inTx(ctx, "edit board", func(tx repository.Stores) error {
		meta, err := tx.Boards().LockMeta(ctx, boardID)
		if err != nil {
			return err
		}
		if meta.Category != in.Category {
			return repository.ErrNotFound
		}
		if _, err := guardMutation(ctx, tx.Users(), actorID, meta.OwnerID); err != nil {
			return err
		}
		if err := tx.Boards().UpdateContent(ctx, boardID, in.Title, in.Body, svc.now()); err != nil {
			return err
		}

		if !replace || meta.ImageID == nil {
			return nil
		}
		key, err := detachImage(ctx, tx, boardID, *meta.ImageID)
		if err != nil {
			return err
		}
		return svc.images.Remove(ctx, key)
	})
	if err != nil {
		return model.Board{}, err
	}

	if replace {
		svc.attachImage(ctx, boardID, in.Image)
	}
	board, err := svc.repo.Boards().FindByID(ctx, boardID)
	if err != nil {
		return model.Board{}, classify("edit board", err)
	}
	return board, nil
}

// DeleteBoard takes the board's likes off its owner's received total and
// then removes the board. The board row stays locked from the first read,
// so a like committed meanwhile is either counted or fails on the missing
// board. Under purge retention its comments and likes go with it.
func (svc *Service) DeleteBoard(ctx context.Context, actorID, boardID int64, category model.Category) error {
	var objectKey string
	err := svc.inTx(ctx, "delete board", func(tx repository.Stores) error {
		meta, err := tx.Boards().LockMeta(ctx, boardID)
		if err != nil {
			return err
		}
		if meta.Category != category {
			return repository.ErrNotFound
		}
		if _, err := guardMutation(ctx, tx.Users(), actorID, meta.OwnerID); err != nil {
			return err
		}

		received := meta.LikeCnt
		selfLiked, err := tx.Likes().Exists(ctx, meta.OwnerID, boardID)
		if err != nil {
			return err
		}
		if selfLiked && received > 0 {
			received--
		}
		if err := counters(tx).AdjustReceivedLikeCount(ctx, meta.OwnerID, -received); err != nil {
			return err
		}

		if meta.ImageID != nil {
			if objectKey, err = detachImage(ctx, tx, boardID, *meta.ImageID); err != nil {
				return err
			}
		}

		if svc.retention == config.RetentionPurge {
			if _, err := tx.Comments().DeleteByBoard(ctx, boardID); err != nil {
				return err
			}
			if _, err := tx.Likes().DeleteByBoard(ctx, boardID); err != nil {
				return err
			}
		}
		return tx.Boards().Delete(ctx, boardID)
	})
	if err != nil {
		return err
	}

	if objectKey != "" {
		svc.removeObject(ctx, objectKey)
	}
	return nil
}
