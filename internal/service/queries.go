package service

import (
	"context"
	"net/url"

	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/policy"
	"github.com/gfdmit/tierboard/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// canRead applies the READ rule to a logged-in actor or to an anonymous
// reader.
func (svc *Service) canRead(ctx context.Context, actorID int64, category model.Category) error {
	if actorID == Anonymous {
		if !policy.CanReadAnonymously(category) {
			return forbidden("login required")
		}
		return nil
	}
	actor, err := activeActor(ctx, svc.repo.Users(), actorID)
	if err != nil {
		return err
	}
	return requireAccess(actor, category, model.ActionRead)
}

// ReadBoard returns the board if it still exists under category.
func (svc *Service) ReadBoard(ctx context.Context, actorID int64, category model.Category, boardID int64) (model.Board, error) {
	board, err := svc.repo.Boards().FindByID(ctx, boardID)
	if err != nil {
		return model.Board{}, classify("read board", err)
	}
	if board.Category != category {
		return model.Board{}, classify("read board", repository.ErrNotFound)
	}
	if err := svc.canRead(ctx, actorID, category); err != nil {
		return model.Board{}, classify("read board", err)
	}
	return board, nil
}

type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ListBoards pages through a category, newest first, optionally narrowed by
// a keyword search. Notices are listed separately.
func (svc *Service) ListBoards(ctx context.Context, actorID int64, category model.Category, page Page, search model.BoardSearch) ([]model.Board, int64, error) {
	if err := svc.canRead(ctx, actorID, category); err != nil {
		return nil, 0, classify("list boards", err)
	}
	page = page.normalize()
	boards, err := svc.repo.Boards().ListByCategory(ctx, category, model.RoleAdmin, search, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, classify("list boards", err)
	}
	total, err := svc.repo.Boards().CountByCategoryExcludeRole(ctx, category, model.RoleAdmin, search)
	if err != nil {
		return nil, 0, classify("list boards", err)
	}
	return boards, total, nil
}

// Notices are the boards ADMIN accounts posted in the category.
func (svc *Service) Notices(ctx context.Context, actorID int64, category model.Category) ([]model.Board, error) {
	if err := svc.canRead(ctx, actorID, category); err != nil {
		return nil, classify("notices", err)
	}
	boards, err := svc.repo.Boards().ListByCategoryAndRole(ctx, category, model.RoleAdmin)
	if err != nil {
		return nil, classify("notices", err)
	}
	return boards, nil
}

func (svc *Service) Comments(ctx context.Context, actorID, boardID int64) ([]model.Comment, error) {
	meta, err := svc.repo.Boards().FindMeta(ctx, boardID)
	if err != nil {
		return nil, classify("comments", err)
	}
	if err := svc.canRead(ctx, actorID, meta.Category); err != nil {
		return nil, classify("comments", err)
	}
	comments, err := svc.repo.Comments().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, classify("comments", err)
	}
	return comments, nil
}

// MyBoards lists the boards the actor wrote ("board"), liked ("like") or
// commented on ("comment").
func (svc *Service) MyBoards(ctx context.Context, actorID int64, kind string) ([]model.Board, error) {
	actor, err := activeActor(ctx, svc.repo.Users(), actorID)
	if err != nil {
		return nil, classify("my boards", err)
	}

	var boards []model.Board
	switch kind {
	case "board":
		boards, err = svc.repo.Boards().ListByOwner(ctx, actor.ID)
	case "like":
		boards, err = svc.repo.Boards().ListLikedBy(ctx, actor.ID)
	case "comment":
		boards, err = svc.repo.Boards().ListCommentedBy(ctx, actor.ID)
	default:
		return nil, &ValidationError{Fields: map[string]string{"kind": "must be board, like or comment"}}
	}
	if err != nil {
		return nil, classify("my boards", err)
	}
	return boards, nil
}

func (svc *Service) Stats(ctx context.Context) (model.BoardStats, model.UserStats, error) {
	var (
		bs  model.BoardStats
		us  model.UserStats
		err error
	)
	boards := svc.repo.Boards()
	users := svc.repo.Users()

	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&bs.Total, func() (int64, error) { return boards.CountAll(ctx) }},
		{&bs.Notices, func() (int64, error) { return boards.CountByRole(ctx, model.RoleAdmin) }},
		{&bs.Greeting, func() (int64, error) {
			return boards.CountByCategoryExcludeRole(ctx, model.CategoryGreeting, model.RoleAdmin, model.BoardSearch{})
		}},
		{&bs.Free, func() (int64, error) {
			return boards.CountByCategoryExcludeRole(ctx, model.CategoryFree, model.RoleAdmin, model.BoardSearch{})
		}},
		{&bs.Gold, func() (int64, error) {
			return boards.CountByCategoryExcludeRole(ctx, model.CategoryGold, model.RoleAdmin, model.BoardSearch{})
		}},
		{&us.Active, func() (int64, error) { return users.CountActive(ctx) }},
		{&us.Bronze, func() (int64, error) { return users.CountByRole(ctx, model.RoleBronze) }},
		{&us.Silver, func() (int64, error) { return users.CountByRole(ctx, model.RoleSilver) }},
		{&us.Gold, func() (int64, error) { return users.CountByRole(ctx, model.RoleGold) }},
		{&us.Admin, func() (int64, error) { return users.CountByRole(ctx, model.RoleAdmin) }},
		{&us.Blacklist, func() (int64, error) { return users.CountByRole(ctx, model.RoleBlacklist) }},
	}
	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return model.BoardStats{}, model.UserStats{}, classify("stats", err)
		}
	}
	return bs, us, nil
}

// BoardImageURL returns a short-lived link to the board's image.
func (svc *Service) BoardImageURL(ctx context.Context, actorID, boardID int64) (*url.URL, error) {
	meta, err := svc.repo.Boards().FindMeta(ctx, boardID)
	if err != nil {
		return nil, classify("board image", err)
	}
	if err := svc.canRead(ctx, actorID, meta.Category); err != nil {
		return nil, classify("board image", err)
	}
	if meta.ImageID == nil {
		return nil, classify("board image", repository.ErrNotFound)
	}
	img, err := svc.repo.Images().FindByID(ctx, *meta.ImageID)
	if err != nil {
		return nil, classify("board image", err)
	}
	u, err := svc.images.URL(ctx, img.ObjectKey)
	if err != nil {
		return nil, classify("board image", err)
	}
	return u, nil
}
