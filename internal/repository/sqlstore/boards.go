package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
)

type boardStore struct {
	q sqlx.ExtContext
}

type boardRow struct {
	ID             int64          `db:"id"`
	Category       model.Category `db:"category"`
	OwnerID        int64          `db:"user_id"`
	OwnerNickname  string         `db:"nickname"`
	OwnerRole      model.Role     `db:"role"`
	Title          string         `db:"title"`
	Body           string         `db:"body"`
	LikeCnt        int64          `db:"like_cnt"`
	CommentCnt     int64          `db:"comment_cnt"`
	ImageID        sql.NullInt64  `db:"image_id"`
	CreatedAt      int64          `db:"created_at"`
	LastModifiedAt int64          `db:"last_modified_at"`
}

func (r boardRow) toModel() model.Board {
	return model.Board{
		ID:             r.ID,
		Category:       r.Category,
		OwnerID:        r.OwnerID,
		OwnerNickname:  r.OwnerNickname,
		OwnerRole:      r.OwnerRole,
		Title:          r.Title,
		Body:           r.Body,
		LikeCnt:        r.LikeCnt,
		CommentCnt:     r.CommentCnt,
		ImageID:        nullableID(r.ImageID),
		CreatedAt:      fromMillis(r.CreatedAt),
		LastModifiedAt: fromMillis(r.LastModifiedAt),
	}
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func idOrNull(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

const boardSelect = `SELECT b.id, b.category, b.user_id, u.nickname, u.role, b.title, b.body,
	b.like_cnt, b.comment_cnt, b.image_id, b.created_at, b.last_modified_at
	FROM boards b JOIN users u ON u.id = b.user_id `

func (s boardStore) list(ctx context.Context, query string, args ...any) ([]model.Board, error) {
	var rows []boardRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, boardSelect+query, args...); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	boards := make([]model.Board, 0, len(rows))
	for _, r := range rows {
		boards = append(boards, r.toModel())
	}
	return boards, nil
}

func (s boardStore) FindByID(ctx context.Context, id int64) (model.Board, error) {
	var row boardRow
	err := sqlx.GetContext(ctx, s.q, &row, boardSelect+"WHERE b.id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Board{}, repository.ErrNotFound
		}
		return model.Board{}, fmt.Errorf("find board: %w", err)
	}
	return row.toModel(), nil
}

type metaRow struct {
	OwnerID  int64          `db:"user_id"`
	Category model.Category `db:"category"`
	LikeCnt  int64          `db:"like_cnt"`
	ImageID  sql.NullInt64  `db:"image_id"`
}

func (s boardStore) meta(ctx context.Context, query string, id int64) (model.BoardMeta, error) {
	var row metaRow
	if err := sqlx.GetContext(ctx, s.q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BoardMeta{}, repository.ErrNotFound
		}
		return model.BoardMeta{}, fmt.Errorf("find board meta: %w", err)
	}
	return model.BoardMeta{
		OwnerID:  row.OwnerID,
		Category: row.Category,
		LikeCnt:  row.LikeCnt,
		ImageID:  nullableID(row.ImageID),
	}, nil
}

func (s boardStore) FindMeta(ctx context.Context, id int64) (model.BoardMeta, error) {
	return s.meta(ctx, "SELECT user_id, category, like_cnt, image_id FROM boards WHERE id = $1", id)
}

// LockMeta writes the row onto itself. Postgres holds the row lock until the
// transaction ends and returns the latest committed counters; SQLite has a
// single writer already.
func (s boardStore) LockMeta(ctx context.Context, id int64) (model.BoardMeta, error) {
	return s.meta(ctx,
		"UPDATE boards SET like_cnt = like_cnt WHERE id = $1 RETURNING user_id, category, like_cnt, image_id", id)
}

func (s boardStore) Insert(ctx context.Context, b *model.Board) error {
	err := s.q.QueryRowxContext(ctx,
		`INSERT INTO boards (category, user_id, title, body, like_cnt, comment_cnt, image_id, created_at, last_modified_at)
		 VALUES ($1, $2, $3, $4, 0, 0, $5, $6, $7) RETURNING id`,
		b.Category, b.OwnerID, b.Title, b.Body, idOrNull(b.ImageID), toMillis(b.CreatedAt), toMillis(b.LastModifiedAt),
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	b.LikeCnt, b.CommentCnt = 0, 0
	return nil
}

func (s boardStore) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s boardStore) UpdateContent(ctx context.Context, id int64, title, body string, at time.Time) error {
	return s.exec(ctx, "update board",
		"UPDATE boards SET title = $1, body = $2, last_modified_at = $3 WHERE id = $4",
		title, body, toMillis(at), id)
}

func (s boardStore) UpdateImageID(ctx context.Context, id int64, imageID *int64) error {
	return s.exec(ctx, "update board image",
		"UPDATE boards SET image_id = $1 WHERE id = $2", idOrNull(imageID), id)
}

func (s boardStore) Delete(ctx context.Context, id int64) error {
	return s.exec(ctx, "delete board", "DELETE FROM boards WHERE id = $1", id)
}

var searchColumns = map[model.SearchField]string{
	model.SearchTitle:    "b.title",
	model.SearchBody:     "b.body",
	model.SearchNickname: "u.nickname",
}

// categoryFilter is the WHERE clause shared by a category listing and its
// count. The keyword is bound as $3 when the search is active.
func categoryFilter(category model.Category, excludeRole model.Role, search model.BoardSearch) (string, []any) {
	where := "WHERE b.category = $1 AND u.role <> $2"
	args := []any{category, excludeRole}
	if column, ok := searchColumns[search.Field]; ok && search.Active() {
		where += " AND LOWER(" + column + `) LIKE LOWER($3) ESCAPE '\'`
		args = append(args, containsPattern(strings.TrimSpace(search.Keyword)))
	}
	return where, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

func (s boardStore) ListByCategory(ctx context.Context, category model.Category, excludeRole model.Role, search model.BoardSearch, limit, offset int) ([]model.Board, error) {
	where, args := categoryFilter(category, excludeRole, search)
	n := len(args)
	return s.list(ctx, fmt.Sprintf("%s ORDER BY b.id DESC LIMIT $%d OFFSET $%d", where, n+1, n+2),
		append(args, limit, offset)...)
}

func (s boardStore) ListByCategoryAndRole(ctx context.Context, category model.Category, role model.Role) ([]model.Board, error) {
	return s.list(ctx, "WHERE b.category = $1 AND u.role = $2 ORDER BY b.id DESC", category, role)
}

func (s boardStore) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, s.q, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count boards: %w", err)
	}
	return n, nil
}

func (s boardStore) CountAll(ctx context.Context) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM boards")
}

func (s boardStore) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	return s.count(ctx,
		"SELECT COUNT(*) FROM boards b JOIN users u ON u.id = b.user_id WHERE u.role = $1", role)
}

func (s boardStore) CountByCategoryExcludeRole(ctx context.Context, category model.Category, excludeRole model.Role, search model.BoardSearch) (int64, error) {
	where, args := categoryFilter(category, excludeRole, search)
	return s.count(ctx, "SELECT COUNT(*) FROM boards b JOIN users u ON u.id = b.user_id "+where, args...)
}

func (s boardStore) ListByOwner(ctx context.Context, userID int64) ([]model.Board, error) {
	return s.list(ctx, "WHERE b.user_id = $1 ORDER BY b.id DESC", userID)
}

func (s boardStore) ListLikedBy(ctx context.Context, userID int64) ([]model.Board, error) {
	return s.list(ctx,
		"WHERE b.id IN (SELECT board_id FROM likes WHERE user_id = $1) ORDER BY b.id DESC", userID)
}

func (s boardStore) ListCommentedBy(ctx context.Context, userID int64) ([]model.Board, error) {
	return s.list(ctx,
		"WHERE b.id IN (SELECT board_id FROM comments WHERE user_id = $1) ORDER BY b.id DESC", userID)
}
