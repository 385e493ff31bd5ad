package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
)

type commentStore struct {
	q sqlx.ExtContext
}

type commentRow struct {
	ID             int64  `db:"id"`
	BoardID        int64  `db:"board_id"`
	OwnerID        int64  `db:"user_id"`
	OwnerNickname  string `db:"nickname"`
	Body           string `db:"body"`
	CreatedAt      int64  `db:"created_at"`
	LastModifiedAt int64  `db:"last_modified_at"`
}

func (s commentStore) FindMeta(ctx context.Context, id int64) (model.CommentMeta, error) {
	var row struct {
		OwnerID     int64            `db:"user_id"`
		OwnerStatus model.UserStatus `db:"status"`
		BoardID     int64            `db:"board_id"`
	}
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT c.user_id, u.status, c.board_id
		 FROM comments c JOIN users u ON u.id = c.user_id WHERE c.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CommentMeta{}, repository.ErrNotFound
		}
		return model.CommentMeta{}, fmt.Errorf("find comment meta: %w", err)
	}
	return model.CommentMeta{OwnerID: row.OwnerID, OwnerStatus: row.OwnerStatus, BoardID: row.BoardID}, nil
}

func (s commentStore) Insert(ctx context.Context, c *model.Comment) error {
	err := s.q.QueryRowxContext(ctx,
		`INSERT INTO comments (board_id, user_id, body, created_at, last_modified_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.BoardID, c.OwnerID, c.Body, toMillis(c.CreatedAt), toMillis(c.LastModifiedAt),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s commentStore) UpdateBody(ctx context.Context, id int64, body string, at time.Time) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE comments SET body = $1, last_modified_at = $2 WHERE id = $3", body, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
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

func (s commentStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
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

func (s commentStore) ListByBoard(ctx context.Context, boardID int64) ([]model.Comment, error) {
	var rows []commentRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT c.id, c.board_id, c.user_id, u.nickname, c.body, c.created_at, c.last_modified_at
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.board_id = $1 ORDER BY c.id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	comments := make([]model.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, model.Comment{
			ID:             r.ID,
			BoardID:        r.BoardID,
			OwnerID:        r.OwnerID,
			OwnerNickname:  r.OwnerNickname,
			Body:           r.Body,
			CreatedAt:      fromMillis(r.CreatedAt),
			LastModifiedAt: fromMillis(r.LastModifiedAt),
		})
	}
	return comments, nil
}

func (s commentStore) TallyByAuthor(ctx context.Context, userID int64) ([]model.BoardTally, error) {
	var rows []struct {
		BoardID int64 `db:"board_id"`
		Count   int64 `db:"cnt"`
	}
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT c.board_id, COUNT(*) AS cnt
		 FROM comments c JOIN boards b ON b.id = c.board_id
		 WHERE c.user_id = $1 GROUP BY c.board_id ORDER BY c.board_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("tally comments: %w", err)
	}
	tallies := make([]model.BoardTally, 0, len(rows))
	for _, r := range rows {
		tallies = append(tallies, model.BoardTally{BoardID: r.BoardID, Count: r.Count})
	}
	return tallies, nil
}

func (s commentStore) DeleteByBoard(ctx context.Context, boardID int64) (int64, error) {
	res, err := s.q.ExecContext(ctx, "DELETE FROM comments WHERE board_id = $1", boardID)
	if err != nil {
		return 0, fmt.Errorf("delete board comments: %w", err)
	}
	return affected(res)
}
