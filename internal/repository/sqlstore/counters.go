package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gfdmit/tierboard/internal/repository"
)

type counterStore struct {
	q sqlx.ExtContext
}

func (s counterStore) AddBoardLikes(ctx context.Context, boardID, delta int64) (bool, error) {
	return s.add(ctx, "boards", "like_cnt", boardID, delta)
}

func (s counterStore) AddBoardComments(ctx context.Context, boardID, delta int64) (bool, error) {
	return s.add(ctx, "boards", "comment_cnt", boardID, delta)
}

func (s counterStore) AddReceivedLikes(ctx context.Context, userID, delta int64) (bool, error) {
	return s.add(ctx, "users", "received_like_cnt", userID, delta)
}

// add applies delta in place. When the result would be negative the guarded
// update matches nothing and the column is floored at zero instead.
func (s counterStore) add(ctx context.Context, table, column string, id, delta int64) (bool, error) {
	res, err := s.q.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %[1]s SET %[2]s = %[2]s + $1 WHERE id = $2 AND %[2]s + $1 >= 0", table, column),
		delta, id)
	if err != nil {
		return false, fmt.Errorf("update %s.%s: %w", table, column, err)
	}
	n, err := affected(res)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	res, err = s.q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET %s = 0 WHERE id = $1", table, column), id)
	if err != nil {
		return false, fmt.Errorf("floor %s.%s: %w", table, column, err)
	}
	if n, err = affected(res); err != nil {
		return false, err
	}
	if n == 0 {
		return false, repository.ErrNotFound
	}
	return true, nil
}
