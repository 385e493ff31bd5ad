package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type likeStore struct {
	q sqlx.ExtContext
}

func (s likeStore) Exists(ctx context.Context, userID, boardID int64) (bool, error) {
	var n int64
	err := sqlx.GetContext(ctx, s.q, &n,
		"SELECT COUNT(*) FROM likes WHERE user_id = $1 AND board_id = $2", userID, boardID)
	if err != nil {
		return false, fmt.Errorf("find like: %w", err)
	}
	return n > 0, nil
}

func (s likeStore) Insert(ctx context.Context, userID, boardID int64, at time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO likes (user_id, board_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, board_id) DO NOTHING`,
		userID, boardID, toMillis(at))
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	n, err := affected(res)
	return n > 0, err
}

func (s likeStore) Delete(ctx context.Context, userID, boardID int64) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		"DELETE FROM likes WHERE user_id = $1 AND board_id = $2", userID, boardID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	n, err := affected(res)
	return n > 0, err
}

func (s likeStore) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	var boardIDs []int64
	err := sqlx.SelectContext(ctx, s.q, &boardIDs,
		"DELETE FROM likes WHERE user_id = $1 RETURNING board_id", userID)
	if err != nil {
		return nil, fmt.Errorf("delete user likes: %w", err)
	}
	return boardIDs, nil
}

func (s likeStore) DeleteByBoard(ctx context.Context, boardID int64) (int64, error) {
	res, err := s.q.ExecContext(ctx, "DELETE FROM likes WHERE board_id = $1", boardID)
	if err != nil {
		return 0, fmt.Errorf("delete board likes: %w", err)
	}
	return affected(res)
}
