package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
)

type userStore struct {
	q sqlx.ExtContext
}

type userRow struct {
	ID              int64            `db:"id"`
	LoginID         string           `db:"login_id"`
	Nickname        string           `db:"nickname"`
	PasswordHash    string           `db:"password_hash"`
	Role            model.Role       `db:"role"`
	Status          model.UserStatus `db:"status"`
	ReceivedLikeCnt int64            `db:"received_like_cnt"`
	CreatedAt       int64            `db:"created_at"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:              r.ID,
		LoginID:         r.LoginID,
		Nickname:        r.Nickname,
		PasswordHash:    r.PasswordHash,
		Role:            r.Role,
		Status:          r.Status,
		ReceivedLikeCnt: r.ReceivedLikeCnt,
		CreatedAt:       fromMillis(r.CreatedAt),
	}
}

const userColumns = `id, login_id, nickname, password_hash, role, status, received_like_cnt, created_at`

func (s userStore) find(ctx context.Context, where string, arg any) (model.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, s.q, &row, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return row.toModel(), nil
}

func (s userStore) FindByID(ctx context.Context, id int64) (model.User, error) {
	return s.find(ctx, "id = $1", id)
}

func (s userStore) FindByLoginID(ctx context.Context, loginID string) (model.User, error) {
	return s.find(ctx, "login_id = $1", loginID)
}

func (s userStore) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, s.q, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s userStore) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	n, err := s.count(ctx, "SELECT COUNT(*) FROM users WHERE login_id = $1", loginID)
	return n > 0, err
}

func (s userStore) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	n, err := s.count(ctx, "SELECT COUNT(*) FROM users WHERE nickname = $1", nickname)
	return n > 0, err
}

func (s userStore) Insert(ctx context.Context, u *model.User) error {
	err := s.q.QueryRowxContext(ctx,
		`INSERT INTO users (login_id, nickname, password_hash, role, status, received_like_cnt, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.LoginID, u.Nickname, u.PasswordHash, u.Role, u.Status, u.ReceivedLikeCnt, toMillis(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s userStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
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

func (s userStore) SwapRole(ctx context.Context, id int64, from, to model.Role) (bool, error) {
	err := s.exec(ctx, "UPDATE users SET role = $1 WHERE id = $2 AND role = $3", to, id, from)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s userStore) UpdateStatus(ctx context.Context, id int64, status model.UserStatus) error {
	return s.exec(ctx, "UPDATE users SET status = $1 WHERE id = $2", status, id)
}

func (s userStore) UpdateProfile(ctx context.Context, id int64, nickname, passwordHash string) error {
	err := s.exec(ctx, "UPDATE users SET nickname = $1, password_hash = $2 WHERE id = $3", nickname, passwordHash, id)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (s userStore) CountActive(ctx context.Context) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM users WHERE status = $1", model.StatusActive)
}

func (s userStore) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM users WHERE role = $1 AND status = $2", role, model.StatusActive)
}

const nicknameFilter = `WHERE status = $1 AND role <> $2 AND LOWER(nickname) LIKE LOWER($3) ESCAPE '\'`

func (s userStore) SearchByNickname(ctx context.Context, keyword string, excludeRole model.Role, limit, offset int) ([]model.User, error) {
	var rows []userRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		"SELECT "+userColumns+" FROM users "+nicknameFilter+" ORDER BY id LIMIT $4 OFFSET $5",
		model.StatusActive, excludeRole, containsPattern(keyword), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

func (s userStore) CountByNickname(ctx context.Context, keyword string, excludeRole model.Role) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM users "+nicknameFilter,
		model.StatusActive, excludeRole, containsPattern(keyword))
}
