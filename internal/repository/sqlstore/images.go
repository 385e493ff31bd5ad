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

type imageStore struct {
	q sqlx.ExtContext
}

type imageRow struct {
	ID               int64  `db:"id"`
	OriginalFilename string `db:"original_filename"`
	ObjectKey        string `db:"object_key"`
	ContentType      string `db:"content_type"`
	Size             int64  `db:"size"`
	CreatedAt        int64  `db:"created_at"`
}

func (s imageStore) Insert(ctx context.Context, img *model.Image) error {
	err := s.q.QueryRowxContext(ctx,
		`INSERT INTO images (original_filename, object_key, content_type, size, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		img.OriginalFilename, img.ObjectKey, img.ContentType, img.Size, toMillis(img.CreatedAt),
	).Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (s imageStore) FindByID(ctx context.Context, id int64) (model.Image, error) {
	var row imageRow
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT id, original_filename, object_key, content_type, size, created_at FROM images WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Image{}, repository.ErrNotFound
		}
		return model.Image{}, fmt.Errorf("find image: %w", err)
	}
	return model.Image{
		ID:               row.ID,
		OriginalFilename: row.OriginalFilename,
		ObjectKey:        row.ObjectKey,
		ContentType:      row.ContentType,
		Size:             row.Size,
		CreatedAt:        fromMillis(row.CreatedAt),
	}, nil
}

func (s imageStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM images WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
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
