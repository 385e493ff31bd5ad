package repository

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/gfdmit/tierboard/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrConflict means a concurrent transaction changed the row first.
	ErrConflict  = errors.New("conflict")
)

// Stores is the set of row stores bound to one executor: either the pool or
// a single transaction.
type Stores interface {
	Users() UserStore
	Boards() BoardStore
	Comments() CommentStore
	Likes() LikeStore
	Images() ImageRecordStore
	Counters() CounterStore
}

// Repository runs reads on the pool and multi-step writes in WithinTx. The
// transaction commits when fn returns nil and rolls back otherwise.
type Repository interface {
	Stores
	WithinTx(ctx context.Context, fn func(tx Stores) error) error
	Close() error
}

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByLoginID(ctx context.Context, loginID string) (model.User, error)
	ExistsByLoginID(ctx context.Context, loginID string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Insert(ctx context.Context, u *model.User) error
	// SwapRole sets role to `to` only while it is still `from`. It reports
	// false when the stored role was something else.
	SwapRole(ctx context.Context, id int64, from, to model.Role) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status model.UserStatus) error
	UpdateProfile(ctx context.Context, id int64, nickname, passwordHash string) error
	CountActive(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
	// SearchByNickname pages through active users whose nickname contains
	// keyword, leaving out excludeRole.
	SearchByNickname(ctx context.Context, keyword string, excludeRole model.Role, limit, offset int) ([]model.User, error)
	CountByNickname(ctx context.Context, keyword string, excludeRole model.Role) (int64, error)
}

type BoardStore interface {
	FindByID(ctx context.Context, id int64) (model.Board, error)
	FindMeta(ctx context.Context, id int64) (model.BoardMeta, error)
	// LockMeta is FindMeta that also holds the board row until the
	// transaction ends. Counter updates from other transactions wait for it.
	LockMeta(ctx context.Context, id int64) (model.BoardMeta, error)
	Insert(ctx context.Context, b *model.Board) error
	UpdateContent(ctx context.Context, id int64, title, body string, at time.Time) error
	UpdateImageID(ctx context.Context, id int64, imageID *int64) error
	Delete(ctx context.Context, id int64) error
	// ListByCategory pages through a category leaving out boards whose
	// author holds excludeRole. An inactive search matches every board.
	ListByCategory(ctx context.Context, category model.Category, excludeRole model.Role, search model.BoardSearch, limit, offset int) ([]model.Board, error)
	ListByCategoryAndRole(ctx context.Context, category model.Category, role model.Role) ([]model.Board, error)
	CountAll(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
	CountByCategoryExcludeRole(ctx context.Context, category model.Category, excludeRole model.Role, search model.BoardSearch) (int64, error)
	ListByOwner(ctx context.Context, userID int64) ([]model.Board, error)
	ListLikedBy(ctx context.Context, userID int64) ([]model.Board, error)
	ListCommentedBy(ctx context.Context, userID int64) ([]model.Board, error)
}

type CommentStore interface {
	FindMeta(ctx context.Context, id int64) (model.CommentMeta, error)
	Insert(ctx context.Context, c *model.Comment) error
	UpdateBody(ctx context.Context, id int64, body string, at time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByBoard(ctx context.Context, boardID int64) ([]model.Comment, error)
	// TallyByAuthor counts the user's comments per board, for boards that
	// still exist.
	TallyByAuthor(ctx context.Context, userID int64) ([]model.BoardTally, error)
	DeleteByBoard(ctx context.Context, boardID int64) (int64, error)
}

// LikeStore is unique on (userID, boardID).
type LikeStore interface {
	Exists(ctx context.Context, userID, boardID int64) (bool, error)
	// Insert reports false when the pair already exists.
	Insert(ctx context.Context, userID, boardID int64, at time.Time) (bool, error)
	// Delete reports false when there was nothing to delete.
	Delete(ctx context.Context, userID, boardID int64) (bool, error)
	// DeleteByUser removes every like the user gave and returns the board
	// ids of the rows it actually deleted.
	DeleteByUser(ctx context.Context, userID int64) ([]int64, error)
	DeleteByBoard(ctx context.Context, boardID int64) (int64, error)
}

type ImageRecordStore interface {
	Insert(ctx context.Context, img *model.Image) error
	FindByID(ctx context.Context, id int64) (model.Image, error)
	Delete(ctx context.Context, id int64) error
}

// CounterStore holds the storage-level atomic counter updates. Each call
// is one UPDATE statement; a delta that would go below zero stores zero and
// reports clamped. ErrNotFound means the row is gone.
type CounterStore interface {
	AddBoardLikes(ctx context.Context, boardID, delta int64) (clamped bool, err error)
	AddBoardComments(ctx context.Context, boardID, delta int64) (clamped bool, err error)
	AddReceivedLikes(ctx context.Context, userID, delta int64) (clamped bool, err error)
}

// ImageStore keeps image bytes outside the database.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (*url.URL, error)
}
