package model

import "time"

type User struct {
	ID              int64
	LoginID         string
	Nickname        string
	PasswordHash    string
	Role            Role
	Status          UserStatus
	ReceivedLikeCnt int64
	CreatedAt       time.Time
}

func (u User) Active() bool { return u.Status == StatusActive }

type Board struct {
	ID             int64
	Category       Category
	OwnerID        int64
	OwnerNickname  string
	OwnerRole      Role
	Title          string
	Body           string
	LikeCnt        int64
	CommentCnt     int64
	ImageID        *int64
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// BoardMeta is everything edit and delete need to decide and roll back,
// read in one query.
type BoardMeta struct {
	OwnerID  int64
	Category Category
	LikeCnt  int64
	ImageID  *int64
}

type Comment struct {
	ID             int64
	BoardID        int64
	OwnerID        int64
	OwnerNickname  string
	Body           string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// CommentMeta carries the author's status so a delete can tell whether the
// comment is still counted on its board.
type CommentMeta struct {
	OwnerID     int64
	OwnerStatus UserStatus
	BoardID     int64
}

type Like struct {
	UserID    int64
	BoardID   int64
	CreatedAt time.Time
}

// BoardTally counts rows a user contributed to one board.
type BoardTally struct {
	BoardID int64
	Count   int64
}

type Image struct {
	ID               int64
	OriginalFilename string
	ObjectKey        string
	ContentType      string
	Size             int64
	CreatedAt        time.Time
}

// ImageUpload is an image file on its way into the ImageStore.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

func (u *ImageUpload) Empty() bool { return u == nil || len(u.Data) == 0 }

type BoardStats struct {
	Total    int64
	Notices  int64
	Greeting int64
	Free     int64
	Gold     int64
}

type UserStats struct {
	Active    int64
	Bronze    int64
	Silver    int64
	Gold      int64
	Admin     int64
	Blacklist int64
}
