package graphql

import (
	"strconv"
	"time"

	"github.com/gfdmit/tierboard/internal/model"
)

type BoardView struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	OwnerID        string    `json:"ownerId"`
	OwnerNickname  string    `json:"ownerNickname"`
	OwnerRole      string    `json:"ownerRole"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	LikeCnt        int64     `json:"likeCnt"`
	CommentCnt     int64     `json:"commentCnt"`
	HasImage       bool      `json:"hasImage"`
	CreatedAt      time.Time `json:"createdAt"`
	LastModifiedAt time.Time `json:"lastModifiedAt"`
}

func NewBoardView(b model.Board) BoardView {
	return BoardView{
		ID:             formatID(b.ID),
		Category:       b.Category.String(),
		OwnerID:        formatID(b.OwnerID),
		OwnerNickname:  b.OwnerNickname,
		OwnerRole:      b.OwnerRole.String(),
		Title:          b.Title,
		Body:           b.Body,
		LikeCnt:        b.LikeCnt,
		CommentCnt:     b.CommentCnt,
		HasImage:       b.ImageID != nil,
		CreatedAt:      b.CreatedAt,
		LastModifiedAt: b.LastModifiedAt,
	}
}

func boardViews(boards []model.Board) []BoardView {
	out := make([]BoardView, 0, len(boards))
	for _, b := range boards {
		out = append(out, NewBoardView(b))
	}
	return out
}

type boardPage struct {
	Items []BoardView `json:"items"`
	Total int64       `json:"total"`
}

type commentView struct {
	ID             string    `json:"id"`
	BoardID        string    `json:"boardId"`
	OwnerID        string    `json:"ownerId"`
	OwnerNickname  string    `json:"ownerNickname"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
	LastModifiedAt time.Time `json:"lastModifiedAt"`
}

func newCommentView(c model.Comment) commentView {
	return commentView{
		ID:             formatID(c.ID),
		BoardID:        formatID(c.BoardID),
		OwnerID:        formatID(c.OwnerID),
		OwnerNickname:  c.OwnerNickname,
		Body:           c.Body,
		CreatedAt:      c.CreatedAt,
		LastModifiedAt: c.LastModifiedAt,
	}
}

type userView struct {
	ID              string    `json:"id"`
	LoginID         string    `json:"loginId"`
	Nickname        string    `json:"nickname"`
	Role            string    `json:"role"`
	ReceivedLikeCnt int64     `json:"receivedLikeCnt"`
	CreatedAt       time.Time `json:"createdAt"`
}

func newUserView(u model.User) userView {
	return userView{
		ID:              formatID(u.ID),
		LoginID:         u.LoginID,
		Nickname:        u.Nickname,
		Role:            u.Role.String(),
		ReceivedLikeCnt: u.ReceivedLikeCnt,
		CreatedAt:       u.CreatedAt,
	}
}

type userPage struct {
	Items []userView `json:"items"`
	Total int64      `json:"total"`
}

type statsView struct {
	Boards model.BoardStats `json:"boards"`
	Users  model.UserStats  `json:"users"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
