package v1

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gfdmit/tierboard/internal/handlers/http/httperr"
	gql "github.com/gfdmit/tierboard/internal/handlers/http/v1/graphql"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/service"
)

const maxImageSize = 10 << 20

type boardHandler struct {
	svc *service.Service
}

func abort(c *gin.Context, err error) {
	code, msg := httperr.Status(err)
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// boardForm reads title, body and an optional "image" file from a
// multipart form.
func boardForm(c *gin.Context) (service.BoardInput, bool) {
	category, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		badRequest(c, "unknown category")
		return service.BoardInput{}, false
	}
	in := service.BoardInput{
		Category: category,
		Title:    c.PostForm("title"),
		Body:     c.PostForm("body"),
	}

	file, header, err := c.Request.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, true
	}
	if err != nil {
		badRequest(c, "could not read upload")
		return service.BoardInput{}, false
	}
	defer file.Close()
	if header.Size > maxImageSize {
		badRequest(c, "image too large")
		return service.BoardInput{}, false
	}
	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		badRequest(c, "could not read upload")
		return service.BoardInput{}, false
	}
	in.Image = &model.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}
	return in, true
}

func (h *boardHandler) writeBoard(c *gin.Context) {
	in, ok := boardForm(c)
	if !ok {
		return
	}
	board, err := h.svc.WriteBoard(c.Request.Context(), gql.ActorFrom(c.Request.Context()), in)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gql.NewBoardView(board))
}

func (h *boardHandler) editBoard(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	in, ok := boardForm(c)
	if !ok {
		return
	}
	board, err := h.svc.EditBoard(c.Request.Context(), gql.ActorFrom(c.Request.Context()), id, in)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gql.NewBoardView(board))
}

func (h *boardHandler) boardImage(c *gin.Context) {
	category, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		badRequest(c, "unknown category")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	ctx := c.Request.Context()
	actorID := gql.ActorFrom(ctx)
	if _, err := h.svc.ReadBoard(ctx, actorID, category, id); err != nil {
		abort(c, err)
		return
	}
	u, err := h.svc.BoardImageURL(ctx, actorID, id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u.String()})
}
