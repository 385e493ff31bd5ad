package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gfdmit/tierboard/internal/log"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/jpg":  true,
}

func validateImage(upload *model.ImageUpload) error {
	if upload.Empty() {
		return nil
	}
	v := validation{}
	v.check(allowedImageTypes[upload.ContentType], "image", "invalid file type")
	return v.err()
}

func objectKey(filename string) string {
	return fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(filename))
}

// attachImage uploads the file and links it to the board. A failure is
// logged and leaves the board without an image.
func (svc *Service) attachImage(ctx context.Context, boardID int64, upload *model.ImageUpload) *int64 {
	key := objectKey(upload.Filename)
	size := int64(len(upload.Data))
	if err := svc.images.Put(ctx, key, bytes.NewReader(upload.Data), size, upload.ContentType); err != nil {
		log.Warn.Printf("[IMAGE] upload for board %d failed: %v", boardID, err)
		return nil
	}

	img := model.Image{
		OriginalFilename: upload.Filename,
		ObjectKey:        key,
		ContentType:      upload.ContentType,
		Size:             size,
		CreatedAt:        svc.now(),
	}
	err := svc.repo.WithinTx(ctx, func(tx repository.Stores) error {
		if err := tx.Images().Insert(ctx, &img); err != nil {
			return err
		}
		return tx.Boards().UpdateImageID(ctx, boardID, &img.ID)
	})
	if err != nil {
		log.Warn.Printf("[IMAGE] linking %s to board %d failed: %v", key, boardID, err)
		svc.removeObject(ctx, key)
		return nil
	}
	return &img.ID
}

func (svc *Service) removeObject(ctx context.Context, key string) {
	if err := svc.images.Remove(ctx, key); err != nil {
		log.Warn.Printf("[IMAGE] could not remove %s: %v", key, err)
	}
}

// detachImage unlinks and deletes the board's image record and returns its
// object key. The object itself is left to the caller.
func detachImage(ctx context.Context, tx repository.Stores, boardID, imageID int64) (string, error) {
	img, err := tx.Images().FindByID(ctx, imageID)
	if err != nil {
		return "", err
	}
	if err := tx.Boards().UpdateImageID(ctx, boardID, nil); err != nil {
		return "", err
	}
	if err := tx.Images().Delete(ctx, imageID); err != nil {
		return "", err
	}
	return img.ObjectKey, nil
}
