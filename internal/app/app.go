package app

import (
	"context"
	"fmt"

	"github.com/gfdmit/tierboard/config"
	v1 "github.com/gfdmit/tierboard/internal/handlers/http/v1"
	"github.com/gfdmit/tierboard/internal/httpserver"
	"github.com/gfdmit/tierboard/internal/log"
	"github.com/gfdmit/tierboard/internal/repository/minio"
	"github.com/gfdmit/tierboard/internal/repository/sqlstore"
	"github.com/gfdmit/tierboard/internal/service"
)

func Run(conf config.Config) error {
	ctx := context.Background()

	store, err := sqlstore.New(conf.Database)
	if err != nil {
		return fmt.Errorf("error when setting up repository: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn.Printf("[SHUTDOWN] closing database: %v", err)
		}
	}()

	images, err := minio.New(conf.MinIO)
	if err != nil {
		return fmt.Errorf("error when setting up image store: %v", err)
	}

	service := service.New(store, images, conf.Board)

	handler, err := v1.New(service)
	if err != nil {
		return fmt.Errorf("error when setting up handler: %v", err)
	}

	httpserver := httpserver.New(conf.HTTPServer, handler)

	return httpserver.Run(ctx)
}
