package main

import (
	"os"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/app"
	"github.com/gfdmit/tierboard/internal/log"
)

func main() {
	conf, err := config.New(".env")
	if err != nil {
		log.Error.Fatalf("[SETUP ERROR] error when reading config: %v", err)
	}

	if err := app.Run(*conf); err != nil {
		log.Error.Printf("[APPLICATION ERROR] error: %v", err)
		os.Exit(1)
	}

	log.Info.Println("[SHUTDOWN] service shut down gracefully")
}
