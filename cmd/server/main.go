package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/soffa-projects/go-webstack/app"
	"github.com/soffa-projects/go-webstack/config"
)

func main() {
	cfg := config.Load()
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start application: %v", err)
	}
	application.Run()
}
