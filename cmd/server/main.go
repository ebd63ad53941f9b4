package main

import (
	"log"

	"pixelboard/internal/config"
	"pixelboard/internal/server"
)

func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
