package main

import (
	"log"

	"jeeforces/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatalf("jeeforces: %v", err)
	}
}
