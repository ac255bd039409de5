package main

import (
	"log"

	"tableflip.dev/planner/pkg/commands"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("planner: ")
	if err := commands.New().Execute(); err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}
