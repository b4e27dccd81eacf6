package main

import (
	"necromancer/cmd/handlers"
	"necromancer/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
