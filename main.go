package main

import (
	"chatcal-api/core/logger"
	"chatcal-api/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
	}
}
