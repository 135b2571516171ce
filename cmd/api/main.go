package main

import (
	"os"

	"github.com/yigit/careportal/internal/pkg/logger"
	"github.com/yigit/careportal/internal/server"
)

// @title CARE Center API
// @version 1.0
// @description Admissions activation and counseling request workflow for the CARE Center.

// @contact.name CARE Center

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until a shutdown signal.
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
