package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds the process-wide structured logger. Development mode is keyed
// off APP_ENV so local runs get console output while deployments get JSON.
func New() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
