package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "imagedrop"

func New(environment string) zerolog.Logger {
	zerolog.SetGlobalLevel(levelFor(environment))

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	return zerolog.New(output).With().
		Timestamp().
		Str("service", serviceName).
		Str("env", environment).
		Logger()
}

func levelFor(environment string) zerolog.Level {
	if environment == "production" {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}
