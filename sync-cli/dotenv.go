package synccli

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// LoadDotEnv loads .env.local, falling back to .env, into the process
// environment. Variables already set are left alone. Missing files are not an
// error; production deployments configure the environment directly.
func LoadDotEnv(logger zerolog.Logger) {
	if err := godotenv.Load(".env.local"); err == nil {
		logger.Debug().Str("file", ".env.local").Msg("loaded environment")
		return
	}
	if err := godotenv.Load(); err == nil {
		logger.Debug().Str("file", ".env").Msg("loaded environment")
		return
	}
	logger.Debug().Msg("no .env file found, using process environment")
}
