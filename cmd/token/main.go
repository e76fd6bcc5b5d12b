// Command token mints a development JWT scoped to a user key.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinpilot/configs"
	"coinpilot/internal/middleware"
)

func main() {
	userKey := flag.String("user", "", "user key to embed in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_TTL)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *userKey == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := configs.Load()
	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := middleware.GenerateJWT(cfg.Auth.JWTSecret, *userKey, lifetime)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate token")
	}

	log.Info().Str("user", *userKey).Str("expires", time.Now().Add(lifetime).Format(time.RFC3339)).Msg("Token generated")
	fmt.Println(token)
}
