// Command gymbuddy-token mints a client JWT signed with JWT_SECRET.
package main

import (
	"fmt"
	"os"
	"time"

	cli "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/internal/auth"
	"github.com/satriahrh/gymbuddy/internal/config"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	clientID := cli.StringP("client", "c", "", "Client ID to embed in the token (required)")
	ttl := cli.Duration("ttl", 0, "Token lifetime (defaults to JWT_TTL)")
	cli.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if *clientID == "" {
		cli.Usage()
		os.Exit(2)
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		logger.Fatal("Failed to load env file", zap.String("path", *envFile), zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if !cfg.AuthEnabled() {
		logger.Fatal("JWT_SECRET is not set; the server accepts unauthenticated clients")
	}

	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), lifetime)

	token, err := issuer.GenerateClientToken(*clientID)
	if err != nil {
		logger.Fatal("Failed to sign token", zap.Error(err))
	}

	logger.Info("Token issued",
		zap.String("client", *clientID),
		zap.Time("expires", time.Now().Add(issuer.TTL())))
	fmt.Println(token)
}
