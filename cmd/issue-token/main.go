// Command issue-token prints a bearer token for an existing marketplace user.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Apurer/brix-market/internal/app/api"
	"github.com/Apurer/brix-market/internal/domains/users/adapters/auth"
	userapp "github.com/Apurer/brix-market/internal/domains/users/application"
)

func main() {
	username := flag.String("user", "", "username to mint a token for")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to AUTH_TOKEN_TTL)")
	flag.Parse()
	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if *ttl > 0 {
		cfg.AuthTokenTTL = *ttl
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	stores, cleanup, err := api.BuildStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open user directory: %v", err)
	}
	defer cleanup()
	if !stores.Durable {
		if err := api.SeedDemoData(ctx, stores.Users, stores.Listings); err != nil {
			log.Fatalf("failed to seed demo users: %v", err)
		}
	}

	codec, err := auth.NewHMACCodec(cfg.AuthJWTSecret, auth.WithIssuer(cfg.AuthJWTIssuer), auth.WithTTL(cfg.AuthTokenTTL))
	if err != nil {
		log.Fatalf("failed to configure token codec: %v", err)
	}
	token, err := userapp.NewService(stores.Users, codec).IssueToken(ctx, *username)
	if err != nil {
		log.Fatalf("failed to issue token for %q: %v", *username, err)
	}
	fmt.Println(token)
}
