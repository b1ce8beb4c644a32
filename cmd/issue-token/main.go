package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/siapptn-tryout-api/internal/service"
	"github.com/noah-isme/siapptn-tryout-api/pkg/config"
)

// issue-token signs an operator token with the configured JWT secret, for calling the
// protected processing routes from scripts and cron jobs.
func main() {
	subject := flag.String("subject", "", "token subject, usually the operator's user id")
	role := flag.String("role", "OPERATOR", "ADMIN or OPERATOR")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to JWT_EXPIRATION")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-subject is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	parsed, err := service.ParseRole(*role)
	if err != nil {
		log.Fatalf("invalid role: %v", err)
	}

	expiry := cfg.JWT.Expiration
	if *ttl > 0 {
		expiry = *ttl
	}
	auth := service.NewAuthService(service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: expiry,
	}, nil)

	token, expiresAt, err := auth.IssueToken(*subject, parsed)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.Format(time.RFC3339))
}
