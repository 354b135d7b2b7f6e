// Command devtoken seeds a profile into a local SQLite store and prints a session token for it.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository/sqlite"
)

func main() {
	var (
		dbPath   = pflag.String("db", "helpdesk.db", "SQLite database path")
		id       = pflag.String("id", "", "profile id (required)")
		email    = pflag.String("email", "", "profile email, defaults to <id>@localhost")
		name     = pflag.String("name", "", "display name, defaults to the id")
		role     = pflag.String("role", string(domain.RoleClient), "client, operator, manager or administrator")
		password = pflag.String("password", "", "optional password to store for the profile")
		secret   = pflag.String("secret", os.Getenv("AUTH_JWT_SECRET"), "JWT signing secret")
		ttl      = pflag.Int("ttl", 60, "token lifetime in minutes")
	)
	pflag.Parse()

	if strings.TrimSpace(*id) == "" {
		log.Fatal("--id is required")
	}
	if *secret == "" {
		log.Fatal("--secret or AUTH_JWT_SECRET is required")
	}
	profileRole := domain.Role(strings.ToLower(*role))
	if !profileRole.Valid() {
		log.Fatalf("unknown role %q", *role)
	}
	if *email == "" {
		*email = *id + "@localhost"
	}
	if *name == "" {
		*name = *id
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.UpsertProfile(ctx, &domain.Profile{
		ID:          *id,
		Email:       *email,
		DisplayName: *name,
		Role:        profileRole,
	}); err != nil {
		log.Fatalf("seed profile: %v", err)
	}
	if *password != "" {
		hash, err := auth.HashPassword(*password, 0)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		if err := store.Credentials().UpdatePasswordHash(ctx, *id, hash); err != nil {
			log.Fatalf("store password: %v", err)
		}
	}

	token, expiresAt, err := auth.NewTokenManager(*secret, *ttl).GenerateToken(*id)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "profile %s (%s) valid until %s\n", *id, profileRole, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
