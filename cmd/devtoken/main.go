// cmd/devtoken mints a development access token signed with JWT_SECRET.
// Production tokens come from the identity service.
// Usage: go run ./cmd/devtoken -role CASHIER -branch <uuid>
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bamskydbest/pharm-back/internal/config"
	"github.com/bamskydbest/pharm-back/internal/middleware"
	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		role   string
		name   string
		userID string
		branch string
		ttl    time.Duration
	)
	flag.StringVar(&role, "role", model.RoleAdmin, "ADMIN | PHARMACIST | CASHIER | ACCOUNTANT")
	flag.StringVar(&name, "name", "Dev User", "display name recorded on sales and movements")
	flag.StringVar(&userID, "user", "", "user id (default: random)")
	flag.StringVar(&branch, "branch", "", "branch id (default: random)")
	flag.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is empty")
	}
	if !model.ValidRole(role) {
		log.Fatal().Str("role", role).Msg("unknown role")
	}

	p := model.Principal{Name: name, Role: role, ID: parseOrNew(userID), BranchID: parseOrNew(branch)}
	token, err := middleware.SignToken(cfg.JWTSecret, p, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}
	log.Info().Str("user_id", p.ID.String()).Str("branch_id", p.BranchID.String()).Str("role", role).Msg("token issued")
	fmt.Println(token)
}

func parseOrNew(s string) uuid.UUID {
	if s == "" {
		return uuid.New()
	}
	id, err := uuid.Parse(s)
	if err != nil {
		log.Fatal().Str("value", s).Msg("invalid uuid")
	}
	return id
}
