package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/observability"
	"github.com/spec-kit/classroom-service/internal/persistence"
	"github.com/spec-kit/classroom-service/internal/repository"
)

var seedUsers = []domain.User{
	{Email: "admin@school.test", FirstName: "Ada", LastName: "Lovelace", Role: string(domain.RoleAdmin)},
	{Email: "teacher@school.test", FirstName: "Grace", LastName: "Hopper", Role: string(domain.RoleTeacher)},
	{Email: "student@school.test", FirstName: "Alan", LastName: "Kay", Role: string(domain.RoleStudent)},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := persistence.ConnectPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	gateway := repository.NewGateway(conn, cfg.Postgres.LockTimeout(), logger)
	defer gateway.Close(context.Background()) //nolint:errcheck

	if err := persistence.RunMigrations(ctx, gateway, cfg.Postgres.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "password123"
	}

	for _, user := range seedUsers {
		creds, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
		if err != nil {
			logger.Fatal("failed to hash password", zap.Error(err))
		}
		user.PasswordHash, user.Salt = creds.Hash, creds.Salt

		id, err := gateway.UpsertUser(ctx, user)
		if err != nil {
			logger.Fatal("failed to seed user", zap.String("email", user.Email), zap.Error(err))
		}
		fmt.Printf("seeded user: id=%d email=%s role=%s\n", id, user.Email, user.Role)
	}
}
