package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/config"
)

// ConnectPostgres opens the single store session. The service never holds
// more than one connection; the repository gateway serializes access to it.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*pgx.Conn, error) {
	if cfg.DSN == "" {
		return nil, errors.New("POSTGRES_DSN not provided")
	}

	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if timeout := cfg.ConnectTimeout(); timeout > 0 {
		connCfg.ConnectTimeout = timeout
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(context.Background())
		return nil, err
	}

	logger.Info("connected to postgres",
		zap.String("host", connCfg.Host),
		zap.String("database", connCfg.Database))
	return conn, nil
}
