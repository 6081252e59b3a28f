package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Querier is the statement surface shared by the session and its transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Session is a single store connection. It does not support concurrent or
// interleaved statements; *pgx.Conn satisfies it.
type Session interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer opens a replacement session after the current one has closed.
type Dialer func(ctx context.Context) (Session, error)

// Gateway owns the store session and admits one unit of work at a time.
type Gateway struct {
	session     Session
	dial        Dialer
	sem         *semaphore.Weighted
	waitTimeout time.Duration
	logger      *zap.Logger
}

// NewGateway wraps session. waitTimeout bounds how long a caller queues for
// the session; zero waits until the caller's context is done.
func NewGateway(session Session, waitTimeout time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		session:     session,
		sem:         semaphore.NewWeighted(1),
		waitTimeout: waitTimeout,
		logger:      logger,
	}
}

// WithReconnect lets the gateway replace a closed session using dial. pgx
// closes a conn whose statement was interrupted, so without a dialer every
// later call fails until restart.
func (g *Gateway) WithReconnect(dial Dialer) *Gateway {
	g.dial = dial
	return g
}

// Ping verifies the session is alive.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.withSession(ctx, func(ctx context.Context, _ Querier) error {
		return g.session.Ping(ctx)
	})
}

// ExecScript runs a raw SQL script, e.g. a migration file.
func (g *Gateway) ExecScript(ctx context.Context, script string) error {
	return g.withSession(ctx, func(ctx context.Context, q Querier) error {
		_, err := q.Exec(ctx, script)
		return err
	})
}

// Close waits for in-flight work and closes the session.
func (g *Gateway) Close(ctx context.Context) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return g.session.Close(ctx)
}

func (g *Gateway) acquire(ctx context.Context) error {
	waitCtx := ctx
	if g.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.waitTimeout)
		defer cancel()
	}
	if err := g.sem.Acquire(waitCtx, 1); err != nil {
		g.logger.Warn("store session wait aborted", zap.Duration("wait_timeout", g.waitTimeout), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSessionBusy, err)
	}
	return nil
}

// withSession holds the session for the duration of fn.
func (g *Gateway) withSession(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.sem.Release(1)
	if err := g.ensureSession(ctx); err != nil {
		return err
	}
	return fn(ctx, g.session)
}

// ensureSession redials when the held session reports itself closed.
// Callers must hold the semaphore.
func (g *Gateway) ensureSession(ctx context.Context) error {
	closer, ok := g.session.(interface{ IsClosed() bool })
	if !ok || !closer.IsClosed() || g.dial == nil {
		return nil
	}

	g.logger.Warn("store session closed, reconnecting")
	session, err := g.dial(ctx)
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	g.session = session
	g.logger.Info("store session re-established")
	return nil
}

// withTx holds the session and runs fn inside one transaction. The
// transaction commits when fn succeeds and rolls back on error or panic.
func (g *Gateway) withTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return g.withSession(ctx, func(ctx context.Context, _ Querier) (err error) {
		tx, err := g.session.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}

		defer func() {
			if p := recover(); p != nil {
				g.rollback(ctx, tx)
				panic(p)
			}
			if err != nil {
				g.rollback(ctx, tx)
				return
			}
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("commit: %w", commitErr)
			}
		}()

		return fn(ctx, tx)
	})
}

func (g *Gateway) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		g.logger.Error("rollback failed", zap.Error(err))
	}
}
