package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hypernova-labs/client-service/internal/config"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// queryTimeout es el tiempo máximo de cada sentencia
const queryTimeout = 30 * time.Second

// DB representa la conexión a la base de datos
type DB struct {
	*sql.DB
	logger *logrus.Logger
}

type rollbacker interface {
	Rollback() error
}

// querier es el subconjunto común de *sql.DB y *sql.Tx usado por los repositorios
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Connect establece la conexión a PostgreSQL
func Connect(cfg *config.Config, logger *logrus.Logger) (*DB, error) {
	return Open(cfg.GetDSN(), logger)
}

// Open abre y verifica una conexión a partir de un DSN
func Open(dsn string, logger *logrus.Logger) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return &DB{DB: db, logger: logger}, nil
}

// Close cierra la conexión a la base de datos
func (db *DB) Close() error {
	return db.DB.Close()
}

// HealthCheck verifica la salud de la base de datos
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}

	return nil
}

// GetStats retorna estadísticas del pool de conexiones
func (db *DB) GetStats() map[string]interface{} {
	s := db.Stats()

	return map[string]interface{}{
		"max_open_connections": s.MaxOpenConnections,
		"open_connections":     s.OpenConnections,
		"in_use":               s.InUse,
		"idle":                 s.Idle,
		"wait_count":           s.WaitCount,
		"wait_duration":        s.WaitDuration.String(),
	}
}

// LogStats registra las estadísticas de la base de datos
func (db *DB) LogStats(logger *logrus.Logger) {
	logger.WithFields(logrus.Fields(db.GetStats())).Info("Database pool statistics")
}

// WithTransaction ejecuta una función dentro de una transacción.
// Si fn retorna error o entra en pánico se hace rollback.
func (db *DB) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			db.rollbackAfterPanic(tx, p)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back transaction: %v, original error: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// rollbackAfterPanic deshace la transacción y registra si el rollback falla
func (db *DB) rollbackAfterPanic(tx rollbacker, cause interface{}) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger := db.logger
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		logger.WithError(err).WithField("panic", fmt.Sprint(cause)).Error("Error rolling back transaction after panic")
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}
