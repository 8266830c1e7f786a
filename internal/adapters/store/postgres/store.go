package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	sqldblogger "github.com/simukti/sqldb-logger"

	"reelgrab/internal/core/domain"
	"reelgrab/pkg/logger"
)

const (
	SqlDialect     = "postgres"
	connectRetries = 5
	table          = "download_results"
)

var (
	//go:embed migrations/*.sql
	migrations embed.FS

	dbLogger = logger.Get("DB")

	columns = []string{
		"id", "platform", "input_url", "video_path", "filename", "thumbnail_url",
		"audio_url", "audio_path", "title", "published_at", "created_at",
	}

	psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
)

// Store implements ports.ResultStore on a Postgres table. Listing order is
// the insertion sequence, newest first.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database at dsn, retrying while the server comes up,
// and applies any pending migrations. Every query is logged at debug level.
func Open(ctx context.Context, dsn string, retryDelay time.Duration) (*Store, error) {
	raw, err := sql.Open(SqlDialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	raw = sqldblogger.OpenDriver(dsn, raw.Driver(), &sqlLogger{dbLogger})

	for attempt := 1; ; attempt++ {
		err := raw.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt >= connectRetries {
			dbLogger.Emit(logger.ERROR, "All attempts FAILED!\n")
			raw.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		dbLogger.Emit(logger.WARNING, "Attempt (%v/%v) failed... Retrying in %s\n", attempt, connectRetries, retryDelay)
		select {
		case <-ctx.Done():
			raw.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	if err := migrate(raw); err != nil {
		raw.Close()
		return nil, err
	}

	dbLogger.Emit(logger.SUCCESS, "Database connection complete!\n")
	return &Store{db: sqlx.NewDb(raw, SqlDialect)}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts the result; the database assigns the storage time.
func (s *Store) Save(ctx context.Context, result domain.DownloadResult) (*domain.StoredResult, error) {
	query, args, err := psql.Insert(table).
		Columns(columns...).
		Values(
			result.ID, result.Platform, result.InputURL, result.VideoPath, result.Filename,
			result.ThumbnailURL, result.AudioURL, result.AudioPath, result.Title,
			result.PublishedAt, result.CreatedAt,
		).
		Suffix("RETURNING stored_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct insert result query: %w", err)
	}

	stored := &domain.StoredResult{DownloadResult: result}
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&stored.StoredAt); err != nil {
		return nil, fmt.Errorf("failed to insert result %s: %w", result.ID, err)
	}

	return stored, nil
}

// List returns every stored result, newest first.
func (s *Store) List(ctx context.Context) ([]domain.StoredResult, error) {
	query, args, err := selectResultBuilder().OrderBy("seq DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list results query: %w", err)
	}

	results := []domain.StoredResult{}
	if err := s.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

// Get returns the stored result with the given id.
func (s *Store) Get(ctx context.Context, id string) (*domain.StoredResult, error) {
	query, args, err := selectResultBuilder().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select result query: %w", err)
	}

	var result domain.StoredResult
	if err := s.db.GetContext(ctx, &result, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result %s: %w", id, err)
	}

	return &result, nil
}

func selectResultBuilder() squirrel.SelectBuilder {
	return psql.Select(append(columns, "stored_at")...).From(table)
}

// migrate runs the embedded goose migrations against db.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{dbLogger})
	if err := goose.SetDialect(SqlDialect); err != nil {
		return fmt.Errorf("failed to set dialect for DB migration: %w", err)
	}

	dbLogger.Emit(logger.INFO, "Checking for pending DB migrations...\n")
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate DB: %w", err)
	}

	return nil
}

type gooseLogger struct {
	logger logger.Logger
}

func (l *gooseLogger) Fatal(v ...interface{}) {
	l.logger.Errorf("%s", fmt.Sprint(v...))
	os.Exit(1)
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Errorf(format, v...)
	os.Exit(1)
}

func (l *gooseLogger) Print(v ...interface{}) {
	l.logger.Debugf("%s", fmt.Sprint(v...))
}

func (l *gooseLogger) Println(v ...interface{}) {
	l.logger.Debugf("%s", fmt.Sprintln(v...))
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debugf(format, v...)
}

type sqlLogger struct {
	logger logger.Logger
}

func (l *sqlLogger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]any) {
	switch level {
	case sqldblogger.LevelTrace:
		l.logger.Verbosef("%s - %v\n", msg, data)
	case sqldblogger.LevelDebug, sqldblogger.LevelInfo:
		if query, ok := data["query"]; ok {
			l.logger.Debugf("%s [%.2fms] -- %s\n", msg, data["duration"], query)
		} else {
			l.logger.Debugf("%s [%.2fms]\n", msg, data["duration"])
		}
	case sqldblogger.LevelError:
		l.logger.Errorf("%s - %v\n", msg, data)
	}
}
