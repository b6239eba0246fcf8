package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ models.UserStore = (*PostgresDB)(nil)

type PostgresDB struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresDB(url string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.New(
			"DB_CONNECTION_ERROR",
			"Failed to open database connection",
			"Could not initialize database connection",
			err,
			errors.LevelError,
		)
	}

	// * Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// * Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.New(
			"DB_CONNECTION_ERROR",
			"Failed to verify database connection",
			"Database ping failed",
			err,
			errors.LevelError,
		)
	}

	logger.Info("connected to database successfully 🎉")
	return &PostgresDB{db: db, now: time.Now}, nil
}

func (p *PostgresDB) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.New(
			"DB_MIGRATION_ERROR",
			"Failed to load migrations",
			"Could not read embedded migration files",
			err,
			errors.LevelError,
		)
	}

	driver, err := postgres.WithInstance(p.db, &postgres.Config{})
	if err != nil {
		return errors.New(
			"DB_MIGRATION_ERROR",
			"Failed to create migration driver",
			"Could not initialize migration driver instance",
			err,
			errors.LevelError,
		)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return errors.New(
			"DB_MIGRATION_ERROR",
			"Failed to create migration instance",
			"Could not create migration instance with database",
			err,
			errors.LevelError,
		)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.New(
			"DB_MIGRATION_ERROR",
			"Failed to run migrations",
			"Migration up operation failed",
			err,
			errors.LevelError,
		)
	}

	return nil
}

func (p *PostgresDB) Close() error {
	if err := p.db.Close(); err != nil {
		return errors.New(
			"DB_CONNECTION_ERROR",
			"Failed to close database connection",
			"Error while closing database connection",
			err,
			errors.LevelWarning,
		)
	}
	return nil
}

func (p *PostgresDB) GetUser(ctx context.Context, username string) (*models.GitHubUser, error) {
	key := models.NormalizeUsername(username)
	query := `
		SELECT username, fetched_at, schema_version, metrics
		FROM github_users
		WHERE username = $1
	`

	user, err := scanUser(p.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(
			"DB_USER_ERROR",
			"Failed to fetch user",
			fmt.Sprintf("Could not fetch wrapped record for '%s'", key),
			err,
			errors.LevelError,
		)
	}

	return user, nil
}

// * UpsertUser replaces fetched_at, schema_version and metrics wholesale; nothing is merged
func (p *PostgresDB) UpsertUser(ctx context.Context, username string, metrics models.GitHubMetrics) (*models.GitHubUser, error) {
	key := models.NormalizeUsername(username)

	payload, err := json.Marshal(metrics)
	if err != nil {
		return nil, errors.New(
			"DB_USER_ERROR",
			"Failed to encode metrics",
			fmt.Sprintf("Could not encode metrics for '%s'", key),
			err,
			errors.LevelError,
		)
	}

	query := `
		INSERT INTO github_users (username, fetched_at, schema_version, metrics)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT(username) DO UPDATE SET
			fetched_at = EXCLUDED.fetched_at,
			schema_version = EXCLUDED.schema_version,
			metrics = EXCLUDED.metrics
		RETURNING username, fetched_at, schema_version, metrics
	`

	row := p.db.QueryRowContext(ctx, query, key, p.now().UTC(), models.CurrentSchemaVersion, string(payload))
	user, err := scanUser(row)
	if err != nil {
		return nil, errors.New(
			"DB_USER_ERROR",
			"Failed to upsert user",
			fmt.Sprintf("Could not upsert wrapped record for '%s'", key),
			err,
			errors.LevelError,
		)
	}

	return user, nil
}

func (p *PostgresDB) AverageStats(ctx context.Context) (models.AverageStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(ROUND(AVG((metrics->>'totalCommits')::numeric)), 0)::bigint,
			COALESCE(ROUND(AVG((metrics->>'longestStreak')::numeric)), 0)::bigint,
			COALESCE(ROUND(AVG((metrics->>'totalPRs')::numeric)), 0)::bigint,
			COALESCE(ROUND(AVG((metrics->>'totalIssues')::numeric)), 0)::bigint,
			COALESCE(ROUND(AVG((metrics->>'starsReceived')::numeric)), 0)::bigint
		FROM github_users
	`

	var stats models.AverageStats
	err := p.db.QueryRowContext(ctx, query).Scan(
		&stats.UserCount,
		&stats.TotalCommits,
		&stats.LongestStreak,
		&stats.TotalPRs,
		&stats.TotalIssues,
		&stats.StarsReceived,
	)
	if err != nil {
		return models.AverageStats{}, errors.New(
			"DB_STATS_ERROR",
			"Failed to compute averages",
			"Error while aggregating wrapped records",
			err,
			errors.LevelError,
		)
	}

	return stats, nil
}

func (p *PostgresDB) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM github_users`).Scan(&count); err != nil {
		return 0, errors.New(
			"DB_STATS_ERROR",
			"Failed to count users",
			"Error while counting wrapped records",
			err,
			errors.LevelError,
		)
	}
	return count, nil
}

func scanUser(row *sql.Row) (*models.GitHubUser, error) {
	var (
		user    models.GitHubUser
		payload []byte
	)

	if err := row.Scan(&user.Username, &user.FetchedAt, &user.SchemaVersion, &payload); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, &user.Metrics); err != nil {
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}

	return &user, nil
}
