package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		cfg: cfg,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Pragmas are applied per connection so they survive pool churn
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", s.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Create migration source from embedded FS
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// Create database driver
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migration instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// SaveNetwork inserts or updates a network record
func (s *SQLiteStore) SaveNetwork(ctx context.Context, network *Network) error {
	query := `
		INSERT INTO networks (id, name, owner_id, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			description = excluded.description,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		network.ID,
		network.Name,
		network.OwnerID,
		network.Description,
		network.CreatedAt,
		network.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save network: %w", err)
	}

	return nil
}

// GetNetwork retrieves a network by ID
func (s *SQLiteStore) GetNetwork(ctx context.Context, id string) (*Network, error) {
	query := `
		SELECT id, name, owner_id, description, created_at, updated_at
		FROM networks
		WHERE id = ?
	`

	network := &Network{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&network.ID,
		&network.Name,
		&network.OwnerID,
		&network.Description,
		&network.CreatedAt,
		&network.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("network %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get network: %w", err)
	}

	return network, nil
}

// ListNetworks lists all linked networks
func (s *SQLiteStore) ListNetworks(ctx context.Context) ([]*Network, error) {
	query := `
		SELECT id, name, owner_id, description, created_at, updated_at
		FROM networks
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	defer rows.Close()

	networks := []*Network{}
	for rows.Next() {
		network := &Network{}
		err := rows.Scan(
			&network.ID,
			&network.Name,
			&network.OwnerID,
			&network.Description,
			&network.CreatedAt,
			&network.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan network: %w", err)
		}
		networks = append(networks, network)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating networks: %w", err)
	}

	return networks, nil
}

// DeleteNetwork deletes a network by ID
func (s *SQLiteStore) DeleteNetwork(ctx context.Context, id string) error {
	query := `DELETE FROM networks WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete network: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("network %s: %w", id, ErrNotFound)
	}

	return nil
}

// GetWorldSettings retrieves the world settings document. A store with no
// saved settings yields the default document.
func (s *SQLiteStore) GetWorldSettings(ctx context.Context) (*WorldSettings, error) {
	query := `
		SELECT in_use, planet_id, planet_birth, recommend, comment, endpoints, identity, updated_at
		FROM world_settings
		WHERE id = 1
	`

	settings := &WorldSettings{}
	var endpointsJSON string
	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.InUse,
		&settings.PlanetID,
		&settings.PlanetBirth,
		&settings.Recommend,
		&settings.Comment,
		&endpointsJSON,
		&settings.Identity,
		&settings.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return DefaultWorldSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get world settings: %w", err)
	}

	if endpointsJSON != "" {
		if err := json.Unmarshal([]byte(endpointsJSON), &settings.Endpoints); err != nil {
			return nil, fmt.Errorf("failed to decode endpoints: %w", err)
		}
	}

	return settings, nil
}

// SaveWorldSettings inserts or updates the singleton world settings row
func (s *SQLiteStore) SaveWorldSettings(ctx context.Context, settings *WorldSettings) error {
	endpointsJSON, err := json.Marshal(settings.Endpoints)
	if err != nil {
		return fmt.Errorf("failed to encode endpoints: %w", err)
	}

	query := `
		INSERT INTO world_settings (id, in_use, planet_id, planet_birth, recommend, comment, endpoints, identity, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			in_use = excluded.in_use,
			planet_id = excluded.planet_id,
			planet_birth = excluded.planet_birth,
			recommend = excluded.recommend,
			comment = excluded.comment,
			endpoints = excluded.endpoints,
			identity = excluded.identity,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		settings.InUse,
		settings.PlanetID,
		settings.PlanetBirth,
		settings.Recommend,
		settings.Comment,
		string(endpointsJSON),
		settings.Identity,
		settings.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save world settings: %w", err)
	}

	return nil
}

// ResetWorldSettings overwrites the world settings with the default document
func (s *SQLiteStore) ResetWorldSettings(ctx context.Context) error {
	defaults := DefaultWorldSettings()
	defaults.UpdatedAt = time.Now().UTC()
	return s.SaveWorldSettings(ctx, defaults)
}

// AppendAudit appends a new audit entry
func (s *SQLiteStore) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	query := `
		INSERT INTO audit (id, actor, action, subject, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Actor,
		entry.Action,
		entry.Subject,
		entry.Detail,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// ListAudit lists the most recent audit entries
func (s *SQLiteStore) ListAudit(ctx context.Context, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, actor, action, subject, detail, created_at
		FROM audit
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*AuditEntry{}
	for rows.Next() {
		entry := &AuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Action,
			&entry.Subject,
			&entry.Detail,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
