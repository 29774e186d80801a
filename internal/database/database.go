// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/tradelite/tradelite/internal/config"
	"github.com/tradelite/tradelite/internal/models"
)

// DB represents the database connection
type DB struct {
	*sql.DB
	driver string
	path   string

	builder sq.StatementBuilderType
}

// Config holds database configuration
type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Path     string // For SQLite
}

// NewConfig builds a database configuration from the application config.
func NewConfig(cfg config.DatabaseConfig) *Config {
	driver := cfg.Type
	if driver == "" {
		driver = "sqlite"
	}

	dbConfig := &Config{Driver: driver}

	if driver == "postgres" {
		dbConfig.Host = withDefault(cfg.Host, "localhost")
		dbConfig.Port = "5432"
		if cfg.Port != 0 {
			dbConfig.Port = strconv.Itoa(cfg.Port)
		}
		dbConfig.User = withDefault(cfg.User, "tradelite")
		dbConfig.Password = withDefault(cfg.Password, "tradelite")
		dbConfig.DBName = withDefault(cfg.Name, "tradelite")
	} else {
		dbConfig.Path = withDefault(cfg.Path, "./data/tradelite.db")
	}

	return dbConfig
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// InitDB initializes the database from the application config.
func InitDB(cfg config.DatabaseConfig) (*DB, error) {
	return InitDBWithConfig(NewConfig(cfg))
}

// InitDBWithConfig initializes the database with the provided configuration
func InitDBWithConfig(config *Config) (*DB, error) {
	var (
		database *sql.DB
		err      error
	)

	maxRetries := 5
	baseDelay := time.Second

	if config.Driver == "postgres" {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.DBName)
		log.Debug().
			Str("host", config.Host).
			Str("port", config.Port).
			Str("database", config.DBName).
			Msg("Initializing PostgreSQL database")

		// Retry loop with backoff; postgres may still be starting
		for attempt := 1; attempt <= maxRetries; attempt++ {
			database, err = sql.Open("postgres", dsn)
			if err == nil {
				err = database.Ping()
				if err == nil {
					break
				}
			}

			if attempt == maxRetries {
				return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
			}

			delay := time.Duration(attempt) * baseDelay
			log.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying database connection")
			time.Sleep(delay)
		}
	} else {
		dbDir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, err
		}

		database, err = sql.Open("sqlite", config.Path)
		if err != nil {
			return nil, fmt.Errorf("error opening database: %w", err)
		}

		// Force SQLite to create the database file by pinging it
		if err := database.Ping(); err != nil {
			return nil, fmt.Errorf("error creating database file: %w", err)
		}

		if err := os.Chmod(config.Path, 0640); err != nil {
			return nil, fmt.Errorf("error setting database file permissions: %w", err)
		}
		log.Debug().
			Str("path", config.Path).
			Msg("Initializing SQLite database")
	}

	// Configure connection pool
	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(25)
	database.SetConnMaxLifetime(5 * time.Minute)

	log.Info().
		Str("driver", config.Driver).
		Msg("Successfully connected to database")

	var placeholder sq.PlaceholderFormat = sq.Question
	if config.Driver == "postgres" {
		placeholder = sq.Dollar
	}

	db := &DB{
		DB:      database,
		driver:  config.Driver,
		path:    config.Path,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}

	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path (for SQLite)
func (db *DB) Path() string {
	return db.path
}

// initSchema creates the necessary database tables
func (db *DB) initSchema() error {
	var autoIncrement string
	if db.driver == "postgres" {
		autoIncrement = "SERIAL"
	} else {
		autoIncrement = "INTEGER"
	}

	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS users (
			id %s PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, autoIncrement))
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS simulations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			asset TEXT NOT NULL,
			strategy TEXT NOT NULL,
			timeframe INTEGER NOT NULL,
			initial_capital REAL NOT NULL,
			final_capital REAL NOT NULL,
			roi REAL NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`)
	if err != nil {
		return err
	}

	return nil
}

// User Management Functions

// CreateUser creates a new user and populates its ID and timestamps.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()

	queryBuilder := db.builder.Insert("users").
		Columns("email", "password_hash", "created_at", "updated_at").
		Values(user.Email, user.PasswordHash, now, now).
		Suffix("RETURNING id").RunWith(db.DB)

	if err := queryBuilder.QueryRowContext(ctx).Scan(&user.ID); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

type FindUserParams struct {
	ID    int64
	Email string
}

// FindUser retrieves a user by FindUserParams. Returns nil when no user
// matches.
func (db *DB) FindUser(ctx context.Context, params FindUserParams) (*models.User, error) {
	queryBuilder := db.builder.Select("id", "email", "password_hash", "created_at", "updated_at").From("users")

	or := sq.Or{}
	if params.ID != 0 {
		or = append(or, sq.Eq{"id": params.ID})
	}
	if params.Email != "" {
		or = append(or, sq.Eq{"email": params.Email})
	}
	queryBuilder = queryBuilder.Where(or)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// UpdateUserPassword updates a user's password hash and updated_at timestamp
func (db *DB) UpdateUserPassword(ctx context.Context, userID int64, newPasswordHash string) error {
	queryBuilder := db.builder.Update("users").
		Set("password_hash", newPasswordHash).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)
	return err
}

// Simulation Functions

// SaveSimulation persists a completed simulation. The price series is stored
// as JSON text.
func (db *DB) SaveSimulation(ctx context.Context, sim *models.Simulation) error {
	data, err := json.Marshal(sim.Data)
	if err != nil {
		return errors.Wrap(err, "error marshaling simulation data")
	}

	queryBuilder := db.builder.Insert("simulations").
		Columns("id", "user_id", "asset", "strategy", "timeframe", "initial_capital", "final_capital", "roi", "data", "created_at").
		Values(sim.ID, sim.UserID, sim.Asset, sim.Strategy, sim.Timeframe, sim.InitialCapital, sim.FinalCapital, sim.ROI, string(data), sim.CreatedAt)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}
	return nil
}

// GetSimulation retrieves a simulation by ID. Returns nil when not found.
func (db *DB) GetSimulation(ctx context.Context, id string) (*models.Simulation, error) {
	queryBuilder := db.builder.
		Select("id", "user_id", "asset", "strategy", "timeframe", "initial_capital", "final_capital", "roi", "data", "created_at").
		From("simulations").
		Where(sq.Eq{"id": id})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		sim  models.Simulation
		data string
	)
	err = db.QueryRowContext(ctx, query, args...).Scan(
		&sim.ID, &sim.UserID, &sim.Asset, &sim.Strategy, &sim.Timeframe,
		&sim.InitialCapital, &sim.FinalCapital, &sim.ROI, &data, &sim.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &sim.Data); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling simulation data")
	}

	return &sim, nil
}

// ListSimulations returns recent simulations, newest first.
func (db *DB) ListSimulations(ctx context.Context, limit, offset int) ([]models.Simulation, error) {
	queryBuilder := db.builder.
		Select("id", "user_id", "asset", "strategy", "timeframe", "initial_capital", "final_capital", "roi", "data", "created_at").
		From("simulations").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sims []models.Simulation
	for rows.Next() {
		var (
			sim  models.Simulation
			data string
		)
		err := rows.Scan(
			&sim.ID, &sim.UserID, &sim.Asset, &sim.Strategy, &sim.Timeframe,
			&sim.InitialCapital, &sim.FinalCapital, &sim.ROI, &data, &sim.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &sim.Data); err != nil {
			return nil, errors.Wrap(err, "error unmarshaling simulation data")
		}
		sims = append(sims, sim)
	}

	return sims, rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
