// Package repository implements the PostgreSQL storage for plans,
// subscriptions and users. Transaction boundaries for the compound
// lifecycle mutations live here so a mid-sequence failure can never leave
// the data half-applied.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// pgx driver registration for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage wraps the PostgreSQL connection and implements the repository
// methods for plans, subscriptions and users.
type Storage struct {
	DB *sql.DB
}

// New opens a connection to PostgreSQL and verifies it with a ping.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// uniqueViolation codes a duplicate-key insert in PostgreSQL.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
