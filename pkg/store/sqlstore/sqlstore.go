// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sqlstore is a store.Store backed by a SQLite table, built
// with the same jmoiron/sqlx + Masterminds/squirrel + mattn/go-sqlite3
// + golang-migrate stack the teacher repository uses for its job/user
// metadata, re-wired here onto a single points(key, value) table.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	applog "github.com/fluxpoint-io/broker/pkg/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const pointsTable = "points"

// Store is a store.Store backed by a SQLite database file, migrated
// to the current schema with golang-migrate on Open.
type Store struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// Open opens (creating and migrating if necessary) the SQLite database
// at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", path, err)
	}

	if err := migrateUp(db.DB, path); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func migrateUp(db *sql.DB, path string) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("sqlstore: migration driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("sqlstore: migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, path, driver)
	if err != nil {
		return fmt.Errorf("sqlstore: migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: migrate up: %w", err)
	}
	applog.Info("sqlstore: schema migrated")
	return nil
}

func (s *Store) StoreValue(ctx context.Context, key string, data []byte) error {
	query, args, err := s.sb.
		Insert(pointsTable).
		Columns("key", "value").
		Values(key, data).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) GetValue(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := s.sb.
		Select("value").
		From(pointsTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	var data []byte
	err = s.db.GetContext(ctx, &data, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("key").From(pointsTable).ToSql()
	if err != nil {
		return nil, err
	}

	var keys []string
	if err := s.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
