package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/domain"
	"taskdesk/internal/migrate"
	"taskdesk/internal/repo"
)

// Open prepares the workspace, opens the database, runs migrations and seeds
// the first SUPER_ADMIN when the directory is empty. Every entry point (CLI
// and server) goes through here.
func Open(ctx context.Context, workspace string, cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := EnsureAdmin(ctx, conn, cfg); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// EnsureAdmin seeds the bootstrap SUPER_ADMIN from config when no users
// exist yet. Without at least one admin nobody could create users at all.
func EnsureAdmin(ctx context.Context, conn *sql.DB, cfg *config.Config) error {
	r := repo.Repo{DB: conn}
	n, err := r.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	admin := domain.User{
		ID:                 uuid.New().String(),
		Username:           cfg.Seed.AdminUsername,
		Email:              cfg.Seed.AdminEmail,
		Role:               domain.RoleSuperAdmin,
		Active:             true,
		EmailNotifications: true,
		CreatedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := r.InsertUser(ctx, tx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return tx.Commit()
}
