package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string, maxConns int32) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}
	if err := client.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

// schema is applied in order; every statement is idempotent.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"tenants", `
		CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"profiles", `
		CREATE TABLE IF NOT EXISTS profiles (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			limits JSONB NOT NULL DEFAULT '{"max_clients": 200, "max_resellers": 10}',
			plan_kind VARCHAR(50) NOT NULL DEFAULT 'trial',
			plan_expires_at TIMESTAMPTZ,
			is_trial BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"user_roles", `
		CREATE TABLE IF NOT EXISTS user_roles (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(20) NOT NULL CHECK (role IN ('user', 'reseller', 'panel_admin', 'super_admin')),
			tenant_id UUID REFERENCES tenants(id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"resellers", `
		CREATE TABLE IF NOT EXISTS resellers (
			id UUID PRIMARY KEY,
			tenant_id UUID REFERENCES tenants(id),
			owner_id UUID NOT NULL REFERENCES users(id),
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			name VARCHAR(255) NOT NULL,
			limits JSONB NOT NULL DEFAULT '{"max_clients": 50, "max_messages_month": 500}',
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"clients", `
		CREATE TABLE IF NOT EXISTS clients (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			reseller_id UUID REFERENCES resellers(id),
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(32),
			plan VARCHAR(100) NOT NULL DEFAULT '',
			expiration_date DATE NOT NULL,
			is_suspended BOOLEAN NOT NULL DEFAULT FALSE,
			value NUMERIC(12, 2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"clients_owner_idx", `CREATE INDEX IF NOT EXISTS clients_user_id_idx ON clients (user_id)`},
	{"clients_reseller_idx", `CREATE INDEX IF NOT EXISTS clients_reseller_id_idx ON clients (reseller_id)`},
	{"whatsapp_instances", `
		CREATE TABLE IF NOT EXISTS whatsapp_instances (
			id UUID PRIMARY KEY,
			user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			instance_key VARCHAR(255) UNIQUE NOT NULL,
			token TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			connection_status VARCHAR(20),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"message_templates", `
		CREATE TABLE IF NOT EXISTS message_templates (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status_key VARCHAR(20) NOT NULL,
			template TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, status_key)
		)`},
	{"message_logs", `
		CREATE TABLE IF NOT EXISTS message_logs (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			client_id UUID NOT NULL,
			status_key VARCHAR(20) NOT NULL,
			template TEXT NOT NULL,
			status VARCHAR(20) NOT NULL,
			error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"message_logs_dedup_idx", `CREATE INDEX IF NOT EXISTS message_logs_client_stage_idx ON message_logs (client_id, status_key, created_at)`},
	{"message_usage", `
		CREATE TABLE IF NOT EXISTS message_usage (
			user_id UUID NOT NULL,
			date DATE NOT NULL,
			messages_sent INT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, date)
		)`},
	{"audit_logs", `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			actor_id UUID NOT NULL,
			action VARCHAR(100) NOT NULL,
			target_type VARCHAR(50),
			target_id VARCHAR(255),
			details JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"whatsapp_notifications", `
		CREATE TABLE IF NOT EXISTS whatsapp_notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			instance_id UUID NOT NULL,
			title VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			metadata JSONB,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"user_preferences", `
		CREATE TABLE IF NOT EXISTS user_preferences (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			key VARCHAR(64) NOT NULL,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, key)
		)`},
	{"dispatch_leases", `
		CREATE TABLE IF NOT EXISTS dispatch_leases (
			name VARCHAR(100) PRIMARY KEY,
			holder VARCHAR(64) NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`},
}

func (p *PostgresClient) Migrate(ctx context.Context) error {
	for _, step := range schema {
		if _, err := p.Pool.Exec(ctx, step.ddl); err != nil {
			return fmt.Errorf("create %s: %w", step.name, err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("database schema ready")
	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
