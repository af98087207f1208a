package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		type VARCHAR(32) NOT NULL DEFAULT 'OTHER',
		website TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		organization_id UUID REFERENCES organizations(id) ON DELETE SET NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS deals (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		type VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE',
		stage VARCHAR(32) NOT NULL DEFAULT 'PITCH',
		project_step VARCHAR(32) NOT NULL DEFAULT 'PITCH',
		expected_value NUMERIC(18,2) NOT NULL DEFAULT 0,
		fee_retainer NUMERIC(18,2) NOT NULL DEFAULT 0,
		fee_success NUMERIC(18,2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'EUR',
		lead_contact_id UUID REFERENCES contacts(id) ON DELETE SET NULL,
		client_organization_id UUID REFERENCES organizations(id) ON DELETE SET NULL,
		portal_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		portal_password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT deals_stage_check CHECK (stage IN ('PITCH', 'MANDATE', 'CLOSING', 'ARCHIVED'))
	);`,
	`CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals (stage);`,
	`CREATE TABLE IF NOT EXISTS deal_pipeline_history (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		deal_id UUID NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		stage VARCHAR(32) NOT NULL,
		entered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		exited_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_deal_pipeline_history_deal_id ON deal_pipeline_history (deal_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_deal_pipeline_history_open ON deal_pipeline_history (deal_id) WHERE exited_at IS NULL;`,
	`CREATE TABLE IF NOT EXISTS deal_investors (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		deal_id UUID NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE RESTRICT,
		status VARCHAR(32) NOT NULL DEFAULT 'LONGLIST',
		nda_sent_at TIMESTAMPTZ,
		nda_signed_at TIMESTAMPTZ,
		im_sent_at TIMESTAMPTZ,
		email_sent_at TIMESTAMPTZ,
		notes TEXT NOT NULL DEFAULT '',
		feedback TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_deal_investor ON deal_investors (deal_id, organization_id);`,
	`CREATE TABLE IF NOT EXISTS deal_team_members (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		deal_id UUID NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		role VARCHAR(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS deal_activities (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		deal_id UUID NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		author TEXT NOT NULL DEFAULT '',
		kind VARCHAR(32) NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_deal_activities_deal_id ON deal_activities (deal_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS deal_documents (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		deal_id UUID NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		object_key TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		size BIGINT NOT NULL DEFAULT 0,
		uploaded_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		deal_id UUID REFERENCES deals(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority VARCHAR(16) NOT NULL DEFAULT 'MEDIUM',
		assignee TEXT NOT NULL DEFAULT '',
		due_at TIMESTAMPTZ,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS calendar_events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		deal_id UUID REFERENCES deals(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		type VARCHAR(16) NOT NULL DEFAULT 'OTHER',
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ,
		location TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_events_starts_at ON calendar_events (starts_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
