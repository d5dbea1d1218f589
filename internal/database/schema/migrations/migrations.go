// Package migrations holds the versioned schema for the marketplace tables.
// Each migration carries both PostgreSQL and SQLite DDL; the migrator picks
// the one matching the backend the fallback logic selected.
package migrations

import "github.com/tsucess/paeshift-backend-sub001/internal/database/schema"

var CreateUsersTables = schema.Migration{
	Version:     1,
	Description: "Create users and profiles tables",
	UpPostgres: `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			google_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS profiles (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			phone TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0
		);
	`,
	UpSQLite: `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			google_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			phone TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			average_rating REAL NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0
		);
	`,
	DownPostgres: `DROP TABLE IF EXISTS profiles; DROP TABLE IF EXISTS users;`,
	DownSQLite:   `DROP TABLE IF EXISTS profiles; DROP TABLE IF EXISTS users;`,
}

var CreateIndustryTables = schema.Migration{
	Version:     2,
	Description: "Create job industry and subcategory tables",
	UpPostgres: `
		CREATE TABLE IF NOT EXISTS job_industries (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS job_subcategories (
			id BIGSERIAL PRIMARY KEY,
			industry_id BIGINT NOT NULL REFERENCES job_industries(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			UNIQUE (industry_id, name)
		);
	`,
	UpSQLite: `
		CREATE TABLE IF NOT EXISTS job_industries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS job_subcategories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			industry_id INTEGER NOT NULL REFERENCES job_industries(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			UNIQUE (industry_id, name)
		);
	`,
	DownPostgres: `DROP TABLE IF EXISTS job_subcategories; DROP TABLE IF EXISTS job_industries;`,
	DownSQLite:   `DROP TABLE IF EXISTS job_subcategories; DROP TABLE IF EXISTS job_industries;`,
}

var CreateJobsTable = schema.Migration{
	Version:     3,
	Description: "Create jobs table",
	UpPostgres: `
		CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY,
			posted_by UUID NOT NULL REFERENCES users(id),
			industry_id BIGINT NOT NULL REFERENCES job_industries(id),
			subcategory_id BIGINT NOT NULL REFERENCES job_subcategories(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			rate_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			rate_currency TEXT NOT NULL DEFAULT 'NGN',
			payment_type TEXT NOT NULL DEFAULT 'fixed',
			status TEXT NOT NULL DEFAULT 'open',
			applicants_needed INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
		CREATE INDEX IF NOT EXISTS idx_jobs_industry ON jobs(industry_id);
	`,
	UpSQLite: `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			posted_by TEXT NOT NULL REFERENCES users(id),
			industry_id INTEGER NOT NULL REFERENCES job_industries(id),
			subcategory_id INTEGER NOT NULL REFERENCES job_subcategories(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			rate_amount REAL NOT NULL DEFAULT 0,
			rate_currency TEXT NOT NULL DEFAULT 'NGN',
			payment_type TEXT NOT NULL DEFAULT 'fixed',
			status TEXT NOT NULL DEFAULT 'open',
			applicants_needed INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
		CREATE INDEX IF NOT EXISTS idx_jobs_industry ON jobs(industry_id);
	`,
	DownPostgres: `DROP TABLE IF EXISTS jobs;`,
	DownSQLite:   `DROP TABLE IF EXISTS jobs;`,
}

var CreateApplicationsTable = schema.Migration{
	Version:     4,
	Description: "Create applications table",
	UpPostgres: `
		CREATE TABLE IF NOT EXISTS applications (
			id BIGSERIAL PRIMARY KEY,
			job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			applicant_id UUID NOT NULL REFERENCES users(id),
			cover_note TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			applied_at TIMESTAMPTZ NOT NULL,
			UNIQUE (job_id, applicant_id)
		);
	`,
	UpSQLite: `
		CREATE TABLE IF NOT EXISTS applications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			applicant_id TEXT NOT NULL REFERENCES users(id),
			cover_note TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			applied_at TIMESTAMP NOT NULL,
			UNIQUE (job_id, applicant_id)
		);
	`,
	DownPostgres: `DROP TABLE IF EXISTS applications;`,
	DownSQLite:   `DROP TABLE IF EXISTS applications;`,
}

var CreatePaymentsTable = schema.Migration{
	Version:     5,
	Description: "Create payments table",
	UpPostgres: `
		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			payer_id UUID NOT NULL REFERENCES users(id),
			recipient_id UUID NOT NULL REFERENCES users(id),
			job_id UUID NOT NULL REFERENCES jobs(id),
			amount DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'NGN',
			reference TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL,
			verified_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_payments_payer ON payments(payer_id);
		CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
	`,
	UpSQLite: `
		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			payer_id TEXT NOT NULL REFERENCES users(id),
			recipient_id TEXT NOT NULL REFERENCES users(id),
			job_id TEXT NOT NULL REFERENCES jobs(id),
			amount REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT 'NGN',
			reference TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			verified_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_payments_payer ON payments(payer_id);
		CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
	`,
	DownPostgres: `DROP TABLE IF EXISTS payments;`,
	DownSQLite:   `DROP TABLE IF EXISTS payments;`,
}

var CreateReviewsTable = schema.Migration{
	Version:     6,
	Description: "Create reviews table",
	UpPostgres: `
		CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			reviewer_id UUID NOT NULL REFERENCES users(id),
			reviewed_id UUID NOT NULL REFERENCES users(id),
			job_id UUID NOT NULL REFERENCES jobs(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (job_id, reviewer_id)
		);
	`,
	UpSQLite: `
		CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reviewer_id TEXT NOT NULL REFERENCES users(id),
			reviewed_id TEXT NOT NULL REFERENCES users(id),
			job_id TEXT NOT NULL REFERENCES jobs(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE (job_id, reviewer_id)
		);
	`,
	DownPostgres: `DROP TABLE IF EXISTS reviews;`,
	DownSQLite:   `DROP TABLE IF EXISTS reviews;`,
}

// All lists every migration in apply order.
func All() []schema.Migration {
	return []schema.Migration{
		CreateUsersTables,
		CreateIndustryTables,
		CreateJobsTable,
		CreateApplicationsTable,
		CreatePaymentsTable,
		CreateReviewsTable,
	}
}
