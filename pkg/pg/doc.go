// Package pg manages the platform PostgreSQL connection: retrying pool
// setup from environment configuration, goose schema migrations, and a
// health probe. The tenant directory's Postgres implementation builds on the
// pool created here.
package pg
