// Package db provides the embedded PostgreSQL schema for the catalog and cart
// stores.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string
