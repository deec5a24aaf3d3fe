// Package config loads typed configuration structs from environment
// variables, with one parse per type for the process lifetime and optional
// .env bootstrap for local development.
package config
