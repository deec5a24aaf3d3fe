// Package mongo manages the MongoDB connection for deployments using the
// document-store tenant directory: retrying connect from environment
// configuration plus a health probe.
package mongo
