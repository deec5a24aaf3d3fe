// Package redis manages the Redis connection used by the distributed tenant
// cache: retrying connect from environment configuration plus a health probe.
package redis
