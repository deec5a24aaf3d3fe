package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covergrid/tenantcore/pkg/environment"
	"github.com/covergrid/tenantcore/pkg/logger"
	"github.com/covergrid/tenantcore/pkg/tenant"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))

		log.Info("hello")

		record := decodeRecord(t, &buf)
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "INFO", record["level"])
	})

	t.Run("static attributes on every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "tenantcore")),
		)

		log.Info("hello")

		record := decodeRecord(t, &buf)
		assert.Equal(t, "tenantcore", record["service"])
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))

		log.Info("dropped")
		assert.Zero(t, buf.Len())

		log.Warn("kept")
		assert.NotZero(t, buf.Len())
	})

	t.Run("environment defaults", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithEnvironment(environment.Production, "tenantcore"),
		)

		log.Debug("dropped in production")
		assert.Zero(t, buf.Len())

		log.Info("kept")
		record := decodeRecord(t, &buf)
		assert.Equal(t, "tenantcore", record["service"])
		assert.Equal(t, "production", record["env"])
	})

	t.Run("invalid format panics at startup", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat("xml"))
		})
	})
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	t.Run("tenant id injected inside a scope", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(tenant.LogAttr()),
		)

		ctx := tenant.WithScope(context.Background(), &tenant.Tenant{
			ID: 42, Identifier: "acme", Active: true,
		})
		log.InfoContext(ctx, "processing claim")

		record := decodeRecord(t, &buf)
		assert.Equal(t, float64(42), record["tenant_id"])
	})

	t.Run("no attribute outside a scope", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(tenant.LogAttr()),
		)

		log.InfoContext(context.Background(), "boot")

		record := decodeRecord(t, &buf)
		_, present := record["tenant_id"]
		assert.False(t, present)
	})

	t.Run("nil extractors are ignored", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(nil, tenant.LogAttr()),
		)

		log.InfoContext(context.Background(), "boot")
		assert.NotZero(t, buf.Len())
	})
}
