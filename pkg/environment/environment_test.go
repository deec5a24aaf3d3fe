package environment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covergrid/tenantcore/pkg/environment"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := environment.WithContext(context.Background(), environment.Staging)
	assert.Equal(t, environment.Staging, environment.FromContext(ctx))
}

func TestFromContextDefaultsToDevelopment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, environment.Development, environment.FromContext(context.Background()))
}

func TestIsProduction(t *testing.T) {
	t.Parallel()

	assert.True(t, environment.IsProduction(
		environment.WithContext(context.Background(), environment.Production)))
	assert.False(t, environment.IsProduction(context.Background()))
}
