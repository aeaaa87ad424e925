package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTracerProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled provider is inert", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{Enabled: false}, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.False(t, tp.IsEnabled())
		assert.NoError(t, tp.EnableSpanProfiles())
		assert.NoError(t, tp.Shutdown(ctx))
	})

	t.Run("enabled provider exports and shuts down", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{
			Enabled:           true,
			CollectorEndpoint: "localhost:4317",
			SamplingRatio:     1.0,
			ServiceName:       "syncbridge-test",
			Insecure:          true,
		}, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.True(t, tp.IsEnabled())
		assert.NoError(t, tp.Shutdown(ctx))
	})

	t.Run("span profiles toggle is idempotent", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{
			Enabled:           true,
			CollectorEndpoint: "localhost:4317",
			SamplingRatio:     0.5,
			ServiceName:       "syncbridge-test",
			Insecure:          true,
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer func() { _ = tp.Shutdown(ctx) }()

		require.NoError(t, tp.EnableSpanProfiles())
		require.NoError(t, tp.EnableSpanProfiles())
		assert.True(t, tp.spanProfilesEnabled)
	})

	t.Run("zero sampling ratio still builds a provider", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{
			Enabled:           true,
			CollectorEndpoint: "localhost:4317",
			SamplingRatio:     0.0,
			ServiceName:       "syncbridge-test",
			Insecure:          true,
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.True(t, tp.IsEnabled())
		assert.NoError(t, tp.Shutdown(ctx))
	})
}
