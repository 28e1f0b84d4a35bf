package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid_level", func(t *testing.T) {
		logger := New(LoggerConfig{Level: "debug"})
		require.NotNil(t, logger)
		assert.NotNil(t, logger.Debug())
	})

	t.Run("invalid_level_defaults_to_info", func(t *testing.T) {
		logger := New(LoggerConfig{Level: "chatty"})
		require.NotNil(t, logger)
	})
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestIDContext(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
}
