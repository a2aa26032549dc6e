package attr

import (
	"context"
	"errors"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Equal(t, "", Error(nil).Value.String())
}

func TestExtractCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	got := ExtractCorrelationID(ctx)
	assert.Equal(t, "correlation_id", got.Key)
	assert.Equal(t, "req-123", got.Value.String())

	assert.Equal(t, "", ExtractCorrelationID(context.Background()).Value.String())
}
