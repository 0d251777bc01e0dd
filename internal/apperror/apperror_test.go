package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"storefront/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(apperror.Validation("bad input")))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(apperror.NotFound("product %s not found", "1")))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(apperror.Conflict("duplicate")))
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("outer: %w", apperror.NotFound("cart %s not found", "7"))
	assert.True(t, apperror.Is(wrapped, apperror.KindNotFound))
	assert.False(t, apperror.Is(nil, apperror.KindInternal))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperror.Internal("failed to list products", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to list products: connection refused", err.Error())
	assert.Equal(t, "not_found", apperror.KindNotFound.String())
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "cart 7 not found", apperror.PublicMessage(apperror.NotFound("cart %s not found", "7")))
	assert.Equal(t, "internal server error", apperror.PublicMessage(apperror.Internal("failed to list products", errors.New("disk full"))))
	assert.Equal(t, "internal server error", apperror.PublicMessage(errors.New("boom")))
}
