package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyGormError(t *testing.T) {
	assert.NoError(t, classifyGormError(nil))
	assert.ErrorIs(t, classifyGormError(gorm.ErrRecordNotFound), ErrNotFound)

	down := classifyGormError(&pgconn.PgError{Code: "08006"})
	assert.ErrorIs(t, down, ErrStoreUnavailable)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(down, &pgErr), "penyebab asli tetap bisa di-unwrap")

	assert.ErrorIs(t, classifyGormError(&pq.Error{Code: "57014"}), ErrStoreUnavailable)
	assert.ErrorIs(t, classifyGormError(fmt.Errorf("query: %w", context.DeadlineExceeded)), ErrStoreUnavailable)

	unique := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, unique, classifyGormError(unique))
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))

	assert.False(t, IsUnavailableError(context.Canceled))
}
