package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(fmt.Errorf("save: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("deadlock")))
	assert.False(t, IsRetryable(nil))
}

func TestTxContext(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, TxFromContext(ctx))

	tx := &gorm.DB{}
	assert.Same(t, tx, TxFromContext(ContextWithTx(ctx, tx)))
	assert.Same(t, tx, Conn(ContextWithTx(ctx, tx), nil))
}

func TestUnitOfWorkRequiresDB(t *testing.T) {
	err := NewUnitOfWork(nil).RunInTx(context.Background(), func(context.Context) error { return nil })
	require.Error(t, err)
}
