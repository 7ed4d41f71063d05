package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTxIgnoresNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)

	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestExecPrefersContextTransaction(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Exec(context.Background(), db))

	sqlTx := &sql.Tx{}
	assert.Same(t, sqlTx, Exec(WithTx(context.Background(), sqlTx), db))
}
