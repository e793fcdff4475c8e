package sitemap

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestEditTransactionsReadCommitted(t *testing.T) {
	// Under RepeatableRead a second FOR UPDATE on a row changed by a
	// concurrent commit fails with 40001 instead of waiting and re-reading.
	assert.Equal(t, pgx.ReadCommitted, editIsolation)
}

func TestNullable(t *testing.T) {
	assert.False(t, nullable(nil).Valid)
	assert.False(t, nullable(strp("")).Valid)
	got := nullable(strp("q-1"))
	assert.True(t, got.Valid)
	assert.Equal(t, "q-1", got.String)
}
