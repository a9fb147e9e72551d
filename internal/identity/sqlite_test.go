package identity

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS local_storage`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	slot, err := NewSQLiteSlot(ctx, db)
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM local_storage WHERE key = ?`)).
			WithArgs("health_id").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, ok, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("save and load", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO local_storage (key, value) VALUES (?, ?)`)).
			WithArgs("health_id", "H1").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM local_storage WHERE key = ?`)).
			WithArgs("health_id").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("H1"))

		require.NoError(t, slot.Save(ctx, "H1"))
		v, ok, err := slot.Load(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "H1", v)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSQLiteSlot_RequiresPath(t *testing.T) {
	_, err := OpenSQLiteSlot(context.Background(), "")
	assert.Error(t, err)
}
