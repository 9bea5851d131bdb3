package snapshot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPgErrCode(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	require.Equal(t, "23505", pgErrCode(pgErr))
	require.Equal(t, "23505", pgErrCode(fmt.Errorf("exec: %w", pgErr)))

	require.Empty(t, pgErrCode(errors.New("connection refused")))
	require.Empty(t, pgErrCode(nil))
}
