package billing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamweelsys/fawtara/internal/shared"
)

func TestStoreErrClassifiesOutage(t *testing.T) {
	err := storeErr("list grouped orders", errors.New("dial tcp: connection refused"))
	require.ErrorIs(t, err, shared.ErrStoreUnavailable)
	require.True(t, shared.Retryable(err))
	require.Contains(t, err.Error(), "list grouped orders")
}

func TestStoreErrPassesNil(t *testing.T) {
	require.NoError(t, storeErr("list grouped orders", nil))
}
