package provider

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gopkg.in/reform.v1"
	"gopkg.in/reform.v1/dialects/postgresql"
)

func TestStoreOrderLifecycle(t *testing.T) {
	pgConn := os.Getenv("PG_CONN")
	if pgConn == "" {
		t.Skip("PG_CONN is not set")
	}
	sqlDB, err := sql.Open("postgres", pgConn)
	require.NoError(t, err)
	defer sqlDB.Close()
	db := reform.NewDB(sqlDB, postgresql.Dialect, nil)
	s := &Store{DB: db}

	const paypal Provider = "paypal"
	ordID := fmt.Sprintf("TEST_%d", time.Now().UnixNano())

	require.NoError(t, s.NewOrder(ordID, paypal, "CREATED", "25.00", "USD", false))

	so, err := s.GetByOrderID(ordID, paypal)
	require.NoError(t, err)
	require.Equal(t, "CREATED", so.RawOrderStatus)
	require.Equal(t, "25.00", so.Amount)
	require.Equal(t, "USD", so.Currency)
	require.False(t, so.Demo)
	require.Nil(t, so.NotifiedAt)

	require.NoError(t, s.SetStatus(ordID, paypal, "COMPLETED"))
	so, err = s.GetByOrderID(ordID, paypal)
	require.NoError(t, err)
	require.Equal(t, "COMPLETED", so.RawOrderStatus)

	require.NoError(t, s.SetNotified(ordID, paypal, time.Now()))
	so, err = s.GetByOrderID(ordID, paypal)
	require.NoError(t, err)
	require.NotNil(t, so.NotifiedAt)

	_, err = s.GetByOrderID("UNKNOWN_"+ordID, paypal)
	require.Equal(t, reform.ErrNoRows, err)
}

func TestFormatOrderID(t *testing.T) {
	require.Equal(t, "pw-paypal-5O190127TN364715T", formatOrderID("paypal", "5O190127TN364715T"))
}
