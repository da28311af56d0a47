package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pulse-workout-sessions/internal/config"
)

func TestDSNEnablesFoundRows(t *testing.T) {
	dsn := DSN(config.Config{DBUser: "app", DBPass: "s3cret", DBHost: "db", DBPort: "3306", DBName: "pulse"})

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "app", mc.User)
	require.Equal(t, "s3cret", mc.Passwd)
	require.Equal(t, "db:3306", mc.Addr)
	require.Equal(t, "pulse", mc.DBName)
	require.True(t, mc.ClientFoundRows)
	require.True(t, mc.ParseTime)
	require.Equal(t, time.UTC, mc.Loc)
}
