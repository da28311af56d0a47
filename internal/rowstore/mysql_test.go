package rowstore

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestCreateTableSQL(t *testing.T) {
	ddl := createTableSQL(testTable)
	require.True(t, strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS `things`"))
	require.Contains(t, ddl, "`owner` VARCHAR(64) NOT NULL")
	require.Contains(t, ddl, "`count` BIGINT NULL")
	require.Contains(t, ddl, "`ratio` DOUBLE NULL")
	require.Contains(t, ddl, "`done` TINYINT(1) NULL")
	require.Contains(t, ddl, "`label` TEXT NULL")
	require.Contains(t, ddl, "PRIMARY KEY (`owner`, `id`)")
}

func TestIsDuplicate(t *testing.T) {
	require.True(t, isDuplicate(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	require.False(t, isDuplicate(&mysql.MySQLError{Number: 1213}))
	require.False(t, isDuplicate(errors.New("1062")))
}

func TestRowFromDestSkipsNulls(t *testing.T) {
	specs := allSpecs(testTable)
	dest := scanDest(specs)
	require.NoError(t, dest[0].(*sql.NullString).Scan("u1"))
	require.NoError(t, dest[1].(*sql.NullString).Scan("a"))
	require.NoError(t, dest[2].(*sql.NullInt64).Scan(int64(4)))

	row := rowFromDest(specs, dest)
	require.Equal(t, "u1", row.String("owner"))
	require.Equal(t, int64(4), row.Int("count"))
	require.False(t, row.Has("label"))
	require.False(t, row.Has(VersionColumn))
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "?, ?, ?", placeholders(3))
	require.Equal(t, "?", placeholders(1))
}
