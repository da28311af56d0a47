package rowstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

var testTable = Table{
	Name: "things",
	Key:  []ColumnSpec{{Name: "owner", Kind: KindString}, {Name: "id", Kind: KindString}},
	Columns: []ColumnSpec{
		{Name: "count", Kind: KindInt},
		{Name: "label", Kind: KindString},
		{Name: "ratio", Kind: KindFloat},
		{Name: "done", Kind: KindBool},
		{Name: VersionColumn, Kind: KindInt},
	},
}

func TestMemoryStoreGetMissingRow(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetRow(context.Background(), testTable, Key{"u1", "a"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePutExpectNotExist(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{"u1", "a"}

	require.NoError(t, s.PutRow(ctx, testTable, key, []Column{{Name: "count", Value: 1}}, ExpectNotExist))
	err := s.PutRow(ctx, testTable, key, []Column{{Name: "count", Value: 2}}, ExpectNotExist)
	require.ErrorIs(t, err, ErrConditionFailed)

	row, err := s.GetRow(ctx, testTable, key)
	require.NoError(t, err)
	require.Equal(t, int64(1), row.Int("count"))
	require.Equal(t, "u1", row.String("owner"))
	require.Equal(t, "a", row.String("id"))
}

func TestMemoryStoreUpdateKeepsOtherColumns(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{"u1", "a"}

	require.NoError(t, s.UpdateRow(ctx, testTable, key, []Column{{Name: "label", Value: "x"}}, Condition{}))
	require.NoError(t, s.UpdateRow(ctx, testTable, key, []Column{{Name: "done", Value: true}}, Condition{}))

	row, err := s.GetRow(ctx, testTable, key)
	require.NoError(t, err)
	require.Equal(t, "x", row.String("label"))
	require.True(t, row.Bool("done"))
	require.False(t, row.Has("count"))
}

func TestMemoryStoreUpdateExpectExist(t *testing.T) {
	err := NewMemoryStore().UpdateRow(context.Background(), testTable, Key{"u1", "a"},
		[]Column{{Name: "count", Value: 1}}, Condition{Existence: ExpectExist})
	require.ErrorIs(t, err, ErrConditionFailed)
}

func TestMemoryStoreRejectsUnknownColumn(t *testing.T) {
	err := NewMemoryStore().UpdateRow(context.Background(), testTable, Key{"u1", "a"},
		[]Column{{Name: "nope", Value: 1}}, Condition{})
	require.Error(t, err)
}

func TestMemoryStoreGetRangeOrdersWithinPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, s.PutRow(ctx, testTable, Key{"u1", id}, nil, Ignore))
	}
	require.NoError(t, s.PutRow(ctx, testTable, Key{"u2", "z"}, nil, Ignore))

	rows, err := s.GetRange(ctx, testTable, Key{"u1"}, Forward, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "a", rows[0].String("id"))
	require.Equal(t, "c", rows[2].String("id"))

	rows, err = s.GetRange(ctx, testTable, Key{"u1"}, Backward, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "c", rows[0].String("id"))
	require.Equal(t, "b", rows[1].String("id"))
}

func TestMemoryStoreGetRangeRejectsFullKeyPrefix(t *testing.T) {
	_, err := NewMemoryStore().GetRange(context.Background(), testTable, Key{"u1", "a"}, Forward, 0)
	require.Error(t, err)
}

func TestRowAccessorsNormalizeNumbers(t *testing.T) {
	row := Row{"i": int64(3), "f": 2.5, "n": 7}
	require.Equal(t, int64(3), row.Int("i"))
	require.Equal(t, int64(7), row.Int("n"))
	require.Equal(t, 3.0, row.Float("i"))
	require.Equal(t, 2.5, row.Float("f"))
	require.Equal(t, int64(0), row.Int("missing"))
}
