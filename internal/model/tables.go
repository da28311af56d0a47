package model

import "github.com/iliyamo/pulse-workout-sessions/internal/rowstore"

// Table schemas of the row store.  Column names are the stored names;
// entities translate to and from them in their FromRow/Columns helpers.
var (
	UsersTable = rowstore.Table{
		Name: "users",
		Key:  []rowstore.ColumnSpec{{Name: "uuid", Kind: rowstore.KindString}},
		Columns: []rowstore.ColumnSpec{
			{Name: "latest_session_id", Kind: rowstore.KindString},
			{Name: "vip_expired_at", Kind: rowstore.KindInt},
			{Name: rowstore.VersionColumn, Kind: rowstore.KindInt},
		},
	}

	SessionsTable = rowstore.Table{
		Name: "workout_sessions",
		Key: []rowstore.ColumnSpec{
			{Name: "uuid", Kind: rowstore.KindString},
			{Name: "sid", Kind: rowstore.KindString},
		},
		Columns: []rowstore.ColumnSpec{
			{Name: "wid", Kind: rowstore.KindString},
			{Name: "started_at", Kind: rowstore.KindInt},
			{Name: "touch_count", Kind: rowstore.KindInt},
			{Name: "playhead", Kind: rowstore.KindFloat},
			{Name: "completed", Kind: rowstore.KindBool},
			{Name: "finished_at", Kind: rowstore.KindInt},
			{Name: rowstore.VersionColumn, Kind: rowstore.KindInt},
		},
	}

	ActionsTable = rowstore.Table{
		Name: "actions",
		Key: []rowstore.ColumnSpec{
			{Name: "uuid", Kind: rowstore.KindString},
			{Name: "wid", Kind: rowstore.KindString},
			{Name: "action_id", Kind: rowstore.KindString},
		},
		Columns: []rowstore.ColumnSpec{
			{Name: "created_at", Kind: rowstore.KindInt},
			{Name: "type", Kind: rowstore.KindString},
			{Name: "start_action_id", Kind: rowstore.KindString},
			{Name: "duration", Kind: rowstore.KindInt},
			{Name: "completed", Kind: rowstore.KindBool},
			{Name: "referrer_uid", Kind: rowstore.KindString},
			{Name: "referrer_gid", Kind: rowstore.KindString},
		},
	}

	UserWorkoutsTable = rowstore.Table{
		Name: "user_workouts",
		Key: []rowstore.ColumnSpec{
			{Name: "uuid", Kind: rowstore.KindString},
			{Name: "wid", Kind: rowstore.KindString},
		},
		Columns: []rowstore.ColumnSpec{
			{Name: "created_at", Kind: rowstore.KindInt},
			{Name: "viewed_at", Kind: rowstore.KindInt},
			{Name: "finished_at", Kind: rowstore.KindInt},
			{Name: "finished_count", Kind: rowstore.KindInt},
			{Name: "max_token_expired_at", Kind: rowstore.KindInt},
			{Name: rowstore.VersionColumn, Kind: rowstore.KindInt},
		},
	}

	WorkoutsTable = rowstore.Table{
		Name: "workouts",
		Key:  []rowstore.ColumnSpec{{Name: "workout_id", Kind: rowstore.KindString}},
		Columns: []rowstore.ColumnSpec{
			{Name: "title", Kind: rowstore.KindString},
			{Name: "duration", Kind: rowstore.KindInt},
			{Name: "est_calories", Kind: rowstore.KindInt},
			{Name: "workout_type", Kind: rowstore.KindString},
			{Name: "cover_image", Kind: rowstore.KindString},
			{Name: "released_at", Kind: rowstore.KindInt},
		},
	}

	WorkoutTokensTable = rowstore.Table{
		Name: "workout_tokens",
		Key:  []rowstore.ColumnSpec{{Name: "w_token", Kind: rowstore.KindString}},
		Columns: []rowstore.ColumnSpec{
			{Name: "wids", Kind: rowstore.KindString},
			{Name: "expired_at", Kind: rowstore.KindInt},
		},
	}
)

// AllTables lists every table, in the order the schema is created.
func AllTables() []rowstore.Table {
	return []rowstore.Table{UsersTable, SessionsTable, ActionsTable, UserWorkoutsTable, WorkoutsTable, WorkoutTokensTable}
}
