package session

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
)

// ViewedLimit caps the recently viewed list.
const ViewedLimit = 20

// UserInfo is the caller's aggregate for one workout.
type UserInfo struct {
	FinishedCount int64 `json:"finishedCount"`
	FinishedAt    int64 `json:"finishedAt,omitempty"`
	ViewedAt      int64 `json:"viewedAt,omitempty"`
}

// WorkoutDetail is a catalog entry joined with the caller's aggregate.
// UserInfo is nil when the caller never touched the workout.
type WorkoutDetail struct {
	model.Workout
	UserInfo *UserInfo `json:"userInfo"`
}

// HistoryEntry is one completed session as shown in the history list.
type HistoryEntry struct {
	SessionID          string `json:"sessionId"`
	WorkoutID          string `json:"workoutId"`
	FinishedAt         int64  `json:"finishedAt"`
	Title              string `json:"title"`
	CoverImage         string `json:"coverImage"`
	EstCalories        int64  `json:"estCalories"`
	WorkoutTypeDisplay string `json:"workoutTypeDisplay"`
	DurationDisplay    string `json:"durationDisplay"`
	DateDisplay        string `json:"dateDisplay"`
}

// HistoryMonth groups history entries of one calendar month.
type HistoryMonth struct {
	Month   string         `json:"month"`
	Entries []HistoryEntry `json:"entries"`
}

var historyZone = loadHistoryZone()

func loadHistoryZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// GetWorkout returns a catalog entry with the caller's aggregate.
func (s *Service) GetWorkout(ctx context.Context, userID, workoutID string) (WorkoutDetail, error) {
	if userID == "" || workoutID == "" {
		return WorkoutDetail{}, missing("userId, workoutId")
	}
	workout, err := s.workout(ctx, "getWorkout", workoutID)
	if err != nil {
		return WorkoutDetail{}, err
	}
	detail := WorkoutDetail{Workout: workout}
	agg, err := s.aggregates.Get(ctx, userID, workoutID)
	switch {
	case err == nil:
		detail.UserInfo = &UserInfo{FinishedCount: agg.FinishedCount, FinishedAt: agg.FinishedAt, ViewedAt: agg.ViewedAt}
	case !errors.Is(err, repository.ErrNotFound):
		return WorkoutDetail{}, readErr("getWorkout", model.UserWorkoutsTable.Name, err)
	}
	return detail, nil
}

// GetViewedWorkouts returns the most recently viewed workouts, newest first.
func (s *Service) GetViewedWorkouts(ctx context.Context, userID string) ([]WorkoutDetail, error) {
	aggs, catalog, err := s.userWorkouts(ctx, "getViewedWorkouts", userID)
	if err != nil {
		return nil, err
	}
	viewed := aggs[:0]
	for _, a := range aggs {
		if a.ViewedAt > 0 {
			viewed = append(viewed, a)
		}
	}
	sort.SliceStable(viewed, func(i, j int) bool { return viewed[i].ViewedAt > viewed[j].ViewedAt })

	out := make([]WorkoutDetail, 0, min(len(viewed), ViewedLimit))
	for _, a := range viewed {
		if len(out) == ViewedLimit {
			break
		}
		w, ok := catalog[a.WorkoutID]
		if !ok {
			continue
		}
		out = append(out, WorkoutDetail{Workout: w, UserInfo: &UserInfo{ViewedAt: a.ViewedAt}})
	}
	return out, nil
}

// GetFinishedWorkouts returns every workout the user completed at least
// once, most recently finished first.
func (s *Service) GetFinishedWorkouts(ctx context.Context, userID string) ([]WorkoutDetail, error) {
	aggs, catalog, err := s.userWorkouts(ctx, "getFinishedWorkouts", userID)
	if err != nil {
		return nil, err
	}
	finished := aggs[:0]
	for _, a := range aggs {
		if a.FinishedCount > 0 {
			finished = append(finished, a)
		}
	}
	sort.SliceStable(finished, func(i, j int) bool { return finished[i].FinishedAt > finished[j].FinishedAt })

	out := make([]WorkoutDetail, 0, len(finished))
	for _, a := range finished {
		w, ok := catalog[a.WorkoutID]
		if !ok {
			continue
		}
		out = append(out, WorkoutDetail{Workout: w, UserInfo: &UserInfo{
			FinishedCount: a.FinishedCount,
			FinishedAt:    a.FinishedAt,
			ViewedAt:      a.ViewedAt,
		}})
	}
	return out, nil
}

// GetHistory lists completed sessions grouped by month in China Standard
// Time, newest first.  Sessions of workouts no longer in the catalog are
// skipped.
func (s *Service) GetHistory(ctx context.Context, userID string) ([]HistoryMonth, error) {
	if userID == "" {
		return nil, missing("userId")
	}
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrap(ErrRangeFailed, "getHistory", model.SessionsTable.Name, err)
	}
	catalog, err := s.catalog.All(ctx)
	if err != nil {
		return nil, readErr("getHistory", model.WorkoutsTable.Name, err)
	}

	done := sessions[:0]
	for _, sess := range sessions {
		if sess.Completed {
			done = append(done, sess)
		}
	}
	sort.SliceStable(done, func(i, j int) bool { return done[i].UpdatedAt > done[j].UpdatedAt })

	var months []HistoryMonth
	for _, sess := range done {
		w, ok := catalog[sess.WorkoutID]
		if !ok {
			continue
		}
		at := time.UnixMilli(sess.FinishedAt).In(historyZone)
		month := at.Format("2006 年 1 月")
		if len(months) == 0 || months[len(months)-1].Month != month {
			months = append(months, HistoryMonth{Month: month})
		}
		last := &months[len(months)-1]
		last.Entries = append(last.Entries, HistoryEntry{
			SessionID:          sess.SessionID,
			WorkoutID:          sess.WorkoutID,
			FinishedAt:         sess.FinishedAt,
			Title:              w.Title,
			CoverImage:         w.CoverImage,
			EstCalories:        w.EstCalories,
			WorkoutTypeDisplay: model.WorkoutTypeDisplay(w.WorkoutType),
			DurationDisplay:    model.DurationDisplay(w.Duration),
			DateDisplay:        at.Format("1月2日"),
		})
	}
	return months, nil
}

func (s *Service) userWorkouts(ctx context.Context, op, userID string) ([]model.UserWorkout, map[string]model.Workout, error) {
	if userID == "" {
		return nil, nil, missing("userId")
	}
	aggs, err := s.aggregates.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, wrap(ErrRangeFailed, op, model.UserWorkoutsTable.Name, err)
	}
	catalog, err := s.catalog.All(ctx)
	if err != nil {
		return nil, nil, readErr(op, model.WorkoutsTable.Name, err)
	}
	return aggs, catalog, nil
}
