package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
)

// Seed is the content of a catalog seed file, used to populate an empty
// store for local development:
//
//	workouts:
//	  - id: w1
//	    title: Morning run
//	    duration: 600
//	tokens:
//	  - token: share-1
//	    workouts: [w1]
//	    expired_at: 1893456000000
//	users:
//	  - id: u1
//	    vip_expired_at: 1893456000000
type Seed struct {
	Workouts []SeedWorkout `yaml:"workouts"`
	Tokens   []SeedToken   `yaml:"tokens"`
	Users    []SeedUser    `yaml:"users"`
}

type SeedWorkout struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Duration    int64  `yaml:"duration"`
	EstCalories int64  `yaml:"est_calories"`
	WorkoutType string `yaml:"workout_type"`
	CoverImage  string `yaml:"cover_image"`
	ReleasedAt  int64  `yaml:"released_at"`
}

type SeedToken struct {
	Token     string   `yaml:"token"`
	Workouts  []string `yaml:"workouts"`
	ExpiredAt int64    `yaml:"expired_at"`
}

type SeedUser struct {
	ID           string `yaml:"id"`
	VipExpiredAt int64  `yaml:"vip_expired_at"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed file: %w", err)
	}
	for i, w := range s.Workouts {
		if w.ID == "" {
			return Seed{}, fmt.Errorf("seed workout #%d has no id", i)
		}
	}
	return s, nil
}

// Apply writes the seed into the store.
func (s Seed) Apply(ctx context.Context, workouts *repository.WorkoutRepo, tokens *repository.TokenRepo, users *repository.UserRepo, now time.Time) error {
	for _, w := range s.Workouts {
		if err := workouts.Put(ctx, model.Workout{
			ID:          w.ID,
			Title:       w.Title,
			Duration:    w.Duration,
			EstCalories: w.EstCalories,
			WorkoutType: w.WorkoutType,
			CoverImage:  w.CoverImage,
			ReleasedAt:  w.ReleasedAt,
		}); err != nil {
			return fmt.Errorf("seed workout %s: %w", w.ID, err)
		}
	}
	for _, t := range s.Tokens {
		if err := tokens.Put(ctx, model.WorkoutToken{Token: t.Token, WorkoutIDs: t.Workouts, ExpiredAt: t.ExpiredAt}); err != nil {
			return fmt.Errorf("seed token %s: %w", t.Token, err)
		}
	}
	for _, u := range s.Users {
		cur, err := users.Get(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		if _, err := users.SetVipExpiry(ctx, u.ID, cur.UpdatedAt, u.VipExpiredAt, now); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	return nil
}
