package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/saboten-q/balanceai-wellness/internal/store"
	"github.com/saboten-q/balanceai-wellness/internal/telemetry/tracing"
	"github.com/saboten-q/balanceai-wellness/internal/wellness"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrNoProfile = errors.New("no profile, complete onboarding first")

// coachService is the slice of the coach the tracker depends on.
type coachService interface {
	GenerateWorkoutPlan(ctx context.Context, profile wellness.UserProfile) (*wellness.WorkoutPlan, error)
	AnalyzeMeal(ctx context.Context, description, imageBase64 string) (wellness.MealAnalysis, bool, error)
	DailyMessage(ctx context.Context, profile wellness.UserProfile, consumedCalories, targetCalories int, force bool) string
	StreamChatReply(ctx context.Context, history []wellness.ChatMessage, profile wellness.UserProfile, additionalContext string) (<-chan string, error)
}

// Tracker owns the canonical in-memory wellness state and keeps the store
// in sync with it. Every mutation rewrites the whole collection it touched.
type Tracker struct {
	mutex sync.RWMutex
	store store.Store
	coach coachService
	now   func() time.Time

	profile         *wellness.UserProfile
	plan            *wellness.WorkoutPlan
	dietLogs        []wellness.DietLog
	weightLogs      []wellness.WeightLog
	conditionLogs   []wellness.ConditionLog
	exerciseRecords []wellness.ExerciseRecord

	// keys whose store write failed, memory is ahead of disk for them
	dirtyKeys map[string]bool
}

func NewTracker(stateStore store.Store, coach coachService) *Tracker {
	return &Tracker{
		store:     stateStore,
		coach:     coach,
		now:       time.Now,
		dirtyKeys: make(map[string]bool),
	}
}

// Load reads all persisted collections. A missing key means no data;
// an unreadable value is logged and treated the same way. When a profile
// exists without a plan, a plan is generated on the spot.
func (t *Tracker) Load(ctx context.Context) error {
	t.mutex.Lock()

	t.profile = loadValue[wellness.UserProfile](ctx, t.store, store.KeyProfile)
	t.plan = loadValue[wellness.WorkoutPlan](ctx, t.store, store.KeyWorkoutPlan)
	t.dietLogs = loadSlice[wellness.DietLog](ctx, t.store, store.KeyDietLogs)
	t.weightLogs = loadSlice[wellness.WeightLog](ctx, t.store, store.KeyWeightLogs)
	t.conditionLogs = loadSlice[wellness.ConditionLog](ctx, t.store, store.KeyConditionLogs)
	t.exerciseRecords = loadSlice[wellness.ExerciseRecord](ctx, t.store, store.KeyExerciseRecords)

	if t.plan != nil && len(t.plan.Schedule) != 7 {
		log.Errorf("load: stored plan has %d days, dropping it", len(t.plan.Schedule))
		t.plan = nil
	}

	needsPlan := t.profile != nil && t.plan == nil
	t.mutex.Unlock()

	if !needsPlan {
		return nil
	}

	// profile without a plan: recover by generating one now
	log.Warnln("load: profile present without a plan, generating one")
	if _, err := t.RegeneratePlan(ctx); err != nil {
		return fmt.Errorf("regenerate plan on load: %w", err)
	}
	return nil
}

func loadValue[T any](ctx context.Context, s store.Store, key string) *T {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			log.Errorf("load %s: %s, treating as no data", key, err)
		}
		return nil
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		log.Errorf("load %s: unmarshal: %s, treating as no data", key, err)
		return nil
	}
	return &value
}

func loadSlice[T any](ctx context.Context, s store.Store, key string) []T {
	values := loadValue[[]T](ctx, s, key)
	if values == nil {
		return nil
	}
	return *values
}

// persist writes one collection to the store. Failures are not fatal,
// they mark the key dirty until a later write of that same key succeeds.
// A successful write of one collection says nothing about the others.
func (t *Tracker) persist(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Errorf("persist %s: marshal: %s", key, err)
		t.dirtyKeys[key] = true
		return
	}
	if err := t.store.Set(ctx, key, string(raw)); err != nil {
		log.Errorf("persist %s: %s", key, err)
		t.dirtyKeys[key] = true
		return
	}
	delete(t.dirtyKeys, key)
}

// CompleteOnboarding stores the profile and generates the initial plan.
// The profile's recommended calories are taken from the generated plan.
func (t *Tracker) CompleteOnboarding(ctx context.Context, profile wellness.UserProfile) (*wellness.WorkoutPlan, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.completeOnboarding")
	defer span.End()

	plan, err := t.coach.GenerateWorkoutPlan(ctx, profile)
	if err != nil {
		return nil, err
	}
	profile.RecommendedCalories = plan.RecommendedCalories

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.profile = &profile
	t.plan = plan
	t.persist(ctx, store.KeyProfile, t.profile)
	t.persist(ctx, store.KeyWorkoutPlan, t.plan)

	return clonePlan(plan), nil
}

func (t *Tracker) Profile() (wellness.UserProfile, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	if t.profile == nil {
		return wellness.UserProfile{}, false
	}
	return *t.profile, true
}

// UpdateProfile replaces the stored profile. The recommended calories are
// carried over from the previous profile unless the update sets its own.
func (t *Tracker) UpdateProfile(ctx context.Context, profile wellness.UserProfile) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.profile == nil {
		return ErrNoProfile
	}
	if profile.RecommendedCalories == 0 {
		profile.RecommendedCalories = t.profile.RecommendedCalories
	}
	t.profile = &profile
	t.persist(ctx, store.KeyProfile, t.profile)
	return nil
}

func (t *Tracker) Plan() (*wellness.WorkoutPlan, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	if t.plan == nil {
		return nil, false
	}
	return clonePlan(t.plan), true
}

// RegeneratePlan replaces the plan wholesale, resetting all completion
// state. Exercise records referencing old exercise ids stay untouched.
func (t *Tracker) RegeneratePlan(ctx context.Context) (*wellness.WorkoutPlan, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.regeneratePlan")
	defer span.End()

	t.mutex.RLock()
	if t.profile == nil {
		t.mutex.RUnlock()
		return nil, ErrNoProfile
	}
	profile := *t.profile
	t.mutex.RUnlock()

	plan, err := t.coach.GenerateWorkoutPlan(ctx, profile)
	if err != nil {
		return nil, err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.plan = plan
	if t.profile != nil {
		t.profile.RecommendedCalories = plan.RecommendedCalories
		t.persist(ctx, store.KeyProfile, t.profile)
	}
	t.persist(ctx, store.KeyWorkoutPlan, t.plan)

	return clonePlan(plan), nil
}

// TodayWorkout picks the schedule entry for the current weekday,
// Monday-first, falling back to the first entry on a malformed schedule.
func (t *Tracker) TodayWorkout() (*wellness.DailyWorkout, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	workout, ok := t.plan.WorkoutFor(t.now())
	if !ok {
		return nil, false
	}
	cloned := *workout
	cloned.Exercises = append([]wellness.Exercise(nil), workout.Exercises...)
	return &cloned, true
}

// ToggleExercise flips is_completed on the matching exercise. A missing
// plan or an unknown (day, id) pair is a silent no-op.
func (t *Tracker) ToggleExercise(ctx context.Context, dayLabel, exerciseID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	exercise := t.plan.FindExercise(dayLabel, exerciseID)
	if exercise == nil {
		return
	}
	exercise.IsCompleted = !exercise.IsCompleted
	t.persist(ctx, store.KeyWorkoutPlan, t.plan)
}

// ToggleFavorite flips is_favorite, same no-op contract as ToggleExercise.
func (t *Tracker) ToggleFavorite(ctx context.Context, dayLabel, exerciseID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	exercise := t.plan.FindExercise(dayLabel, exerciseID)
	if exercise == nil {
		return
	}
	exercise.IsFavorite = !exercise.IsFavorite
	t.persist(ctx, store.KeyWorkoutPlan, t.plan)
}

// AddDietLog analyzes the meal and appends the log. The returned bool
// reports whether the macros are the fixed fallback estimate.
func (t *Tracker) AddDietLog(ctx context.Context, description, imageBase64 string) (wellness.DietLog, bool, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.addDietLog")
	defer span.End()

	analysis, fromFallback, err := t.coach.AnalyzeMeal(ctx, description, imageBase64)
	if err != nil {
		return wellness.DietLog{}, false, err
	}

	entry := wellness.DietLog{
		ID:        uuid.NewString(),
		Timestamp: t.now(),
		FoodName:  analysis.FoodName,
		Macros:    analysis.Macros,
		Advice:    analysis.Advice,
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.dietLogs = append(t.dietLogs, entry)
	t.persist(ctx, store.KeyDietLogs, t.dietLogs)

	return entry, fromFallback, nil
}

func (t *Tracker) DietLogs() []wellness.DietLog {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return append([]wellness.DietLog(nil), t.dietLogs...)
}

func (t *Tracker) AddWeightLog(ctx context.Context, weight float64) (wellness.WeightLog, error) {
	if weight <= 0 {
		return wellness.WeightLog{}, fmt.Errorf("invalid weight: %f", weight)
	}

	entry := wellness.WeightLog{
		ID:     uuid.NewString(),
		Date:   wellness.DateOf(t.now()),
		Weight: weight,
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.weightLogs = append(t.weightLogs, entry)
	t.persist(ctx, store.KeyWeightLogs, t.weightLogs)

	return entry, nil
}

func (t *Tracker) WeightLogs() []wellness.WeightLog {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return append([]wellness.WeightLog(nil), t.weightLogs...)
}

// AddConditionLog records today's subjective check-in. A second log on the
// same date replaces the first one.
func (t *Tracker) AddConditionLog(ctx context.Context, entry wellness.ConditionLog) (wellness.ConditionLog, error) {
	for _, level := range []int{entry.FatigueLevel, entry.MuscleSoreness, entry.SleepQuality, entry.Motivation} {
		if level < 1 || level > 5 {
			return wellness.ConditionLog{}, fmt.Errorf("condition levels must be between 1 and 5")
		}
	}

	entry.ID = uuid.NewString()
	entry.Date = wellness.DateOf(t.now())

	t.mutex.Lock()
	defer t.mutex.Unlock()

	replaced := false
	for i := range t.conditionLogs {
		if t.conditionLogs[i].Date == entry.Date {
			t.conditionLogs[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		t.conditionLogs = append(t.conditionLogs, entry)
	}
	t.persist(ctx, store.KeyConditionLogs, t.conditionLogs)

	return entry, nil
}

func (t *Tracker) ConditionLogs() []wellness.ConditionLog {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return append([]wellness.ConditionLog(nil), t.conditionLogs...)
}

func (t *Tracker) TodayCondition() (wellness.ConditionLog, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	today := wellness.DateOf(t.now())
	for _, entry := range t.conditionLogs {
		if entry.Date == today {
			return entry, true
		}
	}
	return wellness.ConditionLog{}, false
}

// AddExerciseRecord appends a performed-exercise record. The exercise name
// is denormalized from the plan when the id still resolves, so the record
// stays readable after the plan is regenerated.
func (t *Tracker) AddExerciseRecord(ctx context.Context, record wellness.ExerciseRecord) (wellness.ExerciseRecord, error) {
	if len(record.Sets) == 0 {
		return wellness.ExerciseRecord{}, fmt.Errorf("record needs at least one set")
	}

	record.ID = uuid.NewString()
	if record.Date == "" {
		record.Date = wellness.DateOf(t.now())
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if record.ExerciseName == "" && t.plan != nil {
		for di := range t.plan.Schedule {
			for _, ex := range t.plan.Schedule[di].Exercises {
				if ex.ID == record.ExerciseID {
					record.ExerciseName = ex.Name
				}
			}
		}
	}

	t.exerciseRecords = append(t.exerciseRecords, record)
	t.persist(ctx, store.KeyExerciseRecords, t.exerciseRecords)

	return record, nil
}

func (t *Tracker) ExerciseRecords() []wellness.ExerciseRecord {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return append([]wellness.ExerciseRecord(nil), t.exerciseRecords...)
}

// DailyMessage returns today's encouragement, generating it through the
// coach if the date rolled over (or force is set).
func (t *Tracker) DailyMessage(ctx context.Context, force bool) (string, error) {
	t.mutex.RLock()
	if t.profile == nil {
		t.mutex.RUnlock()
		return "", ErrNoProfile
	}
	profile := *t.profile
	t.mutex.RUnlock()

	consumed := t.ConsumedCaloriesToday()
	target := profile.RecommendedCalories

	return t.coach.DailyMessage(ctx, profile, consumed, target, force), nil
}

// StreamChat opens a streaming coach reply for the given session history.
func (t *Tracker) StreamChat(ctx context.Context, history []wellness.ChatMessage, additionalContext string) (<-chan string, error) {
	t.mutex.RLock()
	if t.profile == nil {
		t.mutex.RUnlock()
		return nil, ErrNoProfile
	}
	profile := *t.profile
	t.mutex.RUnlock()

	return t.coach.StreamChatReply(ctx, history, profile, additionalContext)
}

// Reset clears every persisted key and all in-memory collections,
// returning the tracker to its pre-onboarding state.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.store.RemoveMany(ctx, store.AllKeys); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	t.profile = nil
	t.plan = nil
	t.dietLogs = nil
	t.weightLogs = nil
	t.conditionLogs = nil
	t.exerciseRecords = nil
	t.dirtyKeys = make(map[string]bool)

	return nil
}

type Status struct {
	HasProfile      bool                `json:"hasProfile"`
	HasPlan         bool                `json:"hasPlan"`
	PlanSource      wellness.PlanSource `json:"planSource,omitempty"`
	SyncPending     bool                `json:"syncPending"`
	DietLogs        int                 `json:"dietLogs"`
	WeightLogs      int                 `json:"weightLogs"`
	ConditionLogs   int                 `json:"conditionLogs"`
	ExerciseRecords int                 `json:"exerciseRecords"`
}

func (t *Tracker) Status() Status {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	status := Status{
		HasProfile:      t.profile != nil,
		HasPlan:         t.plan != nil,
		SyncPending:     len(t.dirtyKeys) > 0,
		DietLogs:        len(t.dietLogs),
		WeightLogs:      len(t.weightLogs),
		ConditionLogs:   len(t.conditionLogs),
		ExerciseRecords: len(t.exerciseRecords),
	}
	if t.plan != nil {
		status.PlanSource = t.plan.Source
	}
	return status
}

func clonePlan(plan *wellness.WorkoutPlan) *wellness.WorkoutPlan {
	if plan == nil {
		return nil
	}
	cloned := *plan
	cloned.Schedule = make([]wellness.DailyWorkout, len(plan.Schedule))
	for i, day := range plan.Schedule {
		clonedDay := day
		clonedDay.Exercises = append([]wellness.Exercise(nil), day.Exercises...)
		cloned.Schedule[i] = clonedDay
	}
	return &cloned
}
