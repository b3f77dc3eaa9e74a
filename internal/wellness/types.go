package wellness

import "time"

// DateLayout is the calendar-date format used for all date-keyed logs.
const DateLayout = "2006-01-02"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

type ExerciseType string

const (
	ExerciseStrength    ExerciseType = "strength"
	ExerciseCardio      ExerciseType = "cardio"
	ExerciseFlexibility ExerciseType = "flexibility"
)

// UserProfile is the single per-installation user identity. Exactly one
// instance exists; it is created at onboarding and removed only on full reset.
type UserProfile struct {
	Name                string        `json:"name"`
	Age                 int           `json:"age"`
	Gender              Gender        `json:"gender"`
	Height              float64       `json:"height"` // cm
	Weight              float64       `json:"weight"` // kg
	TargetWeight        float64       `json:"targetWeight"`
	HasGymAccess        bool          `json:"hasGymAccess"`
	Goal                string        `json:"goal"`
	ActivityLevel       ActivityLevel `json:"activityLevel"`
	RecommendedCalories int           `json:"recommendedCalories,omitempty"`
}

type Exercise struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        ExerciseType `json:"type"`
	Duration    string       `json:"duration"`
	Description string       `json:"description"`
	IsCompleted bool         `json:"isCompleted"`
	IsFavorite  bool         `json:"isFavorite"`
}

type DailyWorkout struct {
	Day       string     `json:"day"`
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

// PlanSource tells whether a plan came from the AI gateway or from the
// static fallback split.
type PlanSource string

const (
	PlanSourceAI       PlanSource = "ai"
	PlanSourceFallback PlanSource = "fallback"
)

// WorkoutPlan is the full weekly plan. Schedule is Monday-first and, when
// present at all, always has exactly 7 entries.
type WorkoutPlan struct {
	Summary             string         `json:"summary"`
	RecommendedCalories int            `json:"recommendedCalories"`
	Schedule            []DailyWorkout `json:"schedule"`
	Source              PlanSource     `json:"source"`
}

type MacroNutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"` // grams
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

type DietLog struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	FoodName  string         `json:"foodName"`
	Macros    MacroNutrients `json:"macros"`
	Advice    string         `json:"advice"`
}

type WeightLog struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Weight float64 `json:"weight"`
}

// ConditionLog captures the subjective daily check-in, each field on a 1-5 scale.
type ConditionLog struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	FatigueLevel   int    `json:"fatigueLevel"`
	MuscleSoreness int    `json:"muscleSoreness"`
	SleepQuality   int    `json:"sleepQuality"`
	Motivation     int    `json:"motivation"`
}

type ExerciseSet struct {
	SetNumber   int       `json:"setNumber"`
	Weight      float64   `json:"weight"` // kg
	Reps        int       `json:"reps"`
	CompletedAt time.Time `json:"completedAt"`
}

// ExerciseRecord is an append-only record of a performed exercise.
// ExerciseID is a weak reference: regenerating the plan orphans old ids,
// the denormalized ExerciseName keeps the record readable as history.
type ExerciseRecord struct {
	ID           string        `json:"id"`
	ExerciseID   string        `json:"exerciseId"`
	ExerciseName string        `json:"exerciseName"`
	Date         string        `json:"date"`
	Sets         []ExerciseSet `json:"sets"`
	Notes        string        `json:"notes,omitempty"`
}

type ChatRole string

const (
	ChatRoleUser ChatRole = "user"
	ChatRoleAI   ChatRole = "ai"
)

// ChatMessage lives only in memory for the duration of a chat session.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// MealAnalysis is the result of a nutrition estimate for one described meal.
type MealAnalysis struct {
	FoodName string         `json:"foodName"`
	Macros   MacroNutrients `json:"macros"`
	Advice   string         `json:"advice"`
}
