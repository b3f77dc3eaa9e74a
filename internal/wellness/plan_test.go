package wellness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateForPlan(t *testing.T) {
	profile := UserProfile{
		Name:         "Mia",
		Age:          31,
		Gender:       GenderFemale,
		Height:       168,
		Weight:       64,
		TargetWeight: 58,
	}
	require.NoError(t, profile.ValidateForPlan())

	noAge := profile
	noAge.Age = 0
	err := noAge.ValidateForPlan()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProfileIncomplete))

	noTarget := profile
	noTarget.TargetWeight = 0
	assert.True(t, errors.Is(noTarget.ValidateForPlan(), ErrProfileIncomplete))
}

func TestWeekdayIndex(t *testing.T) {
	monday := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())

	assert.Equal(t, 0, WeekdayIndex(monday))
	assert.Equal(t, 5, WeekdayIndex(monday.AddDate(0, 0, 5))) // saturday
	assert.Equal(t, 6, WeekdayIndex(monday.AddDate(0, 0, 6))) // sunday
}

func TestWorkoutFor(t *testing.T) {
	var nilPlan *WorkoutPlan
	_, ok := nilPlan.WorkoutFor(time.Now())
	assert.False(t, ok)

	plan := &WorkoutPlan{
		Schedule: []DailyWorkout{
			{Day: "Monday", Focus: "Chest"},
			{Day: "Tuesday", Focus: "Back"},
		},
	}

	monday := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	day, ok := plan.WorkoutFor(monday)
	require.True(t, ok)
	assert.Equal(t, "Chest", day.Focus)

	// short schedule, weekday index out of range falls back to the first day
	sunday := monday.AddDate(0, 0, 6)
	day, ok = plan.WorkoutFor(sunday)
	require.True(t, ok)
	assert.Equal(t, "Chest", day.Focus)
}

func TestFindExercise(t *testing.T) {
	plan := &WorkoutPlan{
		Schedule: []DailyWorkout{
			{
				Day: "Monday",
				Exercises: []Exercise{
					{ID: "ex-1", Name: "Push Up"},
					{ID: "ex-2", Name: "Plank"},
				},
			},
			{
				Day: "Tuesday",
				Exercises: []Exercise{
					{ID: "ex-3", Name: "Squat"},
				},
			},
		},
	}

	ex := plan.FindExercise("Tuesday", "ex-3")
	require.NotNil(t, ex)
	assert.Equal(t, "Squat", ex.Name)

	// same id under a wrong day label must not match
	assert.Nil(t, plan.FindExercise("Monday", "ex-3"))
	assert.Nil(t, plan.FindExercise("Wednesday", "ex-1"))

	// returned pointer mutates the plan in place
	ex.IsCompleted = true
	assert.True(t, plan.Schedule[1].Exercises[0].IsCompleted)
}
