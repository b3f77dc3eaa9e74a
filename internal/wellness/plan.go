package wellness

import (
	"errors"
	"fmt"
	"time"
)

var ErrProfileIncomplete = errors.New("profile incomplete")

// ValidateForPlan checks that the fields the plan generation prompt
// depends on are populated.
func (p UserProfile) ValidateForPlan() error {
	switch {
	case p.Age <= 0:
		return fmt.Errorf("%w: age", ErrProfileIncomplete)
	case p.Height <= 0:
		return fmt.Errorf("%w: height", ErrProfileIncomplete)
	case p.Weight <= 0:
		return fmt.Errorf("%w: weight", ErrProfileIncomplete)
	case p.TargetWeight <= 0:
		return fmt.Errorf("%w: target weight", ErrProfileIncomplete)
	}
	return nil
}

// DateOf formats a timestamp as the local calendar date used to key logs.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekdayIndex maps a weekday onto the Monday-first schedule index.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WorkoutFor returns the scheduled workout for the day of the given
// timestamp. When the schedule is malformed (fewer entries than the
// weekday index needs) it silently falls back to the first entry.
func (p *WorkoutPlan) WorkoutFor(t time.Time) (*DailyWorkout, bool) {
	if p == nil || len(p.Schedule) == 0 {
		return nil, false
	}
	idx := WeekdayIndex(t)
	if idx >= len(p.Schedule) {
		idx = 0
	}
	return &p.Schedule[idx], true
}

// FindExercise locates an exercise by day label and exercise id.
func (p *WorkoutPlan) FindExercise(dayLabel, exerciseID string) *Exercise {
	if p == nil {
		return nil
	}
	for di := range p.Schedule {
		day := &p.Schedule[di]
		if day.Day != dayLabel {
			continue
		}
		for ei := range day.Exercises {
			if day.Exercises[ei].ID == exerciseID {
				return &day.Exercises[ei]
			}
		}
	}
	return nil
}
