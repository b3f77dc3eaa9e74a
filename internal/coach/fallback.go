package coach

import (
	"github.com/google/uuid"

	"github.com/saboten-q/balanceai-wellness/internal/wellness"
)

const (
	fallbackRecommendedCalories = 1900

	fallbackDailyMessage = "Make today count, one healthy choice at a time."

	chatErrorReply = "Something went wrong. Please check your connection and try again."
)

var fallbackMealAnalysis = wellness.MealAnalysis{
	FoodName: "Logged meal",
	Macros: wellness.MacroNutrients{
		Calories: 480,
		Protein:  25,
		Fat:      15,
		Carbs:    55,
	},
	Advice: "Nutrition estimate unavailable right now, logged with average values. Adjust manually if needed.",
}

// fallbackWorkoutPlan builds the static 7-day bodyweight split used when
// plan generation fails. Exercise ids are freshly assigned on every call so
// completion toggles keep working on the fallback plan too.
func fallbackWorkoutPlan() *wellness.WorkoutPlan {
	day := func(dayName, focus string, exercises ...wellness.Exercise) wellness.DailyWorkout {
		for i := range exercises {
			exercises[i].ID = uuid.NewString()
		}
		return wellness.DailyWorkout{
			Day:       dayName,
			Focus:     focus,
			Exercises: exercises,
		}
	}

	return &wellness.WorkoutPlan{
		Summary: "A balanced home bodyweight plan to keep you moving. " +
			"Generated offline, regenerate anytime for a personalized plan.",
		RecommendedCalories: fallbackRecommendedCalories,
		Source:              wellness.PlanSourceFallback,
		Schedule: []wellness.DailyWorkout{
			day("Monday", "Full Body",
				wellness.Exercise{Name: "Squats", Type: wellness.ExerciseStrength, Duration: "3x15", Description: "Bodyweight squats, controlled tempo."},
				wellness.Exercise{Name: "Push-ups", Type: wellness.ExerciseStrength, Duration: "3x10", Description: "Knees down if needed, full range of motion."},
				wellness.Exercise{Name: "Plank", Type: wellness.ExerciseStrength, Duration: "3x30s", Description: "Straight line from head to heels."},
			),
			day("Tuesday", "Cardio",
				wellness.Exercise{Name: "Brisk Walk", Type: wellness.ExerciseCardio, Duration: "30 min", Description: "Keep a pace where talking is possible but singing is not."},
			),
			day("Wednesday", "Core",
				wellness.Exercise{Name: "Crunches", Type: wellness.ExerciseStrength, Duration: "3x15", Description: "Slow and controlled, no neck pulling."},
				wellness.Exercise{Name: "Leg Raises", Type: wellness.ExerciseStrength, Duration: "3x12", Description: "Lower legs slowly, keep lower back on the floor."},
				wellness.Exercise{Name: "Side Plank", Type: wellness.ExerciseStrength, Duration: "2x20s per side", Description: "Hips up, body in one line."},
			),
			day("Thursday", "Active Recovery",
				wellness.Exercise{Name: "Stretching", Type: wellness.ExerciseFlexibility, Duration: "20 min", Description: "Full body stretch, hold each position for 30 seconds."},
			),
			day("Friday", "Lower Body",
				wellness.Exercise{Name: "Lunges", Type: wellness.ExerciseStrength, Duration: "3x10 per leg", Description: "Step forward, back knee close to the floor."},
				wellness.Exercise{Name: "Glute Bridges", Type: wellness.ExerciseStrength, Duration: "3x15", Description: "Squeeze glutes at the top, pause for a second."},
				wellness.Exercise{Name: "Calf Raises", Type: wellness.ExerciseStrength, Duration: "3x20", Description: "Full extension, slow negative."},
			),
			day("Saturday", "Cardio",
				wellness.Exercise{Name: "Jumping Jacks", Type: wellness.ExerciseCardio, Duration: "5x1 min", Description: "One minute on, thirty seconds rest."},
				wellness.Exercise{Name: "Mountain Climbers", Type: wellness.ExerciseCardio, Duration: "3x30s", Description: "Keep hips low, steady rhythm."},
			),
			day("Sunday", "Rest",
				wellness.Exercise{Name: "Light Walk", Type: wellness.ExerciseCardio, Duration: "20 min", Description: "Easy pace, enjoy the day off."},
			),
		},
	}
}
