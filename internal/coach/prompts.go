package coach

import (
	"fmt"
	"strings"

	"github.com/saboten-q/balanceai-wellness/internal/wellness"
)

func workoutPlanPrompt(profile wellness.UserProfile) string {
	gymContext := "User works out at HOME. Focus on bodyweight exercises, or simple equipment if typical."
	if profile.HasGymAccess {
		gymContext = "User has access to a GYM. Include exercises using machines, barbells, and dumbbells where appropriate."
	}

	return fmt.Sprintf(`Create a personalized weekly workout plan AND nutritional target for this user:
Profile: %d years old, %s, %.0fcm.
Current Weight: %.1fkg.
Target Weight: %.1fkg.
Goal: %s.
Activity Level: %s.
Environment: %s

1. Calculate the optimal daily calorie intake (recommendedCalories) to achieve their target weight safely.
2. Create a 7-day workout schedule, Monday through Sunday.
3. Return a JSON object with a summary, the recommendedCalories, and the schedule.
Ensure the plan is realistic, safe, and specifically tailored to their environment (Gym vs Home).
IMPORTANT: Do NOT use emojis in the text content. Keep it professional and clean.`,
		profile.Age, profile.Gender, profile.Height,
		profile.Weight, profile.TargetWeight,
		profile.Goal, profile.ActivityLevel, gymContext,
	)
}

func mealAnalysisPrompt(description string) string {
	var sb strings.Builder
	if description != "" {
		sb.WriteString("Description of food: ")
		sb.WriteString(description)
		sb.WriteString("\n")
	}
	sb.WriteString("Analyze the nutritional content of this meal. " +
		"Provide calories, protein (g), fat (g), carbs (g), a short name for the dish, " +
		"and brief health advice. Do NOT use emojis.")
	return sb.String()
}

func dailyMessagePrompt(profile wellness.UserProfile, consumed, target int) string {
	return fmt.Sprintf(`You are a friendly, supportive fitness coach.
User: %s
Goal: %s
Today's Status: Consumed %dkcal out of %dkcal target.

Provide a VERY SHORT (max 60 characters), warm, encouraging message for the user's dashboard.
If they are doing well, praise them. If they are over, gently encourage balance. If under, tell them to fuel up.
IMPORTANT: Do NOT use emojis. Use text only.
Example: "Great pace today, keep moving toward that goal!"`,
		profile.Name, profile.Goal, consumed, target,
	)
}

func chatSystemPrompt(profile wellness.UserProfile, additionalContext string) string {
	recommended := "Not set yet"
	if profile.RecommendedCalories > 0 {
		recommended = fmt.Sprintf("%d", profile.RecommendedCalories)
	}
	gymAccess := "No"
	if profile.HasGymAccess {
		gymAccess = "Yes"
	}

	prompt := fmt.Sprintf(`You are an expert fitness and nutrition coach named "BalanceAI".
User Profile:
- Name: %s
- Goal: %s
- Current Weight: %.1fkg, Target: %.1fkg
- Recommended Calories: %s
- Gym Access: %s
`,
		profile.Name, profile.Goal,
		profile.Weight, profile.TargetWeight,
		recommended, gymAccess,
	)

	if additionalContext != "" {
		prompt += fmt.Sprintf("\nCURRENT CONTEXT (The user is looking at this right now): %s\n", additionalContext)
	}

	prompt += `
Answer the user's questions, provide motivation, or suggest modifications to their plan.
Keep answers concise (under 200 characters if possible) and encouraging.
IMPORTANT: Do NOT use emojis. The application provides its own UI icons.`

	return prompt
}
