package coach

// Schema is a subset of the OpenAPI schema object accepted by the
// generative AI backend for constrained JSON responses.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

var exerciseSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"name":        {Type: "string"},
		"type":        {Type: "string", Enum: []string{"strength", "cardio", "flexibility"}},
		"duration":    {Type: "string"},
		"description": {Type: "string"},
	},
	Required: []string{"name", "type", "duration", "description"},
}

var dailyWorkoutSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"day":       {Type: "string"},
		"focus":     {Type: "string"},
		"exercises": {Type: "array", Items: exerciseSchema},
	},
	Required: []string{"day", "focus", "exercises"},
}

var workoutPlanSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"summary": {Type: "string"},
		"recommendedCalories": {
			Type:        "number",
			Description: "Daily recommended calorie intake based on user BMR and goal",
		},
		"schedule": {Type: "array", Items: dailyWorkoutSchema},
	},
	Required: []string{"summary", "recommendedCalories", "schedule"},
}

var nutritionSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"foodName": {Type: "string"},
		"calories": {Type: "number"},
		"protein":  {Type: "number"},
		"fat":      {Type: "number"},
		"carbs":    {Type: "number"},
		"advice":   {Type: "string"},
	},
	Required: []string{"foodName", "calories", "protein", "fat", "carbs", "advice"},
}
