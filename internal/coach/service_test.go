package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/saboten-q/balanceai-wellness/internal/store"
	"github.com/saboten-q/balanceai-wellness/internal/telemetry/metrics"
	"github.com/saboten-q/balanceai-wellness/internal/wellness"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testProfile() wellness.UserProfile {
	return wellness.UserProfile{
		Name:          gofakeit.FirstName(),
		Age:           gofakeit.Number(18, 70),
		Gender:        wellness.GenderFemale,
		Height:        gofakeit.Float64Range(150, 200),
		Weight:        gofakeit.Float64Range(50, 110),
		TargetWeight:  gofakeit.Float64Range(50, 90),
		HasGymAccess:  gofakeit.Bool(),
		Goal:          "lose weight",
		ActivityLevel: wellness.ActivityModerate,
	}
}

func newTestService(t *testing.T) (*Service, *MockGateway) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := NewMockGateway(ctrl)
	service := NewService(gateway, store.NewMemory(), metrics.NewTestManager())
	return service, gateway
}

func aiPlanJSON(t *testing.T) json.RawMessage {
	t.Helper()
	days := make([]map[string]any, 0, 7)
	for _, dayName := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		days = append(days, map[string]any{
			"day":   dayName,
			"focus": "Full Body",
			"exercises": []map[string]any{
				{
					"name":        "Squats",
					"type":        "strength",
					"duration":    "3x12",
					"description": "Controlled tempo.",
					// the model must not control these fields
					"id":          "model-made-this-up",
					"isCompleted": true,
					"isFavorite":  true,
				},
			},
		})
	}
	raw, err := json.Marshal(map[string]any{
		"summary":             "A solid week.",
		"recommendedCalories": 2100,
		"schedule":            days,
	})
	require.NoError(t, err)
	return raw
}

func TestService_GenerateWorkoutPlan(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	gateway.EXPECT().
		GenerateStructured(gomock.Any(), gomock.Any(), workoutPlanSchema).
		Return(aiPlanJSON(t), nil)

	plan, err := service.GenerateWorkoutPlan(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, wellness.PlanSourceAI, plan.Source)
	assert.Equal(t, 2100, plan.RecommendedCalories)
	require.Len(t, plan.Schedule, 7)

	seenIDs := map[string]bool{}
	for _, day := range plan.Schedule {
		for _, ex := range day.Exercises {
			assert.NotEmpty(t, ex.ID)
			assert.NotEqual(t, "model-made-this-up", ex.ID)
			assert.False(t, seenIDs[ex.ID], "exercise ids must be unique")
			seenIDs[ex.ID] = true
			// progress flags start clean no matter what the model returned
			assert.False(t, ex.IsCompleted)
			assert.False(t, ex.IsFavorite)
		}
	}
}

func TestService_GenerateWorkoutPlan_fallbackOnGatewayError(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	gateway.EXPECT().
		GenerateStructured(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("network down"))

	plan, err := service.GenerateWorkoutPlan(context.Background(), profile)
	require.NoError(t, err, "gateway failures must not surface")
	require.NotNil(t, plan)

	assert.Equal(t, wellness.PlanSourceFallback, plan.Source)
	assert.Equal(t, 1900, plan.RecommendedCalories)
	require.Len(t, plan.Schedule, 7)
	for _, day := range plan.Schedule {
		for _, ex := range day.Exercises {
			assert.NotEmpty(t, ex.ID)
			assert.False(t, ex.IsCompleted)
		}
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(service.metrics.CounterPlanFallbacks))
}

func TestService_GenerateWorkoutPlan_fallbackOnMalformedPlan(t *testing.T) {
	testCases := []struct {
		name    string
		rawPlan string
	}{
		{
			name:    "NotJSON",
			rawPlan: "sorry, I cannot do that",
		},
		{
			name:    "TooFewDays",
			rawPlan: `{"summary":"s","recommendedCalories":2000,"schedule":[{"day":"Monday","focus":"f","exercises":[]}]}`,
		},
		{
			name:    "ZeroCalories",
			rawPlan: `{"summary":"s","recommendedCalories":0,"schedule":[{"day":"Monday","focus":"f","exercises":[]},{"day":"Tuesday","focus":"f","exercises":[]},{"day":"Wednesday","focus":"f","exercises":[]},{"day":"Thursday","focus":"f","exercises":[]},{"day":"Friday","focus":"f","exercises":[]},{"day":"Saturday","focus":"f","exercises":[]},{"day":"Sunday","focus":"f","exercises":[]}]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, gateway := newTestService(t)

			gateway.EXPECT().
				GenerateStructured(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(json.RawMessage(tc.rawPlan), nil)

			plan, err := service.GenerateWorkoutPlan(context.Background(), testProfile())
			require.NoError(t, err)
			require.NotNil(t, plan)
			assert.Equal(t, wellness.PlanSourceFallback, plan.Source)
		})
	}
}

func TestService_GenerateWorkoutPlan_invalidProfile(t *testing.T) {
	service, _ := newTestService(t)

	profile := testProfile()
	profile.Age = 0

	plan, err := service.GenerateWorkoutPlan(context.Background(), profile)
	assert.Nil(t, plan)
	require.ErrorIs(t, err, wellness.ErrProfileIncomplete)
}

func TestService_AnalyzeMeal(t *testing.T) {
	service, gateway := newTestService(t)

	gateway.EXPECT().
		AnalyzeImage(gomock.Any(), gomock.Any(), "", nutritionSchema).
		Return(json.RawMessage(`{"foodName":"Chicken salad","calories":420,"protein":38,"fat":18,"carbs":22,"advice":"Nice protein content."}`), nil)

	analysis, fromFallback, err := service.AnalyzeMeal(context.Background(), "chicken salad with dressing", "")
	require.NoError(t, err)
	assert.False(t, fromFallback)
	assert.Equal(t, "Chicken salad", analysis.FoodName)
	assert.Equal(t, float64(420), analysis.Macros.Calories)

	// second identical description is served from the cache, no gateway call
	cached, fromFallback, err := service.AnalyzeMeal(context.Background(), "chicken salad with dressing", "")
	require.NoError(t, err)
	assert.False(t, fromFallback)
	assert.Equal(t, analysis, cached)
}

func TestService_AnalyzeMeal_fallback(t *testing.T) {
	service, gateway := newTestService(t)

	gateway.EXPECT().
		AnalyzeImage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("service unavailable"))

	analysis, fromFallback, err := service.AnalyzeMeal(context.Background(), "mystery stew", "")
	require.NoError(t, err, "meal logging must never be blocked by AI failures")
	assert.True(t, fromFallback)
	assert.Equal(t, float64(480), analysis.Macros.Calories)
	assert.Equal(t, float64(25), analysis.Macros.Protein)
	assert.Equal(t, float64(15), analysis.Macros.Fat)
	assert.Equal(t, float64(55), analysis.Macros.Carbs)
}

func TestService_AnalyzeMeal_empty(t *testing.T) {
	service, _ := newTestService(t)

	_, _, err := service.AnalyzeMeal(context.Background(), "", "")
	require.ErrorIs(t, err, ErrEmptyMeal)
}

func TestService_DailyMessage_cachedByDate(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	service.now = func() time.Time { return now }

	gateway.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("You are doing great, keep it up!", nil)

	first := service.DailyMessage(context.Background(), profile, 600, 2000, false)
	assert.Equal(t, "You are doing great, keep it up!", first)

	// same date, later hour: no new gateway call, identical message
	service.now = func() time.Time { return now.Add(8 * time.Hour) }
	second := service.DailyMessage(context.Background(), profile, 1800, 2000, false)
	assert.Equal(t, first, second)

	// next calendar date regenerates
	gateway.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("New day, fresh start!", nil)
	service.now = func() time.Time { return now.AddDate(0, 0, 1) }
	third := service.DailyMessage(context.Background(), profile, 0, 2000, false)
	assert.Equal(t, "New day, fresh start!", third)
}

func TestService_DailyMessage_fallbackIsCachedToo(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	gateway.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("", errors.New("over quota"))

	first := service.DailyMessage(context.Background(), profile, 0, 1900, false)
	assert.Equal(t, fallbackDailyMessage, first)

	// fallback is cached for the date like any other message
	second := service.DailyMessage(context.Background(), profile, 0, 1900, false)
	assert.Equal(t, first, second)
}

func TestService_DailyMessage_force(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	gateway.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("First message", nil)
	first := service.DailyMessage(context.Background(), profile, 0, 2000, false)
	assert.Equal(t, "First message", first)

	gateway.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("Refreshed message", nil)
	refreshed := service.DailyMessage(context.Background(), profile, 0, 2000, true)
	assert.Equal(t, "Refreshed message", refreshed)
}

func TestService_StreamChatReply(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	history := []wellness.ChatMessage{
		{ID: "init", Role: wellness.ChatRoleAI, Text: "Welcome!"},
		{ID: "1", Role: wellness.ChatRoleUser, Text: "How many sets of squats?"},
	}

	events := make(chan StreamEvent, 3)
	events <- StreamEvent{Text: "Three sets "}
	events <- StreamEvent{Text: "of twelve."}
	close(events)

	gateway.EXPECT().
		StreamChat(gomock.Any(), gomock.Any(), gomock.Len(0), "How many sets of squats?").
		Return((<-chan StreamEvent)(events), nil)

	out, err := service.StreamChatReply(context.Background(), history, profile, "")
	require.NoError(t, err)

	var fragments []string
	for fragment := range out {
		fragments = append(fragments, fragment)
	}
	assert.Equal(t, []string{"Three sets ", "of twelve."}, fragments)
}

func TestService_StreamChatReply_invalidHistory(t *testing.T) {
	service, _ := newTestService(t)
	profile := testProfile()

	_, err := service.StreamChatReply(context.Background(), nil, profile, "")
	require.ErrorIs(t, err, ErrInvalidChatState)

	historyEndingWithAI := []wellness.ChatMessage{
		{ID: "1", Role: wellness.ChatRoleUser, Text: "Hello"},
		{ID: "2", Role: wellness.ChatRoleAI, Text: "Hi!"},
	}
	_, err = service.StreamChatReply(context.Background(), historyEndingWithAI, profile, "")
	require.ErrorIs(t, err, ErrInvalidChatState)
}

func TestService_StreamChatReply_midStreamError(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	history := []wellness.ChatMessage{
		{ID: "1", Role: wellness.ChatRoleUser, Text: "Hello"},
	}

	events := make(chan StreamEvent, 2)
	events <- StreamEvent{Text: "Hi the"}
	events <- StreamEvent{Err: fmt.Errorf("connection reset")}
	close(events)

	gateway.EXPECT().
		StreamChat(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return((<-chan StreamEvent)(events), nil)

	out, err := service.StreamChatReply(context.Background(), history, profile, "")
	require.NoError(t, err)

	var fragments []string
	for fragment := range out {
		fragments = append(fragments, fragment)
	}
	// one final fixed error fragment, then the stream ends
	require.NotEmpty(t, fragments)
	assert.Equal(t, chatErrorReply, fragments[len(fragments)-1])
}

// The caller may walk away without ever reading the channel (client
// disconnects mid-chat). The producer must still exit and close the
// channel instead of staying parked on the error fragment send.
func TestService_StreamChatReply_abandonedStream(t *testing.T) {
	service, gateway := newTestService(t)
	profile := testProfile()

	history := []wellness.ChatMessage{
		{ID: "1", Role: wellness.ChatRoleUser, Text: "Hello"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// ignore goroutines that predate the calls under test (including this
	// test goroutine, which goleak would otherwise flag while parked in
	// assert.Eventually)
	preexisting := goleak.IgnoreCurrent()

	// stream cannot even be opened
	gateway.EXPECT().
		StreamChat(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("connect: network unreachable"))

	_, err := service.StreamChatReply(ctx, history, profile, "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return goleak.Find(preexisting) == nil
	}, 2*time.Second, 20*time.Millisecond)

	// stream opened, then dies mid-flight
	events := make(chan StreamEvent, 1)
	events <- StreamEvent{Err: fmt.Errorf("connection reset")}
	close(events)

	gateway.EXPECT().
		StreamChat(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return((<-chan StreamEvent)(events), nil)

	_, err = service.StreamChatReply(ctx, history, profile, "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return goleak.Find(preexisting) == nil
	}, 2*time.Second, 20*time.Millisecond)
}
