package coach

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/saboten-q/balanceai-wellness/internal/store"
	"github.com/saboten-q/balanceai-wellness/internal/telemetry/metrics"
	"github.com/saboten-q/balanceai-wellness/internal/telemetry/tracing"
	"github.com/saboten-q/balanceai-wellness/internal/wellness"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultStreamTimeout = 120 * time.Second

	mealCacheTTLSeconds = 3600
)

var (
	ErrEmptyMeal = errors.New("meal description and image both empty")

	// ErrInvalidChatState is returned when the chat history does not end
	// with a user message.
	ErrInvalidChatState = errors.New("invalid chat state: last message must be from the user")
)

// Service produces workout plans, meal estimates, daily messages and chat
// replies. AI failures never surface to callers of the generation methods,
// each of them degrades to a deterministic fallback instead.
type Service struct {
	gateway       Gateway
	store         store.Store
	metrics       *metrics.Manager
	mealCache     *freecache.Cache
	timeout       time.Duration
	streamTimeout time.Duration

	now func() time.Time
}

func NewService(
	gateway Gateway,
	stateStore store.Store,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		gateway:       gateway,
		store:         stateStore,
		metrics:       metricsManager,
		mealCache:     freecache.NewCache(10 * 1024 * 1024),
		timeout:       defaultTimeout,
		streamTimeout: defaultStreamTimeout,
		now:           time.Now,
	}
}

// SetTimeouts overrides the default per-call deadlines. Non-positive
// values keep the current ones.
func (s *Service) SetTimeouts(generate, stream time.Duration) {
	if generate > 0 {
		s.timeout = generate
	}
	if stream > 0 {
		s.streamTimeout = stream
	}
}

// GenerateWorkoutPlan asks the AI for a weekly plan. The only error it can
// return is a profile validation error; any AI or decoding failure yields
// the static fallback plan instead.
func (s *Service) GenerateWorkoutPlan(ctx context.Context, profile wellness.UserProfile) (*wellness.WorkoutPlan, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.generateWorkoutPlan")
	defer span.End()

	if err := profile.ValidateForPlan(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gateway.GenerateStructured(ctx, workoutPlanPrompt(profile), workoutPlanSchema)
	if err != nil {
		log.Errorf("generate workout plan: %s, using fallback plan", err)
		s.metrics.CounterPlanFallbacks.Inc()
		return fallbackWorkoutPlan(), nil
	}

	var plan wellness.WorkoutPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		log.Errorf("generate workout plan, unmarshal: %s, using fallback plan", err)
		s.metrics.CounterPlanFallbacks.Inc()
		return fallbackWorkoutPlan(), nil
	}

	if len(plan.Schedule) != 7 || plan.RecommendedCalories <= 0 {
		log.Errorf(
			"generate workout plan: malformed plan [days %d, calories %d], using fallback plan",
			len(plan.Schedule), plan.RecommendedCalories,
		)
		s.metrics.CounterPlanFallbacks.Inc()
		return fallbackWorkoutPlan(), nil
	}

	// the schema does not produce ids or progress flags, assign them here
	for di := range plan.Schedule {
		for ei := range plan.Schedule[di].Exercises {
			ex := &plan.Schedule[di].Exercises[ei]
			ex.ID = uuid.NewString()
			ex.IsCompleted = false
			ex.IsFavorite = false
		}
	}
	plan.Source = wellness.PlanSourceAI

	s.metrics.CounterPlansGenerated.Inc()
	return &plan, nil
}

// AnalyzeMeal estimates macros for a described meal, optionally with an
// inline JPEG image. The returned bool reports whether the result is the
// fixed fallback estimate. Logging a meal is never blocked by AI failures.
func (s *Service) AnalyzeMeal(ctx context.Context, description, imageBase64 string) (wellness.MealAnalysis, bool, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.analyzeMeal")
	defer span.End()

	if description == "" && imageBase64 == "" {
		return wellness.MealAnalysis{}, false, ErrEmptyMeal
	}

	// identical text-only descriptions hit the cache, images never do
	cacheable := imageBase64 == "" && description != ""
	if cacheable {
		if cached, err := s.mealCache.Get([]byte(description)); err == nil {
			var analysis wellness.MealAnalysis
			if err := json.Unmarshal(cached, &analysis); err == nil {
				return analysis, false, nil
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gateway.AnalyzeImage(ctx, mealAnalysisPrompt(description), imageBase64, nutritionSchema)
	if err != nil {
		log.Errorf("analyze meal: %s, using fallback estimate", err)
		s.metrics.CounterMealFallbacks.Inc()
		return fallbackMealAnalysis, true, nil
	}

	var result struct {
		FoodName string  `json:"foodName"`
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Fat      float64 `json:"fat"`
		Carbs    float64 `json:"carbs"`
		Advice   string  `json:"advice"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Errorf("analyze meal, unmarshal: %s, using fallback estimate", err)
		s.metrics.CounterMealFallbacks.Inc()
		return fallbackMealAnalysis, true, nil
	}

	analysis := wellness.MealAnalysis{
		FoodName: result.FoodName,
		Macros: wellness.MacroNutrients{
			Calories: result.Calories,
			Protein:  result.Protein,
			Fat:      result.Fat,
			Carbs:    result.Carbs,
		},
		Advice: result.Advice,
	}

	if cacheable {
		if analysisBytes, err := json.Marshal(analysis); err == nil {
			if err := s.mealCache.Set([]byte(description), analysisBytes, mealCacheTTLSeconds); err != nil {
				log.Tracef("analyze meal: cache set: %s", err)
			}
		}
	}

	s.metrics.CounterMealsAnalyzed.Inc()
	return analysis, false, nil
}

// DailyMessage returns the dashboard encouragement for today. It is
// generated at most once per calendar date and cached in the store, the
// fallback message is cached the same way. Set force to bypass the cache.
func (s *Service) DailyMessage(
	ctx context.Context,
	profile wellness.UserProfile,
	consumedCalories, targetCalories int,
	force bool,
) string {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.dailyMessage")
	defer span.End()

	today := wellness.DateOf(s.now())

	if !force {
		cachedAt, err := s.store.Get(ctx, store.KeyDailyMessageAt)
		if err == nil && cachedAt == today {
			if message, err := s.store.Get(ctx, store.KeyDailyMessage); err == nil && message != "" {
				return message
			}
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	message, err := s.gateway.GenerateText(genCtx, dailyMessagePrompt(profile, consumedCalories, targetCalories))
	if err != nil {
		log.Errorf("daily message: %s, using fallback message", err)
		message = fallbackDailyMessage
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = fallbackDailyMessage
	}

	if err := s.store.Set(ctx, store.KeyDailyMessage, message); err != nil {
		log.Errorf("daily message: store message: %s", err)
	}
	if err := s.store.Set(ctx, store.KeyDailyMessageAt, today); err != nil {
		log.Errorf("daily message: store message date: %s", err)
	}

	return message
}

// StreamChatReply streams the coach's reply to the last user message in
// history. The returned channel is closed when the reply is complete; a
// failure mid-stream delivers one final fixed error fragment.
func (s *Service) StreamChatReply(
	ctx context.Context,
	history []wellness.ChatMessage,
	profile wellness.UserProfile,
	additionalContext string,
) (<-chan string, error) {
	if len(history) == 0 {
		return nil, ErrInvalidChatState
	}
	lastMsg := history[len(history)-1]
	if lastMsg.Role != wellness.ChatRoleUser {
		return nil, ErrInvalidChatState
	}

	// local welcome messages carry no context for the model
	previous := make([]wellness.ChatMessage, 0, len(history)-1)
	for _, msg := range history[:len(history)-1] {
		if msg.ID == "init" {
			continue
		}
		previous = append(previous, msg)
	}

	s.metrics.CounterChatStreams.Inc()

	out := make(chan string)
	go func() {
		defer close(out)

		streamCtx, cancel := context.WithTimeout(ctx, s.streamTimeout)
		defer cancel()

		events, err := s.gateway.StreamChat(
			streamCtx,
			chatSystemPrompt(profile, additionalContext),
			previous,
			lastMsg.Text,
		)
		if err != nil {
			log.Errorf("chat stream: %s", err)
			select {
			case out <- chatErrorReply:
			case <-streamCtx.Done():
			}
			return
		}

		for event := range events {
			if event.Err != nil {
				log.Errorf("chat stream: %s", event.Err)
				select {
				case out <- chatErrorReply:
				case <-streamCtx.Done():
				}
				return
			}
			select {
			case out <- event.Text:
			case <-streamCtx.Done():
				return
			}
		}
	}()

	return out, nil
}
