package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/saboten-q/balanceai-wellness/internal/coach"
	"github.com/saboten-q/balanceai-wellness/internal/wellness"
	"github.com/saboten-q/balanceai-wellness/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/profile", handler.HandleGetProfile).Methods("GET", "OPTIONS").Name("get-profile")
	router.HandleFunc("/profile", handler.HandleOnboard).Methods("POST", "OPTIONS").Name("onboard")
	router.HandleFunc("/profile", handler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-profile")

	router.HandleFunc("/plan", handler.HandleGetPlan).Methods("GET", "OPTIONS").Name("get-plan")
	router.HandleFunc("/plan/regenerate", handler.HandleRegeneratePlan).Methods("POST", "OPTIONS").Name("regenerate-plan")
	router.HandleFunc("/plan/today", handler.HandleTodayWorkout).Methods("GET", "OPTIONS").Name("today-workout")
	router.HandleFunc("/plan/exercise/toggle", handler.HandleToggleExercise).Methods("POST", "OPTIONS").Name("toggle-exercise")
	router.HandleFunc("/plan/exercise/favorite", handler.HandleToggleFavorite).Methods("POST", "OPTIONS").Name("toggle-favorite")

	router.HandleFunc("/diet", handler.HandleListDietLogs).Methods("GET", "OPTIONS").Name("list-diet-logs")
	router.HandleFunc("/diet", handler.HandleAddDietLog).Methods("POST", "OPTIONS").Name("add-diet-log")
	router.HandleFunc("/diet/today", handler.HandleDietToday).Methods("GET", "OPTIONS").Name("diet-today")

	router.HandleFunc("/weight", handler.HandleListWeightLogs).Methods("GET", "OPTIONS").Name("list-weight-logs")
	router.HandleFunc("/weight", handler.HandleAddWeightLog).Methods("POST", "OPTIONS").Name("add-weight-log")

	router.HandleFunc("/condition", handler.HandleListConditionLogs).Methods("GET", "OPTIONS").Name("list-condition-logs")
	router.HandleFunc("/condition", handler.HandleAddConditionLog).Methods("POST", "OPTIONS").Name("add-condition-log")
	router.HandleFunc("/condition/today", handler.HandleTodayCondition).Methods("GET", "OPTIONS").Name("today-condition")

	router.HandleFunc("/records", handler.HandleListRecords).Methods("GET", "OPTIONS").Name("list-records")
	router.HandleFunc("/records", handler.HandleAddRecord).Methods("POST", "OPTIONS").Name("add-record")
	router.HandleFunc("/records/stats", handler.HandleRecordStats).Methods("GET", "OPTIONS").Name("record-stats")

	router.HandleFunc("/message/daily", handler.HandleDailyMessage).Methods("GET", "OPTIONS").Name("daily-message")
	router.HandleFunc("/chat", handler.HandleChat).Methods("POST", "OPTIONS").Name("chat")

	router.HandleFunc("/status", handler.HandleStatus).Methods("GET", "OPTIONS").Name("status")
	router.HandleFunc("/reset", handler.HandleReset).Methods("POST", "OPTIONS").Name("reset")
}

func writeJSON(w http.ResponseWriter, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, raw)
}

// writeJSONList renders empty collections as [], not null.
func writeJSONList[T any](w http.ResponseWriter, items []T) {
	if len(items) == 0 {
		pkg.WriteResponse(w, pkg.ContentType.JSON, "[]", http.StatusOK)
		return
	}
	writeJSON(w, items)
}

func (handler *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := handler.tracker.Profile()
	if !ok {
		http.Error(w, "no profile", http.StatusNotFound)
		return
	}
	writeJSON(w, profile)
}

type onboardResponse struct {
	Profile wellness.UserProfile  `json:"profile"`
	Plan    *wellness.WorkoutPlan `json:"plan"`
}

func (handler *Handler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	var profile wellness.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "invalid profile json", http.StatusBadRequest)
		return
	}

	plan, err := handler.tracker.CompleteOnboarding(r.Context(), profile)
	if err != nil {
		if errors.Is(err, wellness.ErrProfileIncomplete) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("onboarding failed: %s", err)
		http.Error(w, "onboarding failed", http.StatusInternalServerError)
		return
	}

	savedProfile, _ := handler.tracker.Profile()
	writeJSON(w, onboardResponse{
		Profile: savedProfile,
		Plan:    plan,
	})
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile wellness.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "invalid profile json", http.StatusBadRequest)
		return
	}

	if err := handler.tracker.UpdateProfile(r.Context(), profile); err != nil {
		if errors.Is(err, ErrNoProfile) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("update profile: %s", err)
		http.Error(w, "update profile failed", http.StatusInternalServerError)
		return
	}

	updated, _ := handler.tracker.Profile()
	writeJSON(w, updated)
}

func (handler *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := handler.tracker.Plan()
	if !ok {
		http.Error(w, "no plan", http.StatusNotFound)
		return
	}
	writeJSON(w, plan)
}

func (handler *Handler) HandleRegeneratePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := handler.tracker.RegeneratePlan(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("regenerate plan: %s", err)
		http.Error(w, "regenerate plan failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, plan)
}

func (handler *Handler) HandleTodayWorkout(w http.ResponseWriter, r *http.Request) {
	workout, ok := handler.tracker.TodayWorkout()
	if !ok {
		http.Error(w, "no plan", http.StatusNotFound)
		return
	}
	writeJSON(w, workout)
}

type toggleExerciseRequest struct {
	Day        string `json:"day"`
	ExerciseID string `json:"exerciseId"`
}

func (handler *Handler) HandleToggleExercise(w http.ResponseWriter, r *http.Request) {
	var req toggleExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// unknown (day, id) pairs are deliberately a silent no-op
	handler.tracker.ToggleExercise(r.Context(), req.Day, req.ExerciseID)
	pkg.WriteTextResponseOK(w, "toggled")
}

func (handler *Handler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req toggleExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	handler.tracker.ToggleFavorite(r.Context(), req.Day, req.ExerciseID)
	pkg.WriteTextResponseOK(w, "toggled")
}

func (handler *Handler) HandleListDietLogs(w http.ResponseWriter, r *http.Request) {
	writeJSONList(w, handler.tracker.DietLogs())
}

type addDietLogRequest struct {
	Description string `json:"description"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

type addDietLogResponse struct {
	Log          wellness.DietLog `json:"log"`
	FromFallback bool             `json:"fromFallback"`
}

func (handler *Handler) HandleAddDietLog(w http.ResponseWriter, r *http.Request) {
	var req addDietLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	entry, fromFallback, err := handler.tracker.AddDietLog(r.Context(), req.Description, req.ImageBase64)
	if err != nil {
		if errors.Is(err, coach.ErrEmptyMeal) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("add diet log: %s", err)
		http.Error(w, "add diet log failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, addDietLogResponse{
		Log:          entry,
		FromFallback: fromFallback,
	})
}

type dietTodayResponse struct {
	ConsumedCalories int                `json:"consumedCalories"`
	Logs             []wellness.DietLog `json:"logs"`
}

func (handler *Handler) HandleDietToday(w http.ResponseWriter, r *http.Request) {
	today := wellness.DateOf(handler.tracker.now())
	var todayLogs []wellness.DietLog
	for _, entry := range handler.tracker.DietLogs() {
		if wellness.DateOf(entry.Timestamp) == today {
			todayLogs = append(todayLogs, entry)
		}
	}
	writeJSON(w, dietTodayResponse{
		ConsumedCalories: handler.tracker.ConsumedCaloriesToday(),
		Logs:             todayLogs,
	})
}

func (handler *Handler) HandleListWeightLogs(w http.ResponseWriter, r *http.Request) {
	writeJSONList(w, handler.tracker.WeightLogs())
}

type addWeightLogRequest struct {
	Weight float64 `json:"weight"`
}

func (handler *Handler) HandleAddWeightLog(w http.ResponseWriter, r *http.Request) {
	var req addWeightLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	entry, err := handler.tracker.AddWeightLog(r.Context(), req.Weight)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, entry)
}

func (handler *Handler) HandleListConditionLogs(w http.ResponseWriter, r *http.Request) {
	writeJSONList(w, handler.tracker.ConditionLogs())
}

func (handler *Handler) HandleAddConditionLog(w http.ResponseWriter, r *http.Request) {
	var entry wellness.ConditionLog
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	saved, err := handler.tracker.AddConditionLog(r.Context(), entry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, saved)
}

func (handler *Handler) HandleTodayCondition(w http.ResponseWriter, r *http.Request) {
	entry, ok := handler.tracker.TodayCondition()
	if !ok {
		http.Error(w, "no condition log for today", http.StatusNotFound)
		return
	}
	writeJSON(w, entry)
}

func (handler *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSONList(w, handler.tracker.ExerciseRecords())
}

func (handler *Handler) HandleAddRecord(w http.ResponseWriter, r *http.Request) {
	var record wellness.ExerciseRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	saved, err := handler.tracker.AddExerciseRecord(r.Context(), record)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, saved)
}

func (handler *Handler) HandleRecordStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, handler.tracker.RecordStats())
}

type dailyMessageResponse struct {
	Message string `json:"message"`
}

func (handler *Handler) HandleDailyMessage(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "true"

	message, err := handler.tracker.DailyMessage(r.Context(), force)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("daily message: %s", err)
		http.Error(w, "daily message failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, dailyMessageResponse{Message: message})
}

type chatRequest struct {
	History []wellness.ChatMessage `json:"history"`
	Context string                 `json:"context,omitempty"`
}

// HandleChat streams the coach reply as server-sent events, one data
// event per fragment.
func (handler *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	fragments, err := handler.tracker.StreamChat(r.Context(), req.History, req.Context)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoProfile):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, coach.ErrInvalidChatState):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Errorf("chat: %s", err)
			http.Error(w, "chat failed", http.StatusInternalServerError)
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", pkg.ContentType.EventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for fragment := range fragments {
		raw, err := json.Marshal(fragment)
		if err != nil {
			log.Errorf("chat: marshal fragment: %s", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
			log.Tracef("chat: client gone: %s", err)
			return
		}
		flusher.Flush()
	}

	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err == nil {
		flusher.Flush()
	}
}

func (handler *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, handler.tracker.Status())
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := handler.tracker.Reset(r.Context()); err != nil {
		log.Errorf("reset: %s", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	log.Warnln("all wellness data reset")
	pkg.WriteTextResponseOK(w, "reset done")
}
