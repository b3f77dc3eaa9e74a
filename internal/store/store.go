package store

import (
	"context"
	"errors"
)

// Keys of the persisted collections. Every value is a whole-document JSON
// blob, rewritten on each mutation of its collection.
const (
	KeyProfile         = "profile"
	KeyWorkoutPlan     = "workoutPlan"
	KeyDietLogs        = "dietLogs"
	KeyWeightLogs      = "weightLogs"
	KeyConditionLogs   = "conditionLogs"
	KeyExerciseRecords = "exerciseRecords"
	KeyDailyMessage    = "dailyMessage"
	KeyDailyMessageAt  = "dailyMessageDate"
)

// AllKeys lists every key owned by the app, used by the full reset.
var AllKeys = []string{
	KeyProfile,
	KeyWorkoutPlan,
	KeyDietLogs,
	KeyWeightLogs,
	KeyConditionLogs,
	KeyExerciseRecords,
	KeyDailyMessage,
	KeyDailyMessageAt,
}

var ErrKeyNotFound = errors.New("key not found")

// Store is the local key-value storage collaborator, the on-device
// analogue of browser local storage. Implementations must be safe for
// concurrent use; last writer wins per key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	RemoveMany(ctx context.Context, keys []string) error
}
