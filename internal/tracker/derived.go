package tracker

import (
	"sort"

	"github.com/saboten-q/balanceai-wellness/internal/wellness"
)

// ConsumedCaloriesToday sums the macros of diet logs whose local calendar
// date matches today.
func (t *Tracker) ConsumedCaloriesToday() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	today := wellness.DateOf(t.now())
	var total float64
	for _, entry := range t.dietLogs {
		if wellness.DateOf(entry.Timestamp) == today {
			total += entry.Macros.Calories
		}
	}
	return int(total)
}

// Streak counts consecutive calendar days, walking backward from today,
// with at least one exercise record. A day without a record stops the
// walk, so a streak without a record today is 0.
func (t *Tracker) Streak() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	recordDates := make(map[string]bool, len(t.exerciseRecords))
	for _, record := range t.exerciseRecords {
		recordDates[record.Date] = true
	}

	streak := 0
	day := t.now()
	for recordDates[wellness.DateOf(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// WeeklyCompletion is the fraction of the last 7 calendar days (today
// included) with at least one exercise record.
func (t *Tracker) WeeklyCompletion() float64 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	recordDates := make(map[string]bool, len(t.exerciseRecords))
	for _, record := range t.exerciseRecords {
		recordDates[record.Date] = true
	}

	activeDays := 0
	for i := 0; i < 7; i++ {
		if recordDates[wellness.DateOf(t.now().AddDate(0, 0, -i))] {
			activeDays++
		}
	}
	return float64(activeDays) / 7
}

// DayVolume is the total lifted volume for one calendar date.
type DayVolume struct {
	Date        string  `json:"date"`
	TotalVolume float64 `json:"totalVolume"` // sum of (kilos * reps) for the day
	Sets        int     `json:"sets"`
}

// RecordStats aggregates exercise records into per-day lifted volume,
// oldest date first.
type RecordStats struct {
	Streak           int         `json:"streak"`
	WeeklyCompletion float64     `json:"weeklyCompletion"`
	Days             []DayVolume `json:"days"`
}

func (t *Tracker) RecordStats() RecordStats {
	stats := RecordStats{
		Streak:           t.Streak(),
		WeeklyCompletion: t.WeeklyCompletion(),
	}

	t.mutex.RLock()
	defer t.mutex.RUnlock()

	day2volume := make(map[string]*DayVolume)
	for _, record := range t.exerciseRecords {
		volume, ok := day2volume[record.Date]
		if !ok {
			volume = &DayVolume{Date: record.Date}
			day2volume[record.Date] = volume
		}
		for _, set := range record.Sets {
			volume.TotalVolume += set.Weight * float64(set.Reps)
			volume.Sets++
		}
	}

	stats.Days = make([]DayVolume, 0, len(day2volume))
	for _, volume := range day2volume {
		stats.Days = append(stats.Days, *volume)
	}
	sort.Slice(stats.Days, func(i, j int) bool {
		return stats.Days[i].Date < stats.Days[j].Date
	})

	return stats
}
