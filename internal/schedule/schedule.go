// Package schedule computes publish timestamps across the daily peak window.
package schedule

import (
	"sort"
	"time"

	"shorts-pipeline/internal/config"
	"shorts-pipeline/internal/types"
)

// Compute returns count strictly increasing UTC slots for a batch.
//
// The batch is anchored to today's peak window in the reference offset, or
// tomorrow's when the reference hour is already at or past the peak start.
// Slot i sits i*gap minutes after the peak start. Any slot earlier than
// now+minLead is pushed forward whole days until it is not. Pushed slots are re-sorted so the
// oldest artifact always gets the earliest slot.
func Compute(count int, now time.Time, cfg config.ScheduleConfig) []types.Slot {
	if count <= 0 {
		return []types.Slot{}
	}

	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}
	gap := cfg.GapMinutes
	if gap <= 0 {
		gap = 30
	}

	ref := now.In(loc)
	anchor := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	if ref.Hour() >= cfg.PeakStartHour {
		anchor = anchor.AddDate(0, 0, 1)
	}
	earliest := now.Add(time.Duration(cfg.MinLeadMinutes) * time.Minute)

	times := make([]time.Time, count)
	for i := 0; i < count; i++ {
		offset := i * gap
		// time.Date normalizes hour overflow into the following days
		at := time.Date(anchor.Year(), anchor.Month(), anchor.Day(),
			cfg.PeakStartHour+offset/60, offset%60, 0, 0, loc)
		// leads longer than a day need more than one push
		for at.Before(earliest) {
			at = at.AddDate(0, 0, 1)
		}
		times[i] = at
	}

	sort.SliceStable(times, func(i, j int) bool { return times[i].Before(times[j]) })
	step := time.Duration(gap) * time.Minute
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			times[i] = times[i-1].Add(step)
		}
	}

	slots := make([]types.Slot, count)
	for i, at := range times {
		slots[i] = types.Slot{Index: i, At: at.UTC()}
	}
	return slots
}
