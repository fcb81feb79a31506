package usecases

import (
	"time"

	"renewal_notifier/internal/entities"
)

// calendarDay drops the time part of t in its own location and returns the
// date at UTC midnight, so subtracting two days never crosses a DST shift.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the whole calendar days from now's date to expiration's
// date. The expiration is read as a plain calendar date; now is read in its
// own location.
func DaysUntil(expiration, now time.Time) int {
	diff := calendarDay(expiration).Sub(calendarDay(now))
	return int(diff.Hours() / 24)
}

// StageForDays maps a day offset to its lifecycle stage.
func StageForDays(days int) entities.Stage {
	switch {
	case days > 3:
		return entities.StageActive
	case days == 3:
		return entities.StagePre3
	case days == 2:
		return entities.StagePre2
	case days == 1:
		return entities.StagePre1
	case days == 0:
		return entities.StageToday
	case days == -1:
		return entities.StagePost1
	case days == -2:
		return entities.StagePost2
	default:
		return entities.StageExpired
	}
}

// Classify returns the lifecycle stage of a client expiring on expiration,
// as seen at now. Suspension is not an input.
func Classify(expiration, now time.Time) entities.Stage {
	return StageForDays(DaysUntil(expiration, now))
}

// TriggerSet is the set of stages that cause a reminder to be sent.
type TriggerSet map[entities.Stage]struct{}

// NewTriggerSet builds a set from stage keys, ignoring unknown ones. An
// empty result falls back to entities.DefaultNotifyStages.
func NewTriggerSet(keys []string) TriggerSet {
	set := TriggerSet{}
	for _, k := range keys {
		s := entities.Stage(k)
		if s.Valid() {
			set[s] = struct{}{}
		}
	}
	if len(set) == 0 {
		for _, s := range entities.DefaultNotifyStages {
			set[s] = struct{}{}
		}
	}
	return set
}

func (t TriggerSet) Triggers(s entities.Stage) bool {
	_, ok := t[s]
	return ok
}
