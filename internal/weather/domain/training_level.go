package domain

import "strings"

// TrainingLevel is a pilot's certification stage.
type TrainingLevel string

const (
	TrainingLevelStudent    TrainingLevel = "student-pilot"
	TrainingLevelPrivate    TrainingLevel = "private-pilot"
	TrainingLevelInstrument TrainingLevel = "instrument-rated"
)

// ParseTrainingLevel accepts the canonical names case-insensitively.
func ParseTrainingLevel(s string) (TrainingLevel, bool) {
	level := TrainingLevel(strings.ToLower(strings.TrimSpace(s)))
	switch level {
	case TrainingLevelStudent, TrainingLevelPrivate, TrainingLevelInstrument:
		return level, true
	}
	return level, false
}

func (l TrainingLevel) String() string { return string(l) }
