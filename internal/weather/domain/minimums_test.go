package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDay() *Observation {
	return &Observation{
		VisibilityMi: 10,
		WindSpeedKt:  5,
		TemperatureC: 18,
		Conditions:   "Clear",
	}
}

func TestEvaluate_ClearDayPassesEveryLevel(t *testing.T) {
	table := DefaultMinimums()
	for _, level := range []TrainingLevel{TrainingLevelStudent, TrainingLevelPrivate, TrainingLevelInstrument} {
		obs := clearDay()
		if level != TrainingLevelStudent {
			// ceiling well above the private-pilot minimum
			obs.CeilingFt = ptr(6000)
		}
		violations, severity := table.Evaluate(obs, level)
		assert.Empty(t, violations, level)
		assert.Empty(t, severity, level)
	}
}

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		level      TrainingLevel
		mutate     func(o *Observation)
		violations []string
		severity   Severity
	}{
		{
			name:  "student low visibility",
			level: TrainingLevelStudent,
			mutate: func(o *Observation) {
				o.VisibilityMi = 4
			},
			violations: []string{"Visibility 4.0 mi < 5 mi required"},
			severity:   SeverityLow,
		},
		{
			name:  "student clouds and wind",
			level: TrainingLevelStudent,
			mutate: func(o *Observation) {
				o.CeilingFt = ptr(4500)
				o.WindSpeedKt = 15
			},
			violations: []string{
				"Clouds present at 4500 ft (clear skies required)",
				"Wind 15 kt > 12 kt maximum",
			},
			severity: SeverityMedium,
		},
		{
			name:  "private missing ceiling",
			level: TrainingLevelPrivate,
			mutate: func(o *Observation) {
				o.CeilingFt = nil
			},
			violations: []string{"Ceiling data unavailable (minimum 1000 ft required)"},
			severity:   SeverityLow,
		},
		{
			name:  "private low ceiling",
			level: TrainingLevelPrivate,
			mutate: func(o *Observation) {
				o.CeilingFt = ptr(800)
			},
			violations: []string{"Ceiling 800 ft < 1000 ft required"},
			severity:   SeverityLow,
		},
		{
			name:  "thunderstorm is high",
			level: TrainingLevelInstrument,
			mutate: func(o *Observation) {
				o.Thunderstorms = true
			},
			violations: []string{"Thunderstorms present"},
			severity:   SeverityHigh,
		},
		{
			name:  "icing is high",
			level: TrainingLevelInstrument,
			mutate: func(o *Observation) {
				o.Icing = true
			},
			violations: []string{"Icing conditions present"},
			severity:   SeverityHigh,
		},
		{
			name:  "wind beyond one and a half times maximum is high",
			level: TrainingLevelInstrument,
			mutate: func(o *Observation) {
				o.WindSpeedKt = 46
			},
			violations: []string{"Wind 46 kt > 25 kt maximum"},
			severity:   SeverityHigh,
		},
		{
			name:  "instrument rated in a thunderstorm with strong wind",
			level: TrainingLevelInstrument,
			mutate: func(o *Observation) {
				o.VisibilityMi = 0.5
				o.CeilingFt = ptr(200)
				o.WindSpeedKt = 30
				o.Thunderstorms = true
			},
			violations: []string{
				"Wind 30 kt > 25 kt maximum",
				"Thunderstorms present",
			},
			severity: SeverityHigh,
		},
		{
			name:  "instrument rated ignores visibility and ceiling",
			level: TrainingLevelInstrument,
			mutate: func(o *Observation) {
				o.VisibilityMi = 0.5
				o.CeilingFt = ptr(200)
			},
		},
		{
			name:  "unknown level uses student row",
			level: TrainingLevel("glider"),
			mutate: func(o *Observation) {
				o.WindSpeedKt = 13
			},
			violations: []string{"Wind 13 kt > 12 kt maximum"},
			severity:   SeverityLow,
		},
		{
			name:  "order follows check order",
			level: TrainingLevelPrivate,
			mutate: func(o *Observation) {
				o.VisibilityMi = 2.4
				o.CeilingFt = ptr(500)
				o.WindSpeedKt = 25
				o.Thunderstorms = true
				o.Icing = true
			},
			violations: []string{
				"Visibility 2.4 mi < 3 mi required",
				"Ceiling 500 ft < 1000 ft required",
				"Wind 25 kt > 20 kt maximum",
				"Thunderstorms present",
				"Icing conditions present",
			},
			severity: SeverityHigh,
		},
	}

	table := DefaultMinimums()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := clearDay()
			tt.mutate(obs)

			violations, severity := table.Evaluate(obs, tt.level)
			assert.Equal(t, tt.violations, violations)
			assert.Equal(t, tt.severity, severity)
		})
	}
}

func TestEvaluate_BoundaryValuesAreNotViolations(t *testing.T) {
	table := DefaultMinimums()

	obs := clearDay()
	obs.VisibilityMi = 3
	obs.CeilingFt = ptr(1000)
	obs.WindSpeedKt = 20

	violations, _ := table.Evaluate(obs, TrainingLevelPrivate)
	assert.Empty(t, violations)

	student := clearDay()
	student.VisibilityMi = 5
	student.WindSpeedKt = 12
	violations, _ = table.Evaluate(student, TrainingLevelStudent)
	assert.Empty(t, violations)

	instrument := clearDay()
	instrument.WindSpeedKt = 25
	violations, _ = table.Evaluate(instrument, TrainingLevelInstrument)
	assert.Empty(t, violations)
}

func TestEvaluate_ExactlyOneAndAHalfTimesWindIsNotHigh(t *testing.T) {
	obs := clearDay()
	obs.WindSpeedKt = 18

	violations, severity := DefaultMinimums().Evaluate(obs, TrainingLevelStudent)
	assert.Len(t, violations, 1)
	assert.Equal(t, SeverityLow, severity)
}

func TestEvaluate_Deterministic(t *testing.T) {
	obs := clearDay()
	obs.VisibilityMi = 1
	obs.WindSpeedKt = 40
	table := DefaultMinimums()

	v1, s1 := table.Evaluate(obs, TrainingLevelPrivate)
	v2, s2 := table.Evaluate(obs, TrainingLevelPrivate)
	assert.Equal(t, v1, v2)
	assert.Equal(t, s1, s2)
}

func TestNewMinimumsTable_RequiresStudentRow(t *testing.T) {
	_, err := NewMinimumsTable(Minimums{Level: TrainingLevelPrivate, MaxWindKt: 20})
	require.Error(t, err)
}

func TestObservation_IsExpired(t *testing.T) {
	fetched := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	obs := NewObservation(ObservationInput{VisibilityMi: 10}, fetched, 30*time.Minute)

	assert.False(t, obs.IsExpired(fetched.Add(29*time.Minute)))
	assert.True(t, obs.IsExpired(fetched.Add(30*time.Minute)))
	assert.True(t, obs.IsExpired(fetched.Add(31*time.Minute)))
	assert.Equal(t, fetched, obs.ObservedAt)
}
