package domain

import "fmt"

// Severity grades a set of violations.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Minimums are the weather limits for one training level. Nil pointers mean
// the limit does not apply.
type Minimums struct {
	Level                TrainingLevel
	MinVisibilityMi      *float64
	MinCeilingFt         *float64
	MaxWindKt            float64
	RequiresClearSkies   bool
	IMCAllowed           bool
	ThunderstormsAllowed bool
	IcingAllowed         bool
}

// MinimumsTable maps training levels to their minimums. It is immutable
// after construction and safe for concurrent use.
type MinimumsTable struct {
	rows map[TrainingLevel]Minimums
}

// NewMinimumsTable builds a table from rows. The student-pilot row is
// required because unknown levels fall back to it.
func NewMinimumsTable(rows ...Minimums) (*MinimumsTable, error) {
	t := &MinimumsTable{rows: make(map[TrainingLevel]Minimums, len(rows))}
	for _, r := range rows {
		t.rows[r.Level] = r
	}
	if _, ok := t.rows[TrainingLevelStudent]; !ok {
		return nil, fmt.Errorf("minimums table needs a %s row", TrainingLevelStudent)
	}
	return t, nil
}

// DefaultMinimums returns the standard flight-school limits.
func DefaultMinimums() *MinimumsTable {
	t, _ := NewMinimumsTable(
		Minimums{
			Level:              TrainingLevelStudent,
			MinVisibilityMi:    ptr(5),
			MinCeilingFt:       ptr(3000),
			MaxWindKt:          12,
			RequiresClearSkies: true,
		},
		Minimums{
			Level:           TrainingLevelPrivate,
			MinVisibilityMi: ptr(3),
			MinCeilingFt:    ptr(1000),
			MaxWindKt:       20,
		},
		Minimums{
			Level:      TrainingLevelInstrument,
			MaxWindKt:  25,
			IMCAllowed: true,
		},
	)
	return t
}

// For returns the row for level, or the student-pilot row for levels the
// table does not know.
func (t *MinimumsTable) For(level TrainingLevel) Minimums {
	if m, ok := t.rows[level]; ok {
		return m
	}
	return t.rows[TrainingLevelStudent]
}

// Evaluate checks obs against the minimums of level. Violations are listed
// in check order; the severity is empty when there are none.
func (t *MinimumsTable) Evaluate(obs *Observation, level TrainingLevel) ([]string, Severity) {
	m := t.For(level)
	var violations []string

	if m.MinVisibilityMi != nil && obs.VisibilityMi < *m.MinVisibilityMi {
		violations = append(violations,
			fmt.Sprintf("Visibility %.1f mi < %g mi required", obs.VisibilityMi, *m.MinVisibilityMi))
	}

	if m.MinCeilingFt != nil && !m.RequiresClearSkies {
		switch {
		case obs.CeilingFt == nil:
			violations = append(violations,
				fmt.Sprintf("Ceiling data unavailable (minimum %g ft required)", *m.MinCeilingFt))
		case *obs.CeilingFt < *m.MinCeilingFt:
			violations = append(violations,
				fmt.Sprintf("Ceiling %g ft < %g ft required", *obs.CeilingFt, *m.MinCeilingFt))
		}
	}

	if m.RequiresClearSkies && obs.CeilingFt != nil {
		violations = append(violations,
			fmt.Sprintf("Clouds present at %g ft (clear skies required)", *obs.CeilingFt))
	}

	if obs.WindSpeedKt > m.MaxWindKt {
		violations = append(violations,
			fmt.Sprintf("Wind %.0f kt > %g kt maximum", obs.WindSpeedKt, m.MaxWindKt))
	}

	if !m.ThunderstormsAllowed && obs.Thunderstorms {
		violations = append(violations, "Thunderstorms present")
	}

	if !m.IcingAllowed && obs.Icing {
		violations = append(violations, "Icing conditions present")
	}

	if len(violations) == 0 {
		return nil, ""
	}
	return violations, severityOf(obs, m, len(violations))
}

func severityOf(obs *Observation, m Minimums, count int) Severity {
	switch {
	case obs.Thunderstorms, obs.Icing, obs.WindSpeedKt > 1.5*m.MaxWindKt:
		return SeverityHigh
	case count >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func ptr(v float64) *float64 { return &v }
