package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

type mockProvider struct {
	mock.Mock
	name       string
	configured bool
}

func (m *mockProvider) Name() string     { return m.name }
func (m *mockProvider) Configured() bool { return m.configured }

func (m *mockProvider) Suggest(ctx context.Context, rc RescheduleContext) (*Suggestion, error) {
	args := m.Called(ctx, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Suggestion), args.Error(1)
}

func testContext() RescheduleContext {
	return RescheduleContext{
		BookingID:     uuid.New(),
		TrainingLevel: weather.TrainingLevelStudent,
		OriginalDate:  time.Date(2026, 8, 14, 15, 30, 0, 0, time.UTC),
		Departure:     weather.Location{Name: "KPAO", Latitude: 37.4611, Longitude: -122.115},
		Violations:    []string{"Thunderstorms present"},
		Severity:      weather.SeverityHigh,
	}
}

func TestParseSuggestion(t *testing.T) {
	content := "```json\n" + `{
		"options": [
			{"date": "2026-08-15T09:00:00Z", "reasoning": "front passes overnight", "weatherForecast": "Clear", "score": 92},
			{"date": "2026-08-16T10:00:00", "reasoning": "high pressure builds"},
			{"date": "2026-08-17 08:00", "reasoning": "calm morning", "score": 140}
		],
		"overallReasoning": "storms clear by Saturday"
	}` + "\n```"

	s, err := ParseSuggestion(domain.ProviderOpenAI, content, time.UTC)
	require.NoError(t, err)
	require.Len(t, s.Options, 3)
	assert.Equal(t, domain.ProviderOpenAI, s.Provider)
	assert.Equal(t, "storms clear by Saturday", s.Reasoning)

	assert.Equal(t, time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC), s.Options[0].DateTime)
	assert.Equal(t, 92, s.Options[0].Confidence)
	assert.Equal(t, "Clear", s.Options[0].WeatherSummary)
	assert.Equal(t, time.Date(2026, 8, 16, 10, 0, 0, 0, time.UTC), s.Options[1].DateTime)
	assert.Equal(t, DefaultConfidence, s.Options[1].Confidence)
	assert.Equal(t, 100, s.Options[2].Confidence)
}

func TestParseSuggestion_FractionalScoresAreRounded(t *testing.T) {
	content := `{"options": [
		{"date": "2026-08-15T09:00:00Z", "reasoning": "front passes overnight", "score": 82.5},
		{"date": "2026-08-16T09:00:00Z", "reasoning": "high pressure builds", "score": 77.4},
		{"date": "2026-08-17T09:00:00Z", "reasoning": "calm morning", "score": -3.2}
	]}`

	s, err := ParseSuggestion(domain.ProviderAnthropic, content, time.UTC)
	require.NoError(t, err)
	require.Len(t, s.Options, 3)
	assert.Equal(t, 83, s.Options[0].Confidence)
	assert.Equal(t, 77, s.Options[1].Confidence)
	assert.Equal(t, 0, s.Options[2].Confidence)
}

func TestParseSuggestion_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I suggest flying tomorrow."},
		{"no options", `{"options": [], "overallReasoning": "none"}`},
		{"bad date", `{"options": [{"date": "next tuesday", "reasoning": "x"}]}`},
		{"missing reasoning", `{"options": [{"date": "2026-08-15T09:00:00Z", "reasoning": "  "}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuggestion(domain.ProviderAnthropic, tt.content, time.UTC)
			assert.ErrorIs(t, err, domain.ErrMalformedSuggestion)
		})
	}
}

func TestFallbackProvider(t *testing.T) {
	pacific, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	rc := testContext()
	rc.OriginalDate = time.Date(2026, 8, 14, 15, 30, 0, 0, pacific)

	s, err := NewFallbackProvider().Suggest(context.Background(), rc)
	require.NoError(t, err)
	require.Len(t, s.Options, 3)
	assert.Equal(t, domain.ProviderRuleBased, s.Provider)

	want := []time.Time{
		time.Date(2026, 8, 15, 9, 0, 0, 0, pacific),
		time.Date(2026, 8, 16, 10, 0, 0, 0, pacific),
		time.Date(2026, 8, 17, 8, 0, 0, 0, pacific),
	}
	for i, o := range s.Options {
		assert.True(t, want[i].Equal(o.DateTime), "option %d: %s", i, o.DateTime)
		assert.NotEmpty(t, o.Reasoning)
	}
	assert.Equal(t, 75, s.Options[0].Confidence)
	assert.Equal(t, 80, s.Options[1].Confidence)
	assert.Equal(t, 85, s.Options[2].Confidence)
}

func TestProviderChain_BothProvidersFail(t *testing.T) {
	rc := testContext()
	primary := &mockProvider{name: domain.ProviderOpenAI, configured: true}
	primary.On("Suggest", mock.Anything, rc).Return(nil, errors.New("503 service unavailable"))
	secondary := &mockProvider{name: domain.ProviderAnthropic, configured: true}
	secondary.On("Suggest", mock.Anything, rc).Return(nil, domain.ErrMalformedSuggestion)
	metrics := observability.NewInMemoryMetrics()

	chain := NewProviderChain([]SuggestionProvider{primary, secondary}, time.Second, metrics, nil)
	s := chain.Suggest(context.Background(), rc)

	require.Len(t, s.Options, 3)
	assert.Equal(t, domain.ProviderRuleBased, s.Provider)
	assert.Equal(t, []int{75, 80, 85}, []int{s.Options[0].Confidence, s.Options[1].Confidence, s.Options[2].Confidence})
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricProviderCalls,
		observability.T("provider", domain.ProviderAnthropic), observability.T("result", "malformed")))
}

func TestProviderChain_SkipsUnconfigured(t *testing.T) {
	rc := testContext()
	primary := &mockProvider{name: domain.ProviderOpenAI}
	want := &Suggestion{
		Options:   []domain.RescheduleOption{{DateTime: rc.OriginalDate.Add(48 * time.Hour), Reasoning: "ok", Confidence: 70}},
		Reasoning: "secondary answer",
	}
	secondary := &mockProvider{name: domain.ProviderAnthropic, configured: true}
	secondary.On("Suggest", mock.Anything, rc).Return(want, nil)

	chain := NewProviderChain([]SuggestionProvider{primary, secondary}, time.Second, nil, nil)
	s := chain.Suggest(context.Background(), rc)

	assert.Equal(t, domain.ProviderAnthropic, s.Provider)
	assert.Equal(t, "secondary answer", s.Reasoning)
	primary.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything)
}

func TestProviderChain_TimeoutFallsThrough(t *testing.T) {
	rc := testContext()
	slow := &mockProvider{name: domain.ProviderOpenAI, configured: true}
	slow.On("Suggest", mock.Anything, rc).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded)

	chain := NewProviderChain([]SuggestionProvider{slow}, 20*time.Millisecond, nil, nil)
	s := chain.Suggest(context.Background(), rc)

	assert.Equal(t, domain.ProviderRuleBased, s.Provider)
	assert.Equal(t, []string{domain.ProviderOpenAI}, chain.Providers())
}

func TestPrompts(t *testing.T) {
	rc := testContext()
	rc.WeatherSummary = "Thunderstorm, visibility 3.0 mi"

	system, user := Prompts(rc)
	assert.Contains(t, system, "overallReasoning")
	assert.Contains(t, user, "student-pilot")
	assert.Contains(t, user, "- Thunderstorms present")
	assert.Contains(t, user, "Thunderstorm, visibility 3.0 mi")
}
