package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
)

type fallbackSlot struct {
	days, hour, score int
	reasoning         string
}

var fallbackSlots = []fallbackSlot{
	{1, 9, 75, "Next-day morning slot; morning air is usually calmer before daytime heating."},
	{2, 10, 80, "Two days out gives the current system time to move through."},
	{3, 8, 85, "Early slot three days out, the most likely window for settled conditions."},
}

// FallbackProvider proposes fixed slots after the original date. It never fails.
type FallbackProvider struct{}

// NewFallbackProvider creates the rule-based provider.
func NewFallbackProvider() FallbackProvider { return FallbackProvider{} }

func (FallbackProvider) Name() string { return domain.ProviderRuleBased }

func (p FallbackProvider) Suggest(_ context.Context, rc RescheduleContext) (*Suggestion, error) {
	return p.suggest(rc), nil
}

func (FallbackProvider) suggest(rc RescheduleContext) *Suggestion {
	orig := rc.OriginalDate
	options := make([]domain.RescheduleOption, 0, len(fallbackSlots))
	for _, slot := range fallbackSlots {
		day := orig.AddDate(0, 0, slot.days)
		at := time.Date(day.Year(), day.Month(), day.Day(), slot.hour, 0, 0, 0, orig.Location())
		options = append(options, domain.RescheduleOption{
			DateTime:   at.UTC(),
			Reasoning:  slot.reasoning,
			Confidence: slot.score,
		})
	}
	return &Suggestion{
		Provider:  domain.ProviderRuleBased,
		Options:   options,
		Reasoning: "No reasoning service was available; offering the standard follow-up slots.",
	}
}
