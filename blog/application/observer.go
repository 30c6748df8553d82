package application

import (
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

// Generation triggers, reported to the Observer.
const (
	TriggerBuild      = "build"
	TriggerFallback   = "fallback"
	TriggerRevalidate = "revalidate"
	TriggerWebhook    = "webhook"
)

// Serve outcomes, reported to the Observer.
const (
	ServedFresh    = "fresh"
	ServedStale    = "stale"
	ServedFallback = "fallback"
	ServedUnlisted = "unlisted"
)

// Observer receives page generation events. internal/metrics exports them to Prometheus.
type Observer interface {
	PageGenerated(kind domain.PageKind, trigger string, took time.Duration)
	PageFailed(trigger string, err error)
	PageServed(outcome string)
}

type nopObserver struct{}

func (nopObserver) PageGenerated(domain.PageKind, string, time.Duration) {}
func (nopObserver) PageFailed(string, error)                             {}
func (nopObserver) PageServed(string)                                    {}
