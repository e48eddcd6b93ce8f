// Package classify derives canonical states from redundant raw signals.
package classify

import (
	"strings"
	"time"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

var (
	successOutcomes = map[string]bool{"successful": true, "success": true}
	failureOutcomes = map[string]bool{"failed": true, "error": true, "aborted": true}
)

func Lifecycle(s domain.SessionRecord) domain.Lifecycle {
	return s.Lifecycle()
}

// Outcome checks every success trigger before any failure trigger, so a
// record carrying both classifies as success. Within each group the order is
// outcome string, then the boolean, then status.
func Outcome(sig domain.OutcomeSignals) domain.Outcome {
	outcome := strings.ToLower(strings.TrimSpace(sig.Outcome))
	status := strings.ToLower(strings.TrimSpace(sig.Status))

	switch {
	case successOutcomes[outcome],
		sig.Success != nil && *sig.Success,
		status == "completed":
		return domain.OutcomeSuccess
	case failureOutcomes[outcome],
		sig.Success != nil && !*sig.Success,
		status == "failed":
		return domain.OutcomeFailure
	}
	return domain.OutcomeIndeterminate
}

func Sessions(sessions []domain.EnrichedSession) []domain.ClassifiedSession {
	out := make([]domain.ClassifiedSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, domain.ClassifiedSession{
			EnrichedSession: s,
			State:           Lifecycle(s.SessionRecord),
			Outcome:         Outcome(s.Signals),
		})
	}
	return out
}

func Interactions(interactions []domain.EnrichedInteraction) []domain.ClassifiedInteraction {
	out := make([]domain.ClassifiedInteraction, 0, len(interactions))
	for _, i := range interactions {
		out = append(out, domain.ClassifiedInteraction{
			EnrichedInteraction: i,
			Outcome:             Outcome(i.Signals),
		})
	}
	return out
}

// ActivityStatus places an activity window relative to now. An explicit
// inactive flag wins over the window.
func ActivityStatus(active *bool, w domain.ActivityWindow, now time.Time) domain.CampaignStatus {
	switch {
	case active != nil && !*active:
		return domain.CampaignStatusInactive
	case w.Start != nil && now.Before(*w.Start):
		return domain.CampaignStatusScheduled
	case w.End != nil && now.After(*w.End):
		return domain.CampaignStatusEnded
	}
	return domain.CampaignStatusActive
}

func Campaigns(campaigns []domain.EnrichedCampaign, now time.Time) []domain.EnrichedCampaign {
	out := make([]domain.EnrichedCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		c.Status = ActivityStatus(c.Active, c.Window, now)
		out = append(out, c)
	}
	return out
}

func Promotions(promotions []domain.EnrichedPromotion, now time.Time) []domain.EnrichedPromotion {
	out := make([]domain.EnrichedPromotion, 0, len(promotions))
	for _, p := range promotions {
		p.Status = ActivityStatus(p.Active, p.Window, now)
		out = append(out, p)
	}
	return out
}
