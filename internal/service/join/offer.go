package join

import "github.com/seu-repo/sigec-insights/internal/domain"

func (r *Resolver) labels(ids []string) []domain.LocationLabel {
	out := make([]domain.LocationLabel, 0, len(ids))
	for _, id := range ids {
		name, _, resolved := r.location(id)
		out = append(out, domain.LocationLabel{ID: id, Name: name, Resolved: resolved})
	}
	return out
}

// Campaigns resolves targeted location ids to names. Status is left for the classifier.
func (r *Resolver) Campaigns(campaigns []domain.CampaignRecord) []domain.EnrichedCampaign {
	out := make([]domain.EnrichedCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, domain.EnrichedCampaign{CampaignRecord: c, Locations: r.labels(c.LocationIDs)})
	}
	return out
}

func (r *Resolver) Promotions(promotions []domain.PromotionRecord) []domain.EnrichedPromotion {
	out := make([]domain.EnrichedPromotion, 0, len(promotions))
	for _, p := range promotions {
		out = append(out, domain.EnrichedPromotion{PromotionRecord: p, Locations: r.labels(p.LocationIDs)})
	}
	return out
}
