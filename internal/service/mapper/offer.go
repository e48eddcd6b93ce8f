package mapper

import (
	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

// locationIDs merges the list field with the single-id field, keeping order.
func locationIDs(f map[string]interface{}) []string {
	ids := normalize.Strings(f["locationIds"])
	if single := normalize.FirstString(f, "locationId"); single != "" {
		for _, id := range ids {
			if id == single {
				return ids
			}
		}
		ids = append(ids, single)
	}
	return ids
}

func (m *Mapper) Promotion(doc domain.RawDocument) domain.PromotionRecord {
	f := doc.Fields

	return domain.PromotionRecord{
		ID:          doc.ID,
		Title:       stringOr(f, doc.ID, []string{"title", "name"}),
		LocationIDs: locationIDs(f),
		Window: domain.ActivityWindow{
			Start: m.instant(f, []string{"validFrom", "startDate", "startAt"}),
			End:   m.instant(f, []string{"validTo", "endDate", "endAt"}),
		},
		Priority:   normalize.FirstNumber(f, "priority", "weight"),
		Engagement: nonNegative(normalize.FirstNumber(f, "engagementCount", "engagement", "views")),
		Active:     normalize.FirstBool(f, "active", "isActive"),
	}
}

func (m *Mapper) Promotions(docs []domain.RawDocument) []domain.PromotionRecord {
	return mapAll(docs, m.Promotion)
}

func (m *Mapper) Campaign(doc domain.RawDocument) domain.CampaignRecord {
	f := doc.Fields

	return domain.CampaignRecord{
		ID:          doc.ID,
		Name:        stringOr(f, doc.ID, []string{"name", "title"}),
		LocationIDs: locationIDs(f),
		Window: domain.ActivityWindow{
			Start: m.instant(f, []string{"startAt", "startDate", "validFrom"}),
			End:   m.instant(f, []string{"endAt", "endDate", "validTo"}),
		},
		Priority:   normalize.FirstNumber(f, "priority", "weight"),
		Engagement: nonNegative(normalize.FirstNumber(f, "engagementCount", "engagement", "clicks")),
		Active:     normalize.FirstBool(f, "active", "isActive"),
	}
}

func (m *Mapper) Campaigns(docs []domain.RawDocument) []domain.CampaignRecord {
	return mapAll(docs, m.Campaign)
}
