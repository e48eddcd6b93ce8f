package join

import "github.com/seu-repo/sigec-insights/internal/domain"

// Referenced is any record that went through the resolver.
type Referenced interface {
	Ref() domain.UnitRef
}

// UnitSet is the set of unit ids installed at one location.
type UnitSet map[string]struct{}

func (r *Resolver) UnitsAt(locationID string) UnitSet {
	set := make(UnitSet)
	for _, u := range r.unitOrder {
		if u.LocationID == locationID {
			set[u.ID] = struct{}{}
		}
	}
	return set
}

func filter[T Referenced](items []T, keep func(domain.UnitRef) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item.Ref()) {
			out = append(out, item)
		}
	}
	return out
}

// ScopeToLocation keeps records whose unit is installed at the location and
// records with no unit reference at all. Only records known to belong to
// another unit are dropped.
func ScopeToLocation[T Referenced](items []T, units UnitSet) []T {
	return filter(items, func(ref domain.UnitRef) bool {
		if ref.ResolvedUnitID == "" {
			return true
		}
		_, ok := units[ref.ResolvedUnitID]
		return ok
	})
}

// ScopeToUnit keeps records attributed to the unit by either join strategy.
func ScopeToUnit[T Referenced](items []T, unitID string) []T {
	return filter(items, func(ref domain.UnitRef) bool {
		return ref.ResolvedUnitID != "" && ref.ResolvedUnitID == unitID
	})
}

// PromotionsFor keeps promotions that target the location.
func PromotionsFor(promotions []domain.EnrichedPromotion, locationID string) []domain.EnrichedPromotion {
	out := make([]domain.EnrichedPromotion, 0)
	for _, p := range promotions {
		for _, id := range p.LocationIDs {
			if id == locationID {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
