// Package join denormalizes foreign keys across collections that the store
// cannot join server-side: session/interaction → unit → location.
package join

import (
	"github.com/seu-repo/sigec-insights/internal/domain"
)

// Resolver holds id-keyed lookups built once per pipeline run.
// On duplicate ids the first record wins.
type Resolver struct {
	locations map[string]domain.LocationRecord
	units     map[string]domain.UnitRecord
	devices   map[string]domain.UnitRecord
	unitOrder []domain.UnitRecord
}

func NewResolver(locations []domain.LocationRecord, units []domain.UnitRecord) *Resolver {
	r := &Resolver{
		locations: make(map[string]domain.LocationRecord, len(locations)),
		units:     make(map[string]domain.UnitRecord, len(units)),
		devices:   make(map[string]domain.UnitRecord, len(units)),
		unitOrder: units,
	}

	for _, l := range locations {
		if _, seen := r.locations[l.ID]; !seen {
			r.locations[l.ID] = l
		}
	}

	for _, u := range units {
		if _, seen := r.units[u.ID]; !seen {
			r.units[u.ID] = u
		}
		// Units without a device id are never reachable through correlation.
		if u.ParticleDeviceID == "" {
			continue
		}
		if _, seen := r.devices[u.ParticleDeviceID]; !seen {
			r.devices[u.ParticleDeviceID] = u
		}
	}

	return r
}

func (r *Resolver) Location(id string) (domain.LocationRecord, bool) {
	l, ok := r.locations[id]
	return l, ok
}

func (r *Resolver) Unit(id string) (domain.UnitRecord, bool) {
	u, ok := r.units[id]
	return u, ok
}

// location returns the display name, brand and resolution state for a location id.
func (r *Resolver) location(id string) (string, string, bool) {
	if id == "" {
		return domain.UnknownName, "", false
	}
	l, ok := r.locations[id]
	if !ok {
		return id, "", false
	}
	return l.Name, l.BrandID, true
}

func (r *Resolver) Units(units []domain.UnitRecord) []domain.EnrichedUnit {
	out := make([]domain.EnrichedUnit, 0, len(units))
	for _, u := range units {
		name, brand, resolved := r.location(u.LocationID)
		out = append(out, domain.EnrichedUnit{
			UnitRecord:       u,
			LocationName:     name,
			LocationResolved: resolved,
			BrandID:          brand,
		})
	}
	return out
}

// resolve applies the direct key join, or the device-correlation join when
// the record carries no unit id at all.
func (r *Resolver) resolve(unitID, deviceKey string) domain.UnitRef {
	ref := domain.UnitRef{
		UnitName:     domain.UnknownName,
		JoinedVia:    domain.JoinedNone,
		LocationName: domain.UnknownName,
	}

	var (
		unit  domain.UnitRecord
		found bool
	)
	switch {
	case unitID != "":
		ref.ResolvedUnitID = unitID
		ref.UnitName = unitID
		if unit, found = r.units[unitID]; found {
			ref.JoinedVia = domain.JoinedDirect
		}
	case deviceKey != "":
		if unit, found = r.devices[deviceKey]; found {
			ref.ResolvedUnitID = unit.ID
			ref.JoinedVia = domain.JoinedDevice
		}
	}

	if !found {
		return ref
	}

	ref.UnitName = unit.Name
	ref.UnitResolved = true
	ref.LocationID = unit.LocationID
	ref.LocationName, ref.BrandID, ref.LocationResolved = r.location(unit.LocationID)
	return ref
}

func (r *Resolver) Sessions(sessions []domain.SessionRecord) []domain.EnrichedSession {
	out := make([]domain.EnrichedSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, domain.EnrichedSession{
			SessionRecord: s,
			UnitRef:       r.resolve(s.UnitID, s.DeviceKey),
		})
	}
	return out
}

func (r *Resolver) Interactions(interactions []domain.InteractionRecord) []domain.EnrichedInteraction {
	out := make([]domain.EnrichedInteraction, 0, len(interactions))
	for _, i := range interactions {
		out = append(out, domain.EnrichedInteraction{
			InteractionRecord: i,
			UnitRef:           r.resolve(i.UnitID, i.DeviceKey),
		})
	}
	return out
}
