package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

func fixture() *Resolver {
	locations := []domain.LocationRecord{
		{ID: "loc-1", Name: "Shopping Norte", BrandID: "brand-a"},
		{ID: "loc-2", Name: "Aeroporto", BrandID: "brand-b"},
	}
	units := []domain.UnitRecord{
		{ID: "u1", Name: "Totem 1", LocationID: "loc-1", ParticleDeviceID: "e00fce681"},
		{ID: "u2", Name: "Totem 2", LocationID: "loc-2", ParticleDeviceID: "e00fce682"},
		{ID: "u3", Name: "Totem 3", LocationID: "loc-1"},
		{ID: "u4", Name: "Totem 4", LocationID: "loc-gone"},
	}
	return NewResolver(locations, units)
}

func TestSessions_DirectJoin(t *testing.T) {
	r := fixture()

	got := r.Sessions([]domain.SessionRecord{{ID: "s1", UnitID: "u1"}})

	require.Len(t, got, 1)
	assert.Equal(t, "Totem 1", got[0].UnitName)
	assert.True(t, got[0].UnitResolved)
	assert.Equal(t, domain.JoinedDirect, got[0].JoinedVia)
	assert.Equal(t, "loc-1", got[0].LocationID)
	assert.Equal(t, "Shopping Norte", got[0].LocationName)
	assert.Equal(t, "brand-a", got[0].BrandID)
	assert.Equal(t, "u1", got[0].SessionRecord.UnitID, "original foreign key is kept")
}

func TestSessions_DirectMissFallsBackToRawID(t *testing.T) {
	r := fixture()

	got := r.Sessions([]domain.SessionRecord{{ID: "s1", UnitID: "u9"}})

	require.Len(t, got, 1, "unresolved records are retained")
	assert.Equal(t, "u9", got[0].UnitName)
	assert.False(t, got[0].UnitResolved)
	assert.Equal(t, domain.JoinedNone, got[0].JoinedVia)
	assert.Equal(t, domain.UnknownName, got[0].LocationName)
}

func TestSessions_DirectKeyTakesPrecedenceOverDevice(t *testing.T) {
	r := fixture()

	got := r.Sessions([]domain.SessionRecord{{ID: "s1", UnitID: "u9", DeviceKey: "e00fce682"}})

	assert.Equal(t, "u9", got[0].ResolvedUnitID)
	assert.False(t, got[0].UnitResolved)
}

func TestInteractions_DeviceCorrelation(t *testing.T) {
	r := fixture()

	got := r.Interactions([]domain.InteractionRecord{
		{ID: "i1", DeviceKey: "e00fce682"},
		{ID: "i2", DeviceKey: "e00fce68"},
		{ID: "i3", DeviceKey: "E00FCE682"},
		{ID: "i4"},
	})

	require.Len(t, got, 4)
	assert.Equal(t, "u2", got[0].ResolvedUnitID)
	assert.Equal(t, domain.JoinedDevice, got[0].JoinedVia)
	assert.Equal(t, "Aeroporto", got[0].LocationName)

	for _, partial := range got[1:3] {
		assert.False(t, partial.UnitResolved, "%s must not match on partial or case-folded ids", partial.ID)
		assert.Empty(t, partial.ResolvedUnitID)
		assert.Equal(t, domain.UnknownName, partial.UnitName)
	}

	assert.Equal(t, domain.UnknownName, got[3].UnitName)
	assert.Equal(t, domain.JoinedNone, got[3].JoinedVia)
}

func TestUnits_LocationFallbacks(t *testing.T) {
	r := fixture()

	got := r.Units([]domain.UnitRecord{
		{ID: "u1", LocationID: "loc-1"},
		{ID: "u4", LocationID: "loc-gone"},
		{ID: "u5"},
	})

	assert.Equal(t, "Shopping Norte", got[0].LocationName)
	assert.True(t, got[0].LocationResolved)
	assert.Equal(t, "loc-gone", got[1].LocationName)
	assert.False(t, got[1].LocationResolved)
	assert.Equal(t, domain.UnknownName, got[2].LocationName)
}

func TestScopeToLocation(t *testing.T) {
	r := fixture()
	sessions := r.Sessions([]domain.SessionRecord{
		{ID: "in-direct", UnitID: "u1"},
		{ID: "in-no-device", UnitID: "u3"},
		{ID: "elsewhere", UnitID: "u2"},
		{ID: "elsewhere-device", DeviceKey: "e00fce682"},
		{ID: "in-device", DeviceKey: "e00fce681"},
		{ID: "unattributed"},
		{ID: "unmatched-device", DeviceKey: "nope"},
		{ID: "unknown-unit", UnitID: "u9"},
	})

	got := ScopeToLocation(sessions, r.UnitsAt("loc-1"))

	var ids []string
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"in-direct", "in-no-device", "in-device", "unattributed", "unmatched-device"}, ids)
}

func TestScopeToUnit(t *testing.T) {
	r := fixture()
	interactions := r.Interactions([]domain.InteractionRecord{
		{ID: "direct", UnitID: "u1"},
		{ID: "device", DeviceKey: "e00fce681"},
		{ID: "other", UnitID: "u2"},
		{ID: "none"},
	})

	got := ScopeToUnit(interactions, "u1")

	require.Len(t, got, 2)
	assert.Equal(t, "direct", got[0].ID)
	assert.Equal(t, "device", got[1].ID)
}

func TestCampaignLabels(t *testing.T) {
	r := fixture()

	got := r.Campaigns([]domain.CampaignRecord{{ID: "c1", LocationIDs: []string{"loc-2", "loc-x"}}})

	require.Len(t, got[0].Locations, 2)
	assert.Equal(t, domain.LocationLabel{ID: "loc-2", Name: "Aeroporto", Resolved: true}, got[0].Locations[0])
	assert.Equal(t, domain.LocationLabel{ID: "loc-x", Name: "loc-x", Resolved: false}, got[0].Locations[1])

	promos := r.Promotions([]domain.PromotionRecord{
		{ID: "p1", LocationIDs: []string{"loc-1"}},
		{ID: "p2", LocationIDs: []string{"loc-2"}},
	})
	scoped := PromotionsFor(promos, "loc-1")
	require.Len(t, scoped, 1)
	assert.Equal(t, "p1", scoped[0].ID)
}
