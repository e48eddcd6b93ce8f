package mapper

import (
	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

var (
	locationNameChain  = []string{"name", "displayName", "locationName"}
	locationBrandChain = []string{"brandId", "brand.id", "brand"}
	locationLatChain   = []string{"coordinates.latitude", "coordinates.lat", "latitude", "lat"}
	locationLngChain   = []string{"coordinates.longitude", "coordinates.lng", "longitude", "lng"}
)

func (m *Mapper) Location(doc domain.RawDocument) domain.LocationRecord {
	f := doc.Fields

	rec := domain.LocationRecord{
		ID:                 doc.ID,
		Name:               stringOr(f, doc.ID, locationNameChain),
		BrandID:            normalize.FirstString(f, locationBrandChain...),
		BrandName:          normalize.FirstString(f, "brandName", "brand.name"),
		StoreLabel:         normalize.FirstString(f, "storeLabel", "store", "storeName"),
		City:               normalize.FirstString(f, "city", "address.city"),
		Country:            normalize.FirstString(f, "country", "address.country"),
		Category:           normalize.FirstString(f, "category"),
		Active:             normalize.FirstBool(f, "active", "isActive"),
		QRTarget:           normalize.FirstString(f, "qrTarget", "qrUrl", "qrCodeUrl"),
		TotalSessions:      nonNegative(normalize.FirstNumber(f, "totalSessions", "stats.totalSessions")),
		UnitsInUse:         nonNegative(normalize.FirstNumber(f, "unitsInUse", "stats.unitsInUse")),
		UnitsTotal:         nonNegative(normalize.FirstNumber(f, "unitsTotal", "totalUnits", "stats.totalUnits")),
		HasActivePromotion: normalize.FirstBool(f, "hasActivePromotion", "promotionActive"),
		PromotionsEnabled:  normalize.FirstBool(f, "promotionsEnabled"),
		CreatedAt:          m.instant(f, []string{"createdAt"}),
	}

	lat := normalize.FirstNumber(f, locationLatChain...)
	lng := normalize.FirstNumber(f, locationLngChain...)
	if lat != nil && lng != nil {
		rec.Coordinates = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}

	return rec
}

func (m *Mapper) Locations(docs []domain.RawDocument) []domain.LocationRecord {
	return mapAll(docs, m.Location)
}
