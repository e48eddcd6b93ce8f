package domain

// Collection names as stored in the document store.
const (
	CollectionLocations         = "locations"
	CollectionUnits             = "units"
	CollectionSessions          = "sessions"
	CollectionInteractions      = "interactions"
	CollectionAppChargingEvents = "app_charging_events"
	CollectionPromotions        = "promotions"
	CollectionCampaigns         = "campaigns"
)

// RawDocument is one schemaless document as returned by a DocumentSource.
// Fields holds plain Go values only: map[string]interface{}, []interface{},
// strings, numbers, booleans and native timestamp types.
type RawDocument struct {
	Collection string                 `json:"collection" bson:"collection"`
	ID         string                 `json:"id" bson:"id"`
	Fields     map[string]interface{} `json:"fields" bson:"fields"`
}
