package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/adapter/queue"
	"github.com/seu-repo/sigec-insights/internal/adapter/storage/postgres"
	"github.com/seu-repo/sigec-insights/internal/domain"
)

type doc = map[string]interface{}

// FleetConfig sizes the synthetic fleet.
type FleetConfig struct {
	Locations        int
	UnitsPerLocation int
	Sessions         int
	Interactions     int
	Days             int
	Seed             int64
	Now              time.Time
}

// Fleet holds generated documents per collection, in insertion order.
type Fleet map[string][]doc

func (f Fleet) Count() int {
	n := 0
	for _, docs := range f {
		n += len(docs)
	}
	return n
}

var (
	cities       = []string{"São Paulo", "Rio de Janeiro", "Curitiba", "Belo Horizonte", "Recife"}
	deviceTypes  = []string{"iOS", "android", "Android", "ios", ""}
	interactions = []string{"qr_scan", "unlock", "cable_release", "screen_tap"}
	unitStatuses = []string{"online", "ONLINE", "offline", "maintenance"}
)

// Generate builds a fleet whose documents mix the encodings seen in
// production: timestamps as BSON dates, RFC 3339 strings, zone-less strings,
// epoch milliseconds and {seconds} objects, and unit references under
// several field spellings.
func Generate(cfg FleetConfig) Fleet {
	rng := rand.New(rand.NewSource(cfg.Seed))
	fleet := Fleet{}
	window := time.Duration(cfg.Days) * 24 * time.Hour

	var unitIDs, deviceIDs []string
	unitLocation := map[string]string{}

	for l := 0; l < cfg.Locations; l++ {
		locID := fmt.Sprintf("loc-%03d", l+1)
		location := doc{
			"_id":       locID,
			"brandId":   fmt.Sprintf("brand-%d", l%3+1),
			"brandName": fmt.Sprintf("Brand %d", l%3+1),
			"category":  "retail",
			"active":    l%7 != 6,
		}
		// alternate spellings for name, city and coordinates
		if l%2 == 0 {
			location["name"] = fmt.Sprintf("Location %d", l+1)
			location["city"] = cities[l%len(cities)]
			location["coordinates"] = doc{"latitude": -23.5 + rng.Float64(), "longitude": -46.6 + rng.Float64()}
		} else {
			location["displayName"] = fmt.Sprintf("Location %d", l+1)
			location["address"] = doc{"city": cities[l%len(cities)], "country": "BR"}
			location["lat"] = -22.9 + rng.Float64()
			location["lng"] = -43.2 + rng.Float64()
		}
		fleet[domain.CollectionLocations] = append(fleet[domain.CollectionLocations], location)

		for u := 0; u < cfg.UnitsPerLocation; u++ {
			unitID := fmt.Sprintf("%s-unit-%02d", locID, u+1)
			deviceID := fmt.Sprintf("dev%06x", rng.Intn(1<<24))
			unit := doc{
				"_id":      unitID,
				"status":   unitStatuses[rng.Intn(len(unitStatuses))],
				"inUse":    rng.Intn(3) == 0,
				"position": fmt.Sprintf("Slot %d", u+1),
				"health": doc{
					"status":         "ok",
					"score":          60 + rng.Intn(41),
					"lastCalculated": encodeTime(cfg.Now.Add(-time.Duration(rng.Intn(48))*time.Hour), rng.Intn(5)),
				},
			}
			switch u % 3 {
			case 0:
				unit["name"] = fmt.Sprintf("Kiosk %d", u+1)
				unit["locationId"] = locID
				unit["particleDeviceId"] = deviceID
			case 1:
				unit["metrics"] = doc{"name": fmt.Sprintf("Kiosk %d", u+1), "successRate": rng.Float64() * 100}
				unit["location_id"] = locID
				unit["deviceId"] = deviceID
			default:
				unit["name"] = fmt.Sprintf("Kiosk %d", u+1)
				unit["location"] = doc{"id": locID}
				unit["particle_device_id"] = deviceID
			}
			fleet[domain.CollectionUnits] = append(fleet[domain.CollectionUnits], unit)
			unitIDs = append(unitIDs, unitID)
			deviceIDs = append(deviceIDs, deviceID)
			unitLocation[unitID] = locID
		}
	}

	if len(unitIDs) == 0 {
		return fleet
	}

	for s := 0; s < cfg.Sessions; s++ {
		sessionID := fmt.Sprintf("sess-%05d", s+1)
		idx := rng.Intn(len(unitIDs))
		start := cfg.Now.Add(-time.Duration(rng.Int63n(int64(window))))
		session := doc{
			"_id":        sessionID,
			"deviceType": deviceTypes[rng.Intn(len(deviceTypes))],
		}
		setUnitRef(session, unitIDs[idx], deviceIDs[idx], s%4)
		session[[]string{"startTime", "startedAt", "start", "createdAt"}[s%4]] = encodeTime(start, s%5)

		// one in ten sessions is still open
		if s%10 != 0 {
			minutes := 5 + rng.Intn(90)
			session["endTime"] = encodeTime(start.Add(time.Duration(minutes)*time.Minute), (s+2)%5)
			session["durationMinutes"] = minutes
		}

		switch rng.Intn(6) {
		case 0, 1:
			session["outcome"] = "success"
		case 2:
			session["success"] = true
		case 3:
			session["status"] = "failed"
		case 4:
			session["outcome"] = " ERROR "
		}

		if s%3 == 0 {
			startLevel := 10 + rng.Intn(50)
			session["app"] = doc{
				"linked":       true,
				"batteryStart": startLevel,
				"batteryEnd":   startLevel + rng.Intn(40),
				"sessionId":    sessionID,
				"locationId":   unitLocation[unitIDs[idx]],
			}
			for e := 0; e < 3; e++ {
				event := doc{
					"_id":          fmt.Sprintf("%s-evt-%d", sessionID, e+1),
					"sessionId":    sessionID,
					"batteryLevel": startLevel + e*5,
					"source":       "app",
				}
				// the last event of some sessions carries no instant at all
				if e < 2 || s%2 == 0 {
					event["timestamp"] = encodeTime(start.Add(time.Duration(e*5)*time.Minute), e)
				}
				fleet[domain.CollectionAppChargingEvents] = append(fleet[domain.CollectionAppChargingEvents], event)
			}
		}
		fleet[domain.CollectionSessions] = append(fleet[domain.CollectionSessions], session)
	}

	for i := 0; i < cfg.Interactions; i++ {
		idx := rng.Intn(len(unitIDs))
		at := cfg.Now.Add(-time.Duration(rng.Int63n(int64(window))))
		interaction := doc{
			"_id":  fmt.Sprintf("int-%05d", i+1),
			"type": interactions[rng.Intn(len(interactions))],
		}
		setUnitRef(interaction, unitIDs[idx], deviceIDs[idx], i%3)
		if i%4 == 3 {
			// legacy shape: calendar date plus hour of day
			interaction["date"] = at.UTC().Format("2006-01-02")
			interaction["hour"] = at.UTC().Hour()
		} else {
			interaction[[]string{"timestamp", "createdAt", "time"}[i%3]] = encodeTime(at, i%5)
		}
		if rng.Intn(5) == 0 {
			interaction["success"] = false
		} else {
			interaction["outcome"] = "successful"
		}
		fleet[domain.CollectionInteractions] = append(fleet[domain.CollectionInteractions], interaction)
	}

	for c := 0; c < cfg.Locations/2+1; c++ {
		start := cfg.Now.AddDate(0, 0, -30+c*10)
		campaign := doc{
			"_id":             fmt.Sprintf("camp-%02d", c+1),
			"name":            fmt.Sprintf("Campaign %d", c+1),
			"locationIds":     []interface{}{fmt.Sprintf("loc-%03d", c%cfg.Locations+1)},
			"startAt":         start.Format("2006-01-02"),
			"endAt":           encodeTime(start.AddDate(0, 0, 21), c%5),
			"engagementCount": rng.Intn(500),
		}
		if c%4 == 3 {
			campaign["active"] = false
		}
		fleet[domain.CollectionCampaigns] = append(fleet[domain.CollectionCampaigns], campaign)

		promotion := doc{
			"_id":        fmt.Sprintf("promo-%02d", c+1),
			"title":      fmt.Sprintf("Promotion %d", c+1),
			"locationId": fmt.Sprintf("loc-%03d", (c*2)%cfg.Locations+1),
			"validFrom":  encodeTime(start, (c+1)%5),
			"views":      rng.Intn(2000),
		}
		fleet[domain.CollectionPromotions] = append(fleet[domain.CollectionPromotions], promotion)
	}

	return fleet
}

func setUnitRef(d doc, unitID, deviceID string, variant int) {
	switch variant {
	case 0:
		d["unitId"] = unitID
	case 1:
		d["unit_id"] = unitID
	case 2:
		d["unit"] = doc{"id": unitID}
	default:
		d["particleDeviceId"] = deviceID
	}
}

func encodeTime(t time.Time, variant int) interface{} {
	switch variant {
	case 0:
		return primitive.NewDateTimeFromTime(t)
	case 1:
		return t.UTC().Format(time.RFC3339)
	case 2:
		return t.UnixMilli()
	case 3:
		return doc{"seconds": t.Unix(), "nanoseconds": 0}
	default:
		return t.UTC().Format("2006-01-02 15:04:05")
	}
}

// Seeder writes a generated fleet into a document store.
type Seeder interface {
	// Seed writes every collection of the fleet, removing existing
	// documents first when drop is set. It returns the collections written.
	Seed(ctx context.Context, fleet Fleet, drop bool) ([]string, error)
}

type MongoSeeder struct {
	db  *mongo.Database
	log *zap.Logger
}

func NewMongoSeeder(client *mongo.Client, database string, log *zap.Logger) *MongoSeeder {
	return &MongoSeeder{db: client.Database(database), log: log}
}

func (s *MongoSeeder) Seed(ctx context.Context, fleet Fleet, drop bool) ([]string, error) {
	var written []string
	for collection, docs := range fleet {
		coll := s.db.Collection(collection)
		if drop {
			if err := coll.Drop(ctx); err != nil {
				return written, fmt.Errorf("failed to drop %s: %w", collection, err)
			}
		}
		if len(docs) == 0 {
			continue
		}

		batch := make([]interface{}, len(docs))
		for i, d := range docs {
			batch[i] = d
		}
		if _, err := coll.InsertMany(ctx, batch); err != nil {
			return written, fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
		written = append(written, collection)
		s.log.Info("Seeded collection",
			zap.String("collection", collection),
			zap.Int("documents", len(docs)),
		)
	}
	return written, nil
}

// PostgresSeeder fills the jsonb documents table.
type PostgresSeeder struct {
	source *postgres.Source
	log    *zap.Logger
}

func NewPostgresSeeder(source *postgres.Source, log *zap.Logger) *PostgresSeeder {
	return &PostgresSeeder{source: source, log: log}
}

func (s *PostgresSeeder) Seed(ctx context.Context, fleet Fleet, drop bool) ([]string, error) {
	var written []string
	for collection, docs := range fleet {
		if drop {
			if err := s.source.Purge(ctx, collection); err != nil {
				return written, err
			}
		}
		if len(docs) == 0 {
			continue
		}
		if err := s.source.Upsert(ctx, rawDocuments(collection, docs)...); err != nil {
			return written, err
		}
		written = append(written, collection)
		s.log.Info("Seeded collection",
			zap.String("collection", collection),
			zap.Int("documents", len(docs)),
		)
	}
	return written, nil
}

// rawDocuments lifts _id out of the generated fields.
func rawDocuments(collection string, docs []doc) []domain.RawDocument {
	out := make([]domain.RawDocument, 0, len(docs))
	for _, d := range docs {
		fields := make(map[string]interface{}, len(d))
		for k, v := range d {
			if k != "_id" {
				fields[k] = v
			}
		}
		id, _ := d["_id"].(string)
		out = append(out, domain.RawDocument{Collection: collection, ID: id, Fields: fields})
	}
	return out
}

// announce publishes one documents.changed event per written collection.
func announce(mq queue.MessageQueue, collections []string, at time.Time) error {
	for _, c := range collections {
		payload, err := queue.DocumentsChanged{Collection: c, At: at}.Encode()
		if err != nil {
			return err
		}
		if err := mq.Publish(queue.SubjectDocumentsChanged, payload); err != nil {
			return fmt.Errorf("failed to publish change of %s: %w", c, err)
		}
	}
	return nil
}
