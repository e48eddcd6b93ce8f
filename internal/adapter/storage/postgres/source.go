package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/observability/telemetry"
)

// DocumentRow stores one schemaless document as jsonb.
type DocumentRow struct {
	Collection string    `gorm:"primaryKey;type:text"`
	ID         string    `gorm:"primaryKey;type:text"`
	Data       string    `gorm:"type:jsonb;not null;index:idx_documents_data,type:gin"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (DocumentRow) TableName() string { return "documents" }

// Source serves the document collections out of a single jsonb table.
type Source struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSource(db *gorm.DB, log *zap.Logger) *Source {
	return &Source{db: db, log: log}
}

func (s *Source) FetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	return s.find(ctx, collection, s.db.WithContext(ctx).Where("collection = ?", collection))
}

// FetchWhere uses jsonb containment, so numbers match by value and dotted
// fields address nested objects.
func (s *Source) FetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error) {
	probe, err := json.Marshal(containment(field, value))
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter on %s: %w", field, err)
	}
	query := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where("data @> ?", string(probe))
	return s.find(ctx, collection, query)
}

func (s *Source) find(ctx context.Context, collection string, query *gorm.DB) ([]domain.RawDocument, error) {
	start := time.Now()
	defer func() {
		telemetry.DatabaseLatency.WithLabelValues("postgres", collection).Observe(time.Since(start).Seconds())
	}()

	var rows []DocumentRow
	if result := query.Order("id").Find(&rows); result.Error != nil {
		s.log.Error("Failed to query documents", zap.String("collection", collection), zap.Error(result.Error))
		return nil, fmt.Errorf("failed to query %s: %w", collection, result.Error)
	}

	docs := make([]domain.RawDocument, 0, len(rows))
	for _, row := range rows {
		fields, err := decode(row.Data)
		if err != nil {
			s.log.Warn("Skipping undecodable document",
				zap.String("collection", collection),
				zap.String("id", row.ID),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, domain.RawDocument{Collection: row.Collection, ID: row.ID, Fields: fields})
	}
	return docs, nil
}

// Upsert writes documents, replacing any existing row with the same id. The
// service never writes; the simulator and test fixtures do.
func (s *Source) Upsert(ctx context.Context, docs ...domain.RawDocument) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]DocumentRow, 0, len(docs))
	for _, d := range docs {
		data, err := json.Marshal(d.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode document %s/%s: %w", d.Collection, d.ID, err)
		}
		rows = append(rows, DocumentRow{Collection: d.Collection, ID: d.ID, Data: string(data)})
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rows)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert documents: %w", result.Error)
	}
	return nil
}

// Purge deletes every document of a collection.
func (s *Source) Purge(ctx context.Context, collection string) error {
	result := s.db.WithContext(ctx).Where("collection = ?", collection).Delete(&DocumentRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to purge %s: %w", collection, result.Error)
	}
	return nil
}

// containment builds {"a":{"b":value}} for the path "a.b".
func containment(field string, value interface{}) map[string]interface{} {
	parts := strings.Split(field, ".")
	var probe interface{} = value
	for i := len(parts) - 1; i >= 0; i-- {
		probe = map[string]interface{}{parts[i]: probe}
	}
	return probe.(map[string]interface{})
}

func decode(data string) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return fields, nil
}
