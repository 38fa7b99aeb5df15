package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// RegisterGormTracing attaches the otelgorm plugin so every ledger query
// becomes a child span. Query variables never reach span attributes.
func RegisterGormTracing(db *gorm.DB, dbSystem string) error {
	return db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	))
}
