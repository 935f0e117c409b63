package llm

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

var (
	itemSchemaOnce sync.Once
	itemSchema     *jsonschema.Schema
	itemSchemaErr  error
)

func employeeItemSchema() (*jsonschema.Schema, error) {
	itemSchemaOnce.Do(func() {
		itemSchema, itemSchemaErr = CompileSchema(BuildEmployeeItemSchema())
	})
	return itemSchema, itemSchemaErr
}

// DecodeEmployees sanitizes and schema-checks each array item. Items that do
// not fit are dropped and counted; they never fail the whole response.
func DecodeEmployees(items []json.RawMessage, logger *slog.Logger) ([]entity.ExtractedRecord, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := employeeItemSchema()
	if err != nil {
		return nil, 0, err
	}

	out := make([]entity.ExtractedRecord, 0, len(items))
	dropped := 0
	for i, item := range items {
		cleaned, _, err := SanitizeItem(item, logger)
		if err != nil {
			logger.Warn("llm.extract.item_dropped", "index", i, "reason", "not an object", "error", err)
			dropped++
			continue
		}
		if err := ValidateJSON(schema, cleaned); err != nil {
			logger.Warn("llm.extract.item_dropped", "index", i, "reason", "schema", "error", err)
			dropped++
			continue
		}
		var rec entity.ExtractedRecord
		if err := json.Unmarshal(cleaned, &rec); err != nil {
			logger.Warn("llm.extract.item_dropped", "index", i, "reason", "decode", "error", err)
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped, nil
}
