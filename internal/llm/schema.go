package llm

import "github.com/joseph-ayodele/hr-ingest/internal/entity"

// EmployeeFields lists the keys an extracted item may carry.
var EmployeeFields = []string{
	entity.FieldEmpCode,
	entity.FieldFirstName,
	entity.FieldLastName,
	entity.FieldEmail,
	entity.FieldPhone,
	entity.FieldDepartment,
	entity.FieldDesignation,
	entity.FieldLocation,
	entity.FieldDOJ,
	entity.FieldStatus,
	entity.FieldMonthlyCTC,
}

// BuildEmployeeItemSchema returns the JSON Schema one array item must satisfy.
// Closed sets and required fields are not enforced here; the normalizer owns
// those rules, so an item without a first name still reaches review as an
// invalid draft. Only items with no usable field at all are rejected.
func BuildEmployeeItemSchema() map[string]any {
	props := make(map[string]any, len(EmployeeFields))
	for _, f := range EmployeeFields {
		props[f] = scalarProp()
	}
	return map[string]any{
		"type":          "object",
		"properties":    props,
		"minProperties": 1,
	}
}

func scalarProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}
