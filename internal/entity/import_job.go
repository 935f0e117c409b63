package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/constants"
)

// ImportJob is the ledger row for one uploaded file.
type ImportJob struct {
	ID            uuid.UUID           `json:"id"`
	FileName      string              `json:"fileName"`
	FileKey       string              `json:"fileKey"`
	MimeType      string              `json:"mimeType"`
	FileSizeBytes int64               `json:"fileSizeBytes"`
	UploadedBy    string              `json:"uploadedBy"`
	Status        constants.JobStatus `json:"status"`
	ResultPayload *ResultPayload      `json:"resultPayload,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	ProcessedAt   *time.Time          `json:"processedAt,omitempty"`
}

// ResultPayload is written only together with a terminal status. A parsed job
// stores {employees, total, format}; a failed one stores {error}.
type ResultPayload struct {
	Employees []EmployeeRecordDraft `json:"employees"`
	Total     int                   `json:"total"`
	Format    string                `json:"format,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func (p ResultPayload) MarshalJSON() ([]byte, error) {
	if p.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{p.Error})
	}
	type payload ResultPayload
	if p.Employees == nil {
		p.Employees = []EmployeeRecordDraft{}
	}
	return json.Marshal(payload(p))
}
