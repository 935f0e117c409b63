package constants

// JobStatus is the canonical status for rows in import_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusUploaded   JobStatus = "uploaded"   // artifact stored, nothing parsed yet
	JobStatusProcessing JobStatus = "processing" // parse in progress
	JobStatusParsed     JobStatus = "parsed"     // terminal: employees extracted
	JobStatusFailed     JobStatus = "failed"     // terminal failure
)

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusParsed || s == JobStatusFailed
}

// Role names as stored in user_roles.
const (
	RoleHR         = "hr"
	RoleSuperAdmin = "super_admin"
	RoleEmployee   = "employee"
)

// ImportRoles may upload and commit employee data.
var ImportRoles = map[string]struct{}{
	RoleHR:         {},
	RoleSuperAdmin: {},
}
