// Package normalize turns raw candidate rows into validated employee drafts.
// Everything here is pure: no I/O, no clock, no randomness.
package normalize

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

const (
	MsgFirstNameRequired = "First name is required"
	MsgInvalidEmail      = "Invalid email"
	MsgInvalidDepartment = "Invalid department"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Options selects the policy for recoverable fields.
// Strict is the human-review mode: an invalid email is kept and flagged.
// Non-strict is the AI-extraction mode: an invalid email is dropped.
type Options struct {
	Strict bool
}

// Normalize applies every field rule to raw and returns the resulting draft.
func Normalize(raw entity.RawRecord, opts Options) entity.EmployeeRecordDraft {
	v := common.NewValidator()
	d := entity.EmployeeRecordDraft{
		Row:         raw.Row,
		EmpCode:     strings.TrimSpace(raw.EmpCode),
		FirstName:   strings.TrimSpace(raw.FirstName),
		LastName:    strings.TrimSpace(raw.LastName),
		Designation: strings.TrimSpace(raw.Designation),
		Location:    strings.TrimSpace(raw.Location),
	}
	v.Field(entity.FieldFirstName, d.FirstName, common.Required(MsgFirstNameRequired))

	if email := strings.TrimSpace(raw.Email); email != "" {
		if emailRe.MatchString(email) {
			d.Email = email
		} else if opts.Strict {
			d.Email = email
			v.Add(entity.FieldEmail, email, MsgInvalidEmail)
		}
	}

	d.Phone = Phone(raw.Phone)

	d.Department = strings.TrimSpace(raw.Department)
	if canon, ok := constants.CanonicalDepartment(d.Department); ok {
		d.Department = string(canon)
	}
	v.Field(entity.FieldDepartment, d.Department, common.OneOf(MsgInvalidDepartment, constants.Departments()...))

	if st := strings.TrimSpace(raw.Status); st != "" {
		if canon, ok := constants.CanonicalStatus(st); ok {
			d.Status = string(canon)
		} else {
			d.Status = string(constants.StatusActive)
		}
	}

	d.DOJ = Date(raw.DOJ)
	d.MonthlyCTC = MonthlyCTC(raw.MonthlyCTC)

	d.ValidationErrors = v.Messages()
	d.IsValid = len(d.ValidationErrors) == 0
	d.ShouldSave = d.IsValid
	return d
}

// Revalidate re-runs the rules after a field edit so IsValid is current.
// A draft the reviewer excluded stays excluded.
func Revalidate(d entity.EmployeeRecordDraft, opts Options) entity.EmployeeRecordDraft {
	out := Normalize(d.Raw(), opts)
	out.ShouldSave = out.IsValid && (d.ShouldSave || !d.IsValid)
	return out
}

// All normalizes a batch, preserving order.
func All(raws []entity.RawRecord, opts Options) []entity.EmployeeRecordDraft {
	out := make([]entity.EmployeeRecordDraft, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r, opts))
	}
	return out
}

// CountInvalid returns how many drafts carry at least one validation error.
func CountInvalid(drafts []entity.EmployeeRecordDraft) int {
	n := 0
	for _, d := range drafts {
		if !d.IsValid {
			n++
		}
	}
	return n
}
