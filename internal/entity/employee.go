package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Canonical field names shared by the column mapping, the AI schema and the store.
const (
	FieldEmpCode     = "emp_code"
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldDepartment  = "department"
	FieldDesignation = "designation"
	FieldLocation    = "location"
	FieldDOJ         = "doj"
	FieldStatus      = "status"
	FieldMonthlyCTC  = "monthly_ctc"
)

// RawRecord is a candidate row as produced by a parser or by AI extraction,
// before any normalization. All values are untrimmed strings.
type RawRecord struct {
	Row         int    `json:"row,omitempty"`
	EmpCode     string `json:"emp_code,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
	Location    string `json:"location,omitempty"`
	DOJ         string `json:"doj,omitempty"`
	Status      string `json:"status,omitempty"`
	MonthlyCTC  string `json:"monthly_ctc,omitempty"`
}

// Set assigns a canonical field by name. Unknown fields are ignored.
func (r *RawRecord) Set(field, value string) {
	switch field {
	case FieldEmpCode:
		r.EmpCode = value
	case FieldFirstName:
		r.FirstName = value
	case FieldLastName:
		r.LastName = value
	case FieldEmail:
		r.Email = value
	case FieldPhone:
		r.Phone = value
	case FieldDepartment:
		r.Department = value
	case FieldDesignation:
		r.Designation = value
	case FieldLocation:
		r.Location = value
	case FieldDOJ:
		r.DOJ = value
	case FieldStatus:
		r.Status = value
	case FieldMonthlyCTC:
		r.MonthlyCTC = value
	}
}

// FlexString accepts a JSON string, number, bool or null and keeps its text.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var bv bool
	if err := json.Unmarshal(b, &bv); err == nil {
		*f = FlexString(strconv.FormatBool(bv))
		return nil
	}
	// objects and arrays carry no usable scalar
	*f = ""
	return nil
}

// ExtractedRecord is one element of the AI response array.
type ExtractedRecord struct {
	EmpCode     FlexString `json:"emp_code"`
	FirstName   FlexString `json:"first_name"`
	LastName    FlexString `json:"last_name"`
	Email       FlexString `json:"email"`
	Phone       FlexString `json:"phone"`
	Department  FlexString `json:"department"`
	Designation FlexString `json:"designation"`
	Location    FlexString `json:"location"`
	DOJ         FlexString `json:"doj"`
	Status      FlexString `json:"status"`
	MonthlyCTC  FlexString `json:"monthly_ctc"`
}

// Raw converts the AI shape into the common pre-normalization shape.
func (e ExtractedRecord) Raw(row int) RawRecord {
	return RawRecord{
		Row:         row,
		EmpCode:     string(e.EmpCode),
		FirstName:   string(e.FirstName),
		LastName:    string(e.LastName),
		Email:       string(e.Email),
		Phone:       string(e.Phone),
		Department:  string(e.Department),
		Designation: string(e.Designation),
		Location:    string(e.Location),
		DOJ:         string(e.DOJ),
		Status:      string(e.Status),
		MonthlyCTC:  string(e.MonthlyCTC),
	}
}

// EmployeeRecordDraft is a normalized, validated record awaiting review or commit.
// IsValid is always len(ValidationErrors) == 0.
type EmployeeRecordDraft struct {
	Row              int      `json:"row,omitempty"`
	EmpCode          string   `json:"empCode,omitempty"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName,omitempty"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Department       string   `json:"department,omitempty"`
	Designation      string   `json:"designation,omitempty"`
	Location         string   `json:"location,omitempty"`
	DOJ              string   `json:"doj,omitempty"`
	Status           string   `json:"status,omitempty"`
	MonthlyCTC       *float64 `json:"monthlyCtc,omitempty"`
	ValidationErrors []string `json:"validationErrors"`
	IsValid          bool     `json:"isValid"`
	ShouldSave       bool     `json:"shouldSave"`
}

// Raw turns an edited draft back into raw input so it can be re-normalized.
func (d EmployeeRecordDraft) Raw() RawRecord {
	r := RawRecord{
		Row:         d.Row,
		EmpCode:     d.EmpCode,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Email:       d.Email,
		Phone:       d.Phone,
		Department:  d.Department,
		Designation: d.Designation,
		Location:    d.Location,
		DOJ:         d.DOJ,
		Status:      d.Status,
	}
	if d.MonthlyCTC != nil {
		r.MonthlyCTC = strconv.FormatFloat(*d.MonthlyCTC, 'f', -1, 64)
	}
	return r
}

// MatchKey is the identity used to decide create vs update: emp_code, else email.
func (d EmployeeRecordDraft) MatchKey() (field, value string) {
	if c := strings.TrimSpace(d.EmpCode); c != "" {
		return FieldEmpCode, c
	}
	if e := strings.TrimSpace(d.Email); e != "" {
		return FieldEmail, strings.ToLower(e)
	}
	return "", ""
}

// Employee is a persisted employee row.
type Employee struct {
	ID          uuid.UUID `json:"id"`
	EmpCode     *string   `json:"empCode,omitempty"`
	FirstName   string    `json:"firstName"`
	LastName    *string   `json:"lastName,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Department  *string   `json:"department,omitempty"`
	Designation *string   `json:"designation,omitempty"`
	Location    *string   `json:"location,omitempty"`
	DOJ         *string   `json:"doj,omitempty"`
	Status      *string   `json:"status,omitempty"`
	MonthlyCTC  *float64  `json:"monthlyCtc,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
