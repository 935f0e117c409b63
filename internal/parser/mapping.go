package parser

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

// synonym maps one normalized header spelling to a canonical field.
type synonym struct {
	Header string
	Field  string
}

// ColumnMapping is ordered: for a given header the first matching entry wins.
// Headers are compared after normalizeHeader, so entries use single spaces.
var ColumnMapping = []synonym{
	{"emp code", entity.FieldEmpCode},
	{"employee code", entity.FieldEmpCode},
	{"employee id", entity.FieldEmpCode},
	{"emp id", entity.FieldEmpCode},
	{"empcode", entity.FieldEmpCode},
	{"empid", entity.FieldEmpCode},
	{"staff id", entity.FieldEmpCode},
	{"id", entity.FieldEmpCode},

	{"first name", entity.FieldFirstName},
	{"firstname", entity.FieldFirstName},
	{"given name", entity.FieldFirstName},
	{"fname", entity.FieldFirstName},
	{"name", entity.FieldFirstName},
	{"full name", entity.FieldFirstName},
	{"employee name", entity.FieldFirstName},

	{"last name", entity.FieldLastName},
	{"lastname", entity.FieldLastName},
	{"surname", entity.FieldLastName},
	{"family name", entity.FieldLastName},
	{"lname", entity.FieldLastName},

	{"email", entity.FieldEmail},
	{"e mail", entity.FieldEmail},
	{"email address", entity.FieldEmail},
	{"work email", entity.FieldEmail},
	{"official email", entity.FieldEmail},
	{"mail", entity.FieldEmail},

	{"phone", entity.FieldPhone},
	{"phone number", entity.FieldPhone},
	{"mobile", entity.FieldPhone},
	{"mobile number", entity.FieldPhone},
	{"contact", entity.FieldPhone},
	{"contact number", entity.FieldPhone},

	{"department", entity.FieldDepartment},
	{"dept", entity.FieldDepartment},
	{"division", entity.FieldDepartment},

	{"designation", entity.FieldDesignation},
	{"title", entity.FieldDesignation},
	{"job title", entity.FieldDesignation},
	{"role", entity.FieldDesignation},
	{"position", entity.FieldDesignation},

	{"location", entity.FieldLocation},
	{"office", entity.FieldLocation},
	{"city", entity.FieldLocation},
	{"work location", entity.FieldLocation},

	{"doj", entity.FieldDOJ},
	{"date of joining", entity.FieldDOJ},
	{"joining date", entity.FieldDOJ},
	{"join date", entity.FieldDOJ},
	{"start date", entity.FieldDOJ},
	{"hire date", entity.FieldDOJ},

	{"status", entity.FieldStatus},
	{"employee status", entity.FieldStatus},
	{"employment status", entity.FieldStatus},

	{"monthly ctc", entity.FieldMonthlyCTC},
	{"ctc", entity.FieldMonthlyCTC},
	{"monthly salary", entity.FieldMonthlyCTC},
	{"salary", entity.FieldMonthlyCTC},
	{"monthlyctc", entity.FieldMonthlyCTC},
}

var headerSepRe = regexp.MustCompile(`[\s_\-]+`)

// normalizeHeader trims, lower-cases and strips surrounding quotes; separators
// collapse to a single space so "First_Name" and "first  name" compare equal.
func normalizeHeader(h string) string {
	s := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	s = strings.Trim(s, `"'`)
	s = strings.ToLower(strings.TrimSpace(s))
	s = headerSepRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FieldForHeader resolves a header cell to its canonical field, or "".
func FieldForHeader(h string) string {
	n := normalizeHeader(h)
	if n == "" {
		return ""
	}
	for _, s := range ColumnMapping {
		if s.Header == n {
			return s.Field
		}
	}
	return ""
}

// MapHeaders returns, for each column index, the canonical field it feeds.
// When two columns resolve to the same field the leftmost one keeps it.
func MapHeaders(headers []string) map[int]string {
	out := make(map[int]string, len(headers))
	used := make(map[string]bool)
	for i, h := range headers {
		f := FieldForHeader(h)
		if f == "" || used[f] {
			continue
		}
		out[i] = f
		used[f] = true
	}
	return out
}
