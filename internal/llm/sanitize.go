package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// keyAliases maps spellings models tend to use onto the schema keys.
var keyAliases = map[string]string{
	"empcode":         "emp_code",
	"employee_code":   "emp_code",
	"employee_id":     "emp_code",
	"emp_id":          "emp_code",
	"id":              "emp_code",
	"firstname":       "first_name",
	"given_name":      "first_name",
	"name":            "first_name",
	"lastname":        "last_name",
	"surname":         "last_name",
	"email_address":   "email",
	"mobile":          "phone",
	"phone_number":    "phone",
	"dept":            "department",
	"title":           "designation",
	"job_title":       "designation",
	"city":            "location",
	"date_of_joining": "doj",
	"joining_date":    "doj",
	"monthlyctc":      "monthly_ctc",
	"ctc":             "monthly_ctc",
	"salary":          "monthly_ctc",
}

// SanitizeItem renames aliased keys, drops unknown keys and blank strings, and
// trims string values. It returns the cleaned item and the keys it touched.
func SanitizeItem(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	allowed := make(map[string]struct{}, len(EmployeeFields))
	for _, f := range EmployeeFields {
		allowed[f] = struct{}{}
	}

	out := make(map[string]any, len(m))
	var dropped []string
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v := m[k]
		key := snakeKey(k)
		if alias, ok := keyAliases[key]; ok {
			key = alias
		}
		if _, ok := allowed[key]; !ok {
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		if _, exists := out[key]; exists && key != snakeKey(k) {
			// canonical key already present; keep it
			dropped = append(dropped, k+"(duplicate)")
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				dropped = append(dropped, k+"(empty)")
				continue
			}
			out[key] = s
		case nil:
			dropped = append(dropped, k+"(null)")
		case float64:
			out[key] = t
		default:
			dropped = append(dropped, k+"(type)")
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.extract.sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}

// snakeKey lower-cases k and turns camelCase, spaces and dashes into underscores.
func snakeKey(k string) string {
	var b strings.Builder
	k = strings.TrimSpace(k)
	for i, r := range k {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 && k[i-1] != '_' && k[i-1] != ' ' && k[i-1] != '-' && !(k[i-1] >= 'A' && k[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ' || r == '-':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
