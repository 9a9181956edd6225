package lead

import "strings"

// Field names a searchable string field of a Lead.
type Field string

const (
	FieldName     Field = "name"
	FieldContact  Field = "contact"
	FieldIndustry Field = "industry"
	FieldStatus   Field = "status"
)

// Value returns the field's value for l.
func (f Field) Value(l Lead) string {
	switch f {
	case FieldName:
		return l.Name
	case FieldContact:
		return l.Contact
	case FieldIndustry:
		return l.Industry
	case FieldStatus:
		return string(l.Status)
	default:
		return ""
	}
}

// Matcher is a predicate evaluated against every lead during a full scan.
type Matcher func(Lead) bool

// ContainsFold matches leads where any of fields contains query, ignoring case.
func ContainsFold(query string, fields ...Field) Matcher {
	needle := strings.ToLower(query)
	return func(l Lead) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f.Value(l)), needle) {
				return true
			}
		}
		return false
	}
}

// NameEquals matches leads whose trimmed name equals query, ignoring case.
func NameEquals(query string) Matcher {
	want := strings.ToLower(strings.TrimSpace(query))
	return func(l Lead) bool {
		return strings.ToLower(strings.TrimSpace(l.Name)) == want
	}
}

// All matches every lead.
func All() Matcher {
	return func(Lead) bool { return true }
}

func filter(leads []Lead, m Matcher) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if m == nil || m(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}
