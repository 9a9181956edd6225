package lead

import "testing"

func TestContainsFold(t *testing.T) {
	t.Parallel()

	l := Lead{ID: 1, Name: "Acme Corp", Contact: "Jane@Acme.io", Industry: "Software", Status: StatusWorking}

	tests := []struct {
		query  string
		fields []Field
		want   bool
	}{
		{"acme", []Field{FieldName}, true},
		{"JANE", []Field{FieldName, FieldContact}, true},
		{"soft", []Field{FieldName, FieldContact}, false},
		{"soft", []Field{FieldIndustry}, true},
		{"work", []Field{FieldStatus}, true},
		{"", []Field{FieldName}, true},
		{"zzz", []Field{FieldName, FieldContact, FieldIndustry, FieldStatus}, false},
	}
	for _, tt := range tests {
		if got := ContainsFold(tt.query, tt.fields...)(l); got != tt.want {
			t.Fatalf("ContainsFold(%q, %v) = %v, want %v", tt.query, tt.fields, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"new", "working", "qualified", "disqualified"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("ParseStatus(%q) unexpected error: %v", raw, err)
		}
	}
	for _, raw := range []string{"", "New", "won", " qualified"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Fatalf("ParseStatus(%q) expected error", raw)
		}
	}
}
