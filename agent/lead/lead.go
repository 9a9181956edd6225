package lead

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusNew          Status = "new"
	StatusWorking      Status = "working"
	StatusQualified    Status = "qualified"
	StatusDisqualified Status = "disqualified"
)

// Statuses lists every valid status in declaration order.
var Statuses = []Status{StatusNew, StatusWorking, StatusQualified, StatusDisqualified}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusWorking, StatusQualified, StatusDisqualified:
		return true
	default:
		return false
	}
}

// ParseStatus accepts only the exact enumerated values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q: must be one of %s", raw, strings.Join(StatusStrings(), ", "))
	}
	return s, nil
}

func StatusStrings() []string {
	out := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		out = append(out, string(s))
	}
	return out
}

type Lead struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Contact  string   `json:"contact"`
	Industry string   `json:"industry"`
	Status   Status   `json:"status"`
	Notes    []string `json:"notes"`
}

// Clone returns a deep copy so callers never alias store-owned notes.
func (l Lead) Clone() Lead {
	out := l
	out.Notes = append(make([]string, 0, len(l.Notes)), l.Notes...)
	return out
}

// AppendNote adds note at the end and overwrites the status.
func (l *Lead) AppendNote(note string, status Status) {
	l.Notes = append(l.Notes, note)
	l.Status = status
}

func normalize(l Lead) Lead {
	if l.Notes == nil {
		l.Notes = []string{}
	}
	return l
}
