package lead

import (
	"bytes"
	"context"

	"github.com/tidwall/gjson"
)

// ParseSeed extracts rows from a {"leads": [...]} payload. ok is false when
// raw is not such a payload. Non-object rows are skipped; object rows are
// always kept, see decodeRow.
func ParseSeed(raw []byte) (leads []Lead, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !gjson.ValidBytes(trimmed) {
		return nil, false
	}

	rows := gjson.GetBytes(trimmed, "leads")
	if !rows.IsArray() {
		return nil, false
	}

	leads = make([]Lead, 0, 16)
	rows.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			return true
		}
		leads = append(leads, decodeRow(row))
		return true
	})
	return leads, true
}

// decodeRow reads each field on its own so a mistyped value never drops the
// row: ids given as numeric strings are parsed, scalar fields take the text
// form of whatever value is present, and a scalar notes value becomes a
// single note.
func decodeRow(row gjson.Result) Lead {
	l := Lead{
		ID:       int(row.Get("id").Int()),
		Name:     row.Get("name").String(),
		Contact:  row.Get("contact").String(),
		Industry: row.Get("industry").String(),
		Status:   Status(row.Get("status").String()),
		Notes:    []string{},
	}

	notes := row.Get("notes")
	switch {
	case notes.IsArray():
		notes.ForEach(func(_, n gjson.Result) bool {
			l.Notes = append(l.Notes, n.String())
			return true
		})
	case notes.Type != gjson.Null && notes.String() != "":
		l.Notes = append(l.Notes, notes.String())
	}
	return l
}

// Bootstrap imports seed into store only when the store is empty, so
// restarting against a populated store never duplicates rows.
func Bootstrap(ctx context.Context, store Store, seed []byte) (int, error) {
	if len(seed) == 0 {
		return 0, nil
	}

	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	leads, ok := ParseSeed(seed)
	if !ok || len(leads) == 0 {
		return 0, nil
	}
	if err := store.Insert(ctx, leads...); err != nil {
		return 0, err
	}
	return len(leads), nil
}
