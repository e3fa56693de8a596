package manifest

import (
	"bytes"
	"encoding/json"
)

// Rewrite sets the constraint of every requirement named in versions and
// returns the new document. Everything else, including key order and
// whitespace, is left byte for byte. changed is false when no constraint
// differed, in which case the input is returned as is.
func Rewrite(data []byte, versions map[string]string) (out []byte, changed bool, err error) {
	type edit struct {
		start, end int64
		value      []byte
	}
	var edits []edit

	err = walk(data, func(string, json.RawMessage) error { return nil }, func(e requireEntry) error {
		next, ok := versions[e.name]
		if !ok || next == e.value {
			return nil
		}
		quoted, err := quote(next)
		if err != nil {
			return err
		}
		edits = append(edits, edit{start: e.start, end: e.end, value: quoted})
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if len(edits) == 0 {
		return data, false, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	var pos int64
	for _, e := range edits {
		buf.Write(data[pos:e.start])
		buf.Write(e.value)
		pos = e.end
	}
	buf.Write(data[pos:])
	return buf.Bytes(), true, nil
}

func quote(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
