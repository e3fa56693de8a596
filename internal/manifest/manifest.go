// Package manifest reads and rewrites composer.json manifests.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FileName is the manifest path at the repository root.
const FileName = "composer.json"

// ErrInvalidManifest indicates the manifest is not a JSON object.
var ErrInvalidManifest = errors.New("invalid manifest")

// Requirement is one entry of the manifest's require section.
type Requirement struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint"`
}

// Manifest is the subset of composer.json the release train reads.
type Manifest struct {
	Name    string        `json:"name"`
	Require []Requirement `json:"require"`
}

// Parse decodes a manifest. Requirements keep their document order.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	err := walk(data, func(key string, raw json.RawMessage) error {
		if key != "name" {
			return nil
		}
		if err := json.Unmarshal(raw, &m.Name); err != nil {
			return fmt.Errorf("%w: name: %v", ErrInvalidManifest, err)
		}
		return nil
	}, func(e requireEntry) error {
		m.Require = append(m.Require, Requirement{Name: e.name, Constraint: e.value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Lookup returns the constraint a manifest places on name.
func (m *Manifest) Lookup(name string) (string, bool) {
	for _, r := range m.Require {
		if r.Name == name {
			return r.Constraint, true
		}
	}
	return "", false
}

// requireEntry locates one require value in the source document.
type requireEntry struct {
	name       string
	value      string
	start, end int64 // byte span of the quoted value
}

// walk visits top-level keys other than require with their raw values and
// every string entry of the require object with its byte span.
func walk(data []byte, onKey func(string, json.RawMessage) error, onRequire func(requireEntry) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return err
		}

		if key != "require" {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidManifest, key, err)
			}
			if err := onKey(key, raw); err != nil {
				return err
			}
			continue
		}

		if err := walkRequire(data, dec, onRequire); err != nil {
			return err
		}
	}

	return expectDelim(dec, '}')
}

func walkRequire(data []byte, dec *json.Decoder, onRequire func(requireEntry) error) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: require: %v", ErrInvalidManifest, err)
	}
	switch tok {
	case json.Delim('{'):
	case nil:
		return nil
	case json.Delim('['):
		// composer writes an empty require as []
		return skipArray(dec)
	default:
		return fmt.Errorf("%w: require is not an object", ErrInvalidManifest)
	}

	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return err
		}
		afterKey := dec.InputOffset()

		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: require %s: %v", ErrInvalidManifest, name, err)
		}
		value, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: require %s is not a string", ErrInvalidManifest, name)
		}
		end := dec.InputOffset()
		start := afterKey + int64(bytes.IndexByte(data[afterKey:end], '"'))

		if err := onRequire(requireEntry{name: name, value: value, start: start, end: end}); err != nil {
			return err
		}
	}

	return expectDelim(dec, '}')
}

func skipArray(dec *json.Decoder) error {
	for dec.More() {
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return fmt.Errorf("%w: require: %v", ErrInvalidManifest, err)
		}
	}
	return expectDelim(dec, ']')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidManifest, want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected key, got %v", ErrInvalidManifest, tok)
	}
	return s, nil
}
