package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// shape describe los nombres válidos de un objeto del wire.
// fields fija keys conocidas (valor: shape del hijo, nil si es escalar);
// mapOf indica un objeto con keys libres (identificadores) y hijos de esa forma.
type shape struct {
	fields map[string]*shape
	mapOf  *shape
}

var (
	signingKeyShape  = &shape{fields: map[string]*shape{"public-key": nil, "expiration": nil}}
	certificateShape = &shape{fields: map[string]*shape{"certificate": nil}}

	manifestShape = &shape{fields: map[string]*shape{
		"format":                         nil,
		"ingestion-bucket":               nil,
		"peer-validation-bucket":         nil,
		"batch-signing-public-keys":      {mapOf: signingKeyShape},
		"packet-encryption-certificates": {mapOf: certificateShape},
	}}
)

// checkWireKeys recorre el documento y rechaza keys repetidas en cualquier
// objeto y keys que sólo coinciden sin distinguir mayúsculas con un campo
// conocido. Las keys desconocidas se ignoran.
func checkWireKeys(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return walkValue(dec, manifestShape, "")
}

func walkValue(dec *json.Decoder, s *shape, path string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '[':
		for dec.More() {
			if err := walkValue(dec, nil, path+"[]"); err != nil {
				return err
			}
		}
	case '{':
		seen := make(map[string]struct{})
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := kt.(string)
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate field %q%s", key, at(path))
			}
			seen[key] = struct{}{}

			child, err := s.child(key, path)
			if err != nil {
				return err
			}
			if err := walkValue(dec, child, path+"."+key); err != nil {
				return err
			}
		}
	}
	// cierre del objeto o array
	_, err = dec.Token()
	return err
}

func (s *shape) child(key, path string) (*shape, error) {
	switch {
	case s == nil:
		return nil, nil
	case s.mapOf != nil:
		return s.mapOf, nil
	}
	if c, ok := s.fields[key]; ok {
		return c, nil
	}
	for name := range s.fields {
		if strings.EqualFold(name, key) {
			return nil, fmt.Errorf("field %q%s does not match expected name %q", key, at(path), name)
		}
	}
	return nil, nil
}

func at(path string) string {
	if path == "" {
		return ""
	}
	return " in " + strings.TrimPrefix(path, ".")
}
