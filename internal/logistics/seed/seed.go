// Package seed reads branch, legal entity and fleet reference data from a
// YAML file.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
)

// ErrEmpty is returned when the file defines no reference data at all.
var ErrEmpty = errors.New("seed: no reference data")

// Load reads and decodes the file at path.
func Load(path string) (logistics.ReferenceData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return logistics.ReferenceData{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	data, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return logistics.ReferenceData{}, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Decode parses reference data. Unknown keys are rejected so typos surface
// at startup.
func Decode(r io.Reader) (logistics.ReferenceData, error) {
	var data logistics.ReferenceData
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return logistics.ReferenceData{}, ErrEmpty
		}
		return logistics.ReferenceData{}, fmt.Errorf("seed: decode: %w", err)
	}
	if len(data.Branches)+len(data.LegalEntities)+len(data.Trucks)+len(data.Trailers) == 0 {
		return logistics.ReferenceData{}, ErrEmpty
	}
	return data, nil
}
