package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
branches:
  - id: 1
    code: BKK
    name: Bangkok
  - id: 2
    code: CNX
    name: Chiang Mai
legalEntities:
  - id: LE-1
    name: Odyssey Fuel Co.
    taxId: "0105551234567"
trucks:
  - id: TRK-1
    plateNo: 70-1234
    capacity: 20000
    active: true
    lastOdometer: 152340.5
trailers:
  - id: TRL-1
    plateNo: 71-0001
    capacity: 10000
    active: true
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	data, err := Load(path)
	require.NoError(t, err)
	require.Len(t, data.Branches, 2)
	assert.Equal(t, "Chiang Mai", data.Branches[1].Name)
	assert.Equal(t, "0105551234567", data.LegalEntities[0].TaxID)
	require.Len(t, data.Trucks, 1)
	require.NotNil(t, data.Trucks[0].LastOdometer)
	assert.InDelta(t, 152340.5, *data.Trucks[0].LastOdometer, 0.001)
	assert.True(t, data.Trailers[0].Active)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("branches:\n  - id: 1\n    nmae: typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmae")
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmpty)
	_, err = Decode(strings.NewReader("branches: []\n"))
	require.ErrorIs(t, err, ErrEmpty)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
