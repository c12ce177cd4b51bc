package rig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTE38_Valid(t *testing.T) {
	s := TE38()
	require.NoError(t, s.Validate())

	assert.Equal(t, "te38", s.Name)
	assert.Equal(t, CycleReciprocating, s.Cycle.Method)
	assert.Equal(t, DefaultLengthFactor, s.LengthFactor)
	assert.Contains(t, s.RequiredColumns(), "Total Cycles")
	assert.Contains(t, s.RequiredHSDColumns(), "HSD Stroke")
}

func TestTE38_SummaryPositions(t *testing.T) {
	s := TE38()

	assert.Equal(t, 4, s.Summary[SummaryTime].Index)
	assert.Equal(t, 7, s.Summary[SummaryLoad].Index)
	assert.Equal(t, 11, s.Summary[SummaryCycles].Index)
	assert.True(t, s.Summary[SummaryCycles].Integer)
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Schema)
		wantErr bool
	}{
		{"valid", func(s *Schema) {}, false},
		{"missing name", func(s *Schema) { s.Name = "" }, true},
		{"no columns", func(s *Schema) { s.Columns = nil }, true},
		{"bad cycle method", func(s *Schema) { s.Cycle.Method = "orbital" }, true},
		{"rotary without speed column", func(s *Schema) {
			s.Cycle.Method = CycleRotary
			s.Cycle.SpeedColumn = ""
		}, true},
		{"length factor out of range", func(s *Schema) { s.LengthFactor = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := TE38()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	content := `name: te77
columns:
  - {name: Time, unit: s, numeric: true, required: true}
  - {name: Speed, unit: rpm, numeric: true, required: true}
cycle:
  method: rotary
  time_column: Time
  speed_column: Speed
  scale: 0.0166667
`
	dir := t.TempDir()
	path := filepath.Join(dir, "te77.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "te77", s.Name)
	assert.Equal(t, CycleRotary, s.Cycle.Method)
	assert.InDelta(t, 0.0166667, s.Cycle.Scale, 1e-9)
	// unset length factor falls back to the default
	assert.Equal(t, DefaultLengthFactor, s.LengthFactor)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid schema", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	s := TE38()
	s.Name = "te38-test-variant"
	require.NoError(t, Register(s))

	got, err := Lookup("te38-test-variant")
	require.NoError(t, err)
	assert.Equal(t, s.Name, got.Name)

	_, err = Lookup("does-not-exist")
	assert.Error(t, err)

	assert.Contains(t, Names(), "te38")
}
