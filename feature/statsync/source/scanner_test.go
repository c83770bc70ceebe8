package source

import (
	"testing"
	"time"

	"player-statistics/feature/statsync/models"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uuidA = "069a79f4-44e9-4726-a5be-fca90e38aaf5"
	uuidB = "853c80ef-3c37-49fd-aa49-938b674adae6"
	uuidC = "00000000-0000-0000-0009-01f5f1b0f4e0"
)

func writeRecord(t *testing.T, fs afero.Fs, name, body string, mod time.Time) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "world/stats/"+name, []byte(body), 0o644))
	require.NoError(t, fs.Chtimes("world/stats/"+name, mod, mod))
}

func TestScan(t *testing.T) {
	fs := afero.NewMemMapFs()
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	writeRecord(t, fs, uuidA+".json", `{}`, last.Add(time.Minute))
	writeRecord(t, fs, uuidB+".json", `{}`, last.Add(time.Hour))
	writeRecord(t, fs, uuidC+".json", `{}`, last.Add(-time.Hour))
	writeRecord(t, fs, "not-a-uuid.json", `{}`, last.Add(time.Hour))
	writeRecord(t, fs, uuidA+".txt", `{}`, last.Add(time.Hour))
	writeRecord(t, fs, "069a79f444e94726a5befca90e38aaf5.json", `{}`, last.Add(time.Hour))
	require.NoError(t, fs.MkdirAll("world/stats/"+uuidB+".json.d", 0o755))

	s := NewScanner(fs, "world/stats")

	entries, err := s.Scan(last)
	require.NoError(t, err)

	got := map[string]Entry{}
	for _, e := range entries {
		got[e.UUID] = e
	}
	assert.Len(t, got, 2)
	assert.Contains(t, got, uuidA)
	assert.Contains(t, got, uuidB)
	assert.Equal(t, "world/stats/"+uuidA+".json", got[uuidA].Path)

	t.Run("Strictly After", func(t *testing.T) {
		entries, err := s.Scan(last.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, uuidB, entries[0].UUID)
	})

	t.Run("No Changes", func(t *testing.T) {
		entries, err := s.Scan(last.Add(2 * time.Hour))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestScan_MissingDirectory(t *testing.T) {
	s := NewScanner(afero.NewMemMapFs(), "world/stats")
	entries, err := s.Scan(time.Time{})
	assert.ErrorIs(t, err, ErrSourceMissing)
	assert.Nil(t, entries)
}

func TestParseUUID(t *testing.T) {
	id, ok := ParseUUID("069A79F4-44E9-4726-A5BE-FCA90E38AAF5")
	assert.True(t, ok)
	assert.Equal(t, uuidA, id)

	for _, bad := range []string{"", "069a79f444e94726a5befca90e38aaf5", "{069a79f4-44e9-4726-a5be-fca90e38aaf5}", "zzza79f4-44e9-4726-a5be-fca90e38aaf5"} {
		_, ok := ParseUUID(bad)
		assert.False(t, ok, bad)
	}
}

func TestRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	mod := time.Now()
	writeRecord(t, fs, uuidA+".json", `{
		"stats": {
			"minecraft:mined": {"minecraft:stone": 120, "minecraft:dirt": 4},
			"minecraft:custom": {"minecraft:play_time": 9007199254740993, "minecraft:jump": 1.5},
			"minecraft:killed_by": {"minecraft:zombie": "2"},
			"modded:unknown": {"minecraft:x": 1}
		},
		"DataVersion": 3700
	}`, mod)
	writeRecord(t, fs, uuidB+".json", `{"stats": `, mod)
	writeRecord(t, fs, uuidC+".json", `{"DataVersion": 3700}`, mod)

	s := NewScanner(fs, "world/stats")

	rec, err := s.Read(Entry{UUID: uuidA, Path: "world/stats/" + uuidA + ".json"})
	require.NoError(t, err)
	assert.Equal(t, uuidA, rec.UUID)
	assert.Equal(t, map[string]int64{"stone": 120, "dirt": 4}, rec.Stats[models.CategoryMined])
	assert.Equal(t, map[string]int64{"play_time": 9007199254740993}, rec.Stats[models.CategoryCustom])
	assert.Equal(t, map[string]int64{"zombie": 2}, rec.Stats[models.CategoryKilledBy])
	assert.Len(t, rec.Stats, 3)
	assert.Equal(t, 4, rec.Len(), "fractional amounts and unknown categories are dropped")

	_, err = s.Read(Entry{UUID: uuidB, Path: "world/stats/" + uuidB + ".json"})
	assert.ErrorIs(t, err, ErrUnreadable)

	rec, err = s.Read(Entry{UUID: uuidC, Path: "world/stats/" + uuidC + ".json"})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())

	_, err = s.Read(Entry{UUID: uuidA, Path: "world/stats/missing.json"})
	assert.ErrorIs(t, err, ErrUnreadable)
}
