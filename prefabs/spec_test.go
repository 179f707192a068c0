package prefabs

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milk9111/dreamtower/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func useDiskDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := DiskDir
	DiskDir = dir
	t.Cleanup(func() { DiskDir = prev })
	return dir
}

func TestEmbeddedPrefabsAreValid(t *testing.T) {
	useDiskDir(t)

	tuning, err := LoadTuning()
	require.NoError(t, err)
	assert.Greater(t, tuning.Block.FallSpeed, 0.0)
	assert.Greater(t, tuning.Hearts, 0)
	assert.NotEmpty(t, tuning.Sounds)

	blocks, err := LoadBlocks()
	require.NoError(t, err)
	assert.NotEmpty(t, blocks.Reality)
	assert.NotEmpty(t, blocks.Dream)
	assert.Len(t, blocks.Sprites(block.KindDream), len(blocks.Dream))

	arena, err := LoadArena()
	require.NoError(t, err)
	assert.Less(t, arena.Left, arena.Right)
}

func TestDiskCopyOverridesEmbedded(t *testing.T) {
	dir := useDiskDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArenaFile), []byte("left: -4\nright: 4\nwall_height: 10\n"), 0o644))

	arena, err := LoadArena()
	require.NoError(t, err)
	assert.Equal(t, -4.0, arena.Left)
	assert.Empty(t, arena.Traps)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ArenaFile), []byte("left: 4\nright: -4\nwall_height: 10\n"), 0o644))
	_, err = LoadArena()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTuningValidate(t *testing.T) {
	useDiskDir(t)
	base, err := LoadTuning()
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*TuningSpec)
	}{
		{"zero fall speed", func(s *TuningSpec) { s.Block.FallSpeed = 0 }},
		{"negative move speed", func(s *TuningSpec) { s.Block.MoveSpeed = -1 }},
		{"snap threshold too wide", func(s *TuningSpec) { s.Block.SnapThreshold = 45 }},
		{"probability above one", func(s *TuningSpec) { s.Spawn.BaseProbability = 1.5 }},
		{"negative penalty", func(s *TuningSpec) { s.Spawn.RealityPenalty = -0.1 }},
		{"zero level duration", func(s *TuningSpec) { s.Level.Duration = 0 }},
		{"sweep offsets reversed", func(s *TuningSpec) { s.Sweep.MaxOffset = s.Sweep.MinOffset - 1 }},
		{"unknown item", func(s *TuningSpec) { s.Items.Kinds = []string{"none", "anvil"} }},
		{"no hearts", func(s *TuningSpec) { s.Hearts = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := base
			spec.Items.Kinds = append([]string(nil), base.Items.Kinds...)
			tc.mutate(&spec)
			assert.ErrorIs(t, spec.Validate(), ErrInvalid)
		})
	}
}

func TestBlocksVariant(t *testing.T) {
	spec := BlocksSpec{CellSize: 1, Reality: []VariantSpec{{Sprite: "r0"}}}
	_, ok := spec.Variant(block.KindReality, 0)
	assert.True(t, ok)
	_, ok = spec.Variant(block.KindReality, 1)
	assert.False(t, ok)
	_, ok = spec.Variant(block.KindDream, 0)
	assert.False(t, ok)
	assert.ErrorIs(t, spec.Validate(), ErrInvalid, "variant without cells")
}

func TestYAMLColor(t *testing.T) {
	var v struct {
		C YAMLColor `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`c: "#ff000080"`), &v))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0x80}, v.C.Color)

	assert.Error(t, yaml.Unmarshal([]byte(`c: "#fff"`), &v))

	var empty YAMLColor
	assert.Equal(t, color.Black, empty.Or(color.Black))
}

func TestScriptPaths(t *testing.T) {
	cases := map[string]string{
		"autopilot":                       "scripts/autopilot.tengo",
		"scripts/autopilot.tengo":         "scripts/autopilot.tengo",
		"prefabs/scripts/autopilot.tengo": "scripts/autopilot.tengo",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanScriptPath(in), in)
	}
	assert.Contains(t, Scripts(), "autopilot")
}

func TestWatcherReportsEdits(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TuningFile), []byte("hearts: 1\n"), 0o644))

	select {
	case name := <-w.Events:
		assert.Equal(t, TuningFile, name)
	case <-time.After(2 * time.Second):
		t.Fatal("no watcher event")
	}
}

func TestWatchedName(t *testing.T) {
	name, ok := watchedName("/tmp/x/blocks.yml")
	assert.True(t, ok)
	assert.Equal(t, "blocks.yml", name)
	name, ok = watchedName("/tmp/x/autopilot.tengo")
	assert.True(t, ok)
	assert.Equal(t, "scripts/autopilot.tengo", name)
	_, ok = watchedName("/tmp/x/readme.md")
	assert.False(t, ok)
}
