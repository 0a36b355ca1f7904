package condition_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skillcast/internal/game/condition"
)

func TestRegistry_Get(t *testing.T) {
	reg := condition.NewRegistry()
	def := &condition.Def{ID: "prone", Name: "Prone"}
	require.NoError(t, reg.Register(def))

	got, ok := reg.Get("prone")
	require.True(t, ok)
	assert.Equal(t, def, got)
	_, ok = reg.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_RegisterRejectsBadDefs(t *testing.T) {
	reg := condition.NewRegistry()
	assert.Error(t, reg.Register(&condition.Def{}))
	require.NoError(t, reg.Register(&condition.Def{ID: "a"}))
	assert.Error(t, reg.Register(&condition.Def{ID: "a"}))
}

func TestRegistry_DisplayNameDefaultsToID(t *testing.T) {
	reg := condition.NewRegistry()
	require.NoError(t, reg.Register(&condition.Def{ID: "dazed"}))
	require.NoError(t, reg.Register(&condition.Def{ID: "stunned", Name: "Stunned"}))

	name, ok := reg.DisplayName("dazed")
	assert.True(t, ok)
	assert.Equal(t, "dazed", name)
	name, _ = reg.DisplayName("stunned")
	assert.Equal(t, "Stunned", name)
	_, ok = reg.DisplayName("x")
	assert.False(t, ok)
}

func TestLoadDirectory_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
id: stunned
name: Stunned
description: "You are stunned."
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stunned.yaml"), []byte(yaml), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0644))

	reg, err := condition.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	got, ok := reg.Get("stunned")
	require.True(t, ok)
	assert.Equal(t, "You are stunned.", got.Description)
}

func TestLoadDirectory_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\nmax_stacks: 3\n"), 0644))
	_, err := condition.LoadDirectory(dir)
	assert.ErrorContains(t, err, "bad.yaml")
}

func TestLoadDirectory_EmptyDir(t *testing.T) {
	reg, err := condition.LoadDirectory(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, reg.All())
}

func TestLoadDirectory_MissingDir(t *testing.T) {
	_, err := condition.LoadDirectory("/nonexistent/conditions")
	assert.Error(t, err)
}

func TestPropertyAllIsSortedByID(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,8}`), func(s string) string { return s }).Draw(t, "ids")
		reg := condition.NewRegistry()
		for _, id := range ids {
			if err := reg.Register(&condition.Def{ID: id}); err != nil {
				t.Fatal(err)
			}
		}
		all := reg.All()
		if len(all) != len(ids) {
			t.Fatalf("got %d defs, want %d", len(all), len(ids))
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].ID >= all[i].ID {
				t.Fatalf("not sorted: %q before %q", all[i-1].ID, all[i].ID)
			}
		}
	})
}
