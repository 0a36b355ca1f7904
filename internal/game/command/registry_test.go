package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	names := make([]string, 0)
	for _, c := range r.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"castskill", "ready", "skills"}, names)
}

func TestResolve_OfferedCastCommand(t *testing.T) {
	cmd, ok := DefaultRegistry().Resolve(skill.CastCommand)
	require.True(t, ok)
	assert.Equal(t, HandlerCast, cmd.Handler)
}

func TestResolve_Alias(t *testing.T) {
	r := DefaultRegistry()
	for alias, want := range map[string]string{"cast": "castskill", "cs": "castskill", "sk": "skills", "rdy": "ready"} {
		cmd, ok := r.Resolve(alias)
		require.True(t, ok, alias)
		assert.Equal(t, want, cmd.Name)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, ok := DefaultRegistry().Resolve("north")
	assert.False(t, ok)
}

func TestNewRegistry_Collisions(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "a"}, {Name: "a"}})
	assert.ErrorContains(t, err, "duplicate command name")

	_, err = NewRegistry([]Command{{Name: "a", Aliases: []string{"x"}}, {Name: "b", Aliases: []string{"x"}}})
	assert.ErrorContains(t, err, "duplicate alias")

	_, err = NewRegistry([]Command{{Name: "a"}, {Name: "b", Aliases: []string{"a"}}})
	assert.ErrorContains(t, err, "conflicts")

	_, err = NewRegistry([]Command{{Name: "a", Aliases: []string{"b"}}, {Name: "b"}})
	assert.ErrorContains(t, err, "conflicts")
}
