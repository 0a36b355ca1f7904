// Package command provides the text command registry and parser for the
// skill commands a client may type.
package command

import "github.com/cory-johannsen/skillcast/internal/game/skill"

// Handler identifiers dispatched by the game server.
const (
	HandlerCast   = "cast"
	HandlerSkills = "skills"
	HandlerReady  = "ready"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown in help.
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Handler names the server operation the command invokes.
	Handler string
}

// BuiltinCommands returns the skill commands.
//
// castskill is the command named by skill.AvailableCommands, so a client
// can send an offered command back verbatim.
func BuiltinCommands() []Command {
	return []Command{
		{
			Name:    skill.CastCommand,
			Aliases: []string{"cast", "cs"},
			Usage:   "<skill> [target]",
			Help:    "Use a skill, optionally on a target.",
			Handler: HandlerCast,
		},
		{
			Name:    "skills",
			Aliases: []string{"sk"},
			Help:    "List your skills and their cooldowns.",
			Handler: HandlerSkills,
		},
		{
			Name:    "ready",
			Aliases: []string{"rdy"},
			Usage:   "<skill>",
			Help:    "Check whether a skill can be used now.",
			Handler: HandlerReady,
		},
	}
}
