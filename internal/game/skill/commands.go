package skill

// CastCommand is the command name clients send to cast a skill.
const CastCommand = "castskill"

// Command is an action offered to a viewer.
type Command struct {
	// Name is the localized label.
	Name string `json:"name"`
	Cmd  string `json:"cmd"`
	Args string `json:"args"`
}

// AvailableCommands lists the commands viewer may invoke on inst. Passive
// skills offer none; every other skill offers a single cast command whose
// argument is the skill key. The result is never nil.
func AvailableCommands(inst *Instance, viewer Entity, tr Translator) []Command {
	if inst.Passive() {
		return []Command{}
	}
	return []Command{{
		Name: translate(tr, MsgCast),
		Cmd:  CastCommand,
		Args: inst.Key(),
	}}
}
