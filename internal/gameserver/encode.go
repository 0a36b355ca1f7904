package gameserver

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

// CastResultMap renders res in the client wire shape. A rejected cast is
// {"cast": reason}. Otherwise the map carries caller, skill, main_type,
// sub_type, cast, target and status, plus result when the effect produced
// any text.
func CastResultMap(res *skill.CastResult) map[string]any {
	if res.Rejected() {
		return map[string]any{"cast": res.Message}
	}
	st := make(map[string]any, len(res.Status))
	for ref, snap := range res.Status {
		if snap == nil {
			st[string(ref)] = nil
			continue
		}
		st[string(ref)] = map[string]any(snap)
	}
	out := map[string]any{
		"caller":    string(res.Caster),
		"skill":     res.Skill,
		"main_type": res.MainType,
		"sub_type":  res.SubType,
		"cast":      res.Message,
		"target":    string(res.Target),
		"status":    st,
	}
	if res.Result != "" {
		out["result"] = res.Result
	}
	return out
}

func castResultStruct(res *skill.CastResult) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(CastResultMap(res))
	if err != nil {
		return nil, fmt.Errorf("encoding cast result: %w", err)
	}
	return s, nil
}

// EncodeCastFeed renders res as the JSON client-feed event {"skill_cast": {...}}.
func EncodeCastFeed(res *skill.CastResult) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{"skill_cast": CastResultMap(res)})
	if err != nil {
		return nil, fmt.Errorf("encoding cast feed: %w", err)
	}
	return protojson.Marshal(s)
}

func commandsStruct(cmds []skill.Command) (*structpb.Struct, error) {
	list := make([]any, 0, len(cmds))
	for _, c := range cmds {
		list = append(list, map[string]any{"name": c.Name, "cmd": c.Cmd, "args": c.Args})
	}
	return structpb.NewStruct(map[string]any{"commands": list})
}

func appearancesStruct(apps []skill.Appearance) (*structpb.Struct, error) {
	list := make([]any, 0, len(apps))
	for _, a := range apps {
		list = append(list, map[string]any{
			"key":       a.Key,
			"name":      a.Name,
			"desc":      a.Description,
			"passive":   a.Passive,
			"cd_remain": a.CooldownRemaining,
		})
	}
	return structpb.NewStruct(map[string]any{"skills": list})
}
