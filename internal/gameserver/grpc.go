package gameserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/skillcast/internal/game/combat"
	"github.com/cory-johannsen/skillcast/internal/game/command"
	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "skillcast.v1.SkillService"

// SkillServiceServer is the gRPC surface of SkillService. Every method takes
// and returns a google.protobuf.Struct.
type SkillServiceServer interface {
	Join(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Leave(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Learn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unlearn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Skills(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cast(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AvailableCommands(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncDefaults(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetCooldowns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Command(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(SkillServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, m unaryMethod) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return m(srv.(SkillServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return m(srv.(SkillServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes SkillService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SkillServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Join", SkillServiceServer.Join),
		unary("Leave", SkillServiceServer.Leave),
		unary("Learn", SkillServiceServer.Learn),
		unary("Unlearn", SkillServiceServer.Unlearn),
		unary("Skills", SkillServiceServer.Skills),
		unary("Cast", SkillServiceServer.Cast),
		unary("AvailableCommands", SkillServiceServer.AvailableCommands),
		unary("CheckAvailability", SkillServiceServer.CheckAvailability),
		unary("SyncDefaults", SkillServiceServer.SyncDefaults),
		unary("ResetCooldowns", SkillServiceServer.ResetCooldowns),
		unary("Command", SkillServiceServer.Command),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skillcast/v1/skill.proto",
}

// GRPCServer adapts SkillService to SkillServiceServer.
type GRPCServer struct {
	svc      *SkillService
	commands *command.Registry
}

// NewGRPCServer wraps svc. Text commands resolve against the built-in
// skill commands.
//
// Precondition: svc must be non-nil.
func NewGRPCServer(svc *SkillService) *GRPCServer {
	return &GRPCServer{svc: svc, commands: command.DefaultRegistry()}
}

// Register installs the service on s.
func (g *GRPCServer) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, g)
}

func field(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func required(in *structpb.Struct, names ...string) error {
	for _, n := range names {
		if field(in, n) == "" {
			return toStatus(fmt.Errorf("%w: %q is required", ErrInvalidRequest, n))
		}
	}
	return nil
}

func (g *GRPCServer) Join(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "id"); err != nil {
		return nil, err
	}
	kind := combat.KindPlayer
	if field(in, "kind") == "npc" {
		kind = combat.KindNPC
	}
	maxHP := int(in.GetFields()["max_hp"].GetNumberValue())
	name := field(in, "name")
	if name == "" {
		name = field(in, "id")
	}
	if err := g.svc.Join(ctx, skill.EntityRef(field(in, "id")), name, kind, maxHP); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (g *GRPCServer) Leave(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "id"); err != nil {
		return nil, err
	}
	left := g.svc.Leave(ctx, skill.EntityRef(field(in, "id")))
	return structpb.NewStruct(map[string]any{"left": left})
}

func (g *GRPCServer) Learn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "owner", "key"); err != nil {
		return nil, err
	}
	inst, err := g.svc.Learn(ctx, skill.EntityRef(field(in, "owner")), field(in, "key"))
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"skill_id": inst.ID()})
}

func (g *GRPCServer) Unlearn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "skill_id"); err != nil {
		return nil, err
	}
	if err := g.svc.Unlearn(ctx, field(in, "skill_id")); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (g *GRPCServer) Skills(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "owner"); err != nil {
		return nil, err
	}
	apps, err := g.svc.Skills(ctx, skill.EntityRef(field(in, "owner")))
	if err != nil {
		return nil, toStatus(err)
	}
	return appearancesStruct(apps)
}

func (g *GRPCServer) Cast(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "skill_id"); err != nil {
		return nil, err
	}
	res, err := g.svc.Cast(ctx, field(in, "skill_id"), skill.EntityRef(field(in, "target")))
	if err != nil {
		return nil, toStatus(err)
	}
	return castResultStruct(res)
}

func (g *GRPCServer) AvailableCommands(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "skill_id"); err != nil {
		return nil, err
	}
	cmds, err := g.svc.AvailableCommands(ctx, field(in, "skill_id"), skill.EntityRef(field(in, "viewer")))
	if err != nil {
		return nil, toStatus(err)
	}
	return commandsStruct(cmds)
}

func (g *GRPCServer) CheckAvailability(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "skill_id"); err != nil {
		return nil, err
	}
	return g.availability(ctx, field(in, "skill_id"))
}

func (g *GRPCServer) availability(ctx context.Context, id string) (*structpb.Struct, error) {
	reason, err := g.svc.CheckAvailability(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"available": reason == "", "reason": reason})
}

func (g *GRPCServer) SyncDefaults(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "owner"); err != nil {
		return nil, err
	}
	var keys []string
	for _, v := range in.GetFields()["keys"].GetListValue().GetValues() {
		keys = append(keys, v.GetStringValue())
	}
	learned, removed, err := g.svc.SyncDefaults(ctx, skill.EntityRef(field(in, "owner")), keys)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"learned": toList(learned), "removed": toList(removed)})
}

func (g *GRPCServer) ResetCooldowns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "owner"); err != nil {
		return nil, err
	}
	if err := g.svc.ResetCooldowns(ctx, skill.EntityRef(field(in, "owner"))); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

// Command runs a typed command line such as "castskill strike npc-7" for
// owner. The response has the shape of the operation the command maps to.
func (g *GRPCServer) Command(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := required(in, "owner", "line"); err != nil {
		return nil, err
	}
	owner := skill.EntityRef(field(in, "owner"))
	line := command.Parse(field(in, "line"))
	cmd, ok := g.commands.Resolve(line.Command)
	if !ok {
		return nil, toStatus(fmt.Errorf("%w: unknown command %q", ErrInvalidRequest, line.Command))
	}

	if cmd.Handler == command.HandlerSkills {
		apps, err := g.svc.Skills(ctx, owner)
		if err != nil {
			return nil, toStatus(err)
		}
		return appearancesStruct(apps)
	}

	key := line.Arg(0)
	if key == "" {
		return nil, toStatus(fmt.Errorf("%w: usage: %s %s", ErrInvalidRequest, cmd.Name, cmd.Usage))
	}
	id, err := g.svc.InstanceID(ctx, owner, key)
	if err != nil {
		return nil, toStatus(err)
	}
	switch cmd.Handler {
	case command.HandlerCast:
		res, err := g.svc.Cast(ctx, id, skill.EntityRef(line.Arg(1)))
		if err != nil {
			return nil, toStatus(err)
		}
		return castResultStruct(res)
	case command.HandlerReady:
		return g.availability(ctx, id)
	}
	return nil, toStatus(fmt.Errorf("no handler for %q", cmd.Handler))
}

func toList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// SkillServiceClient calls SkillService over a client connection.
type SkillServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSkillServiceClient creates a client on cc.
func NewSkillServiceClient(cc grpc.ClientConnInterface) *SkillServiceClient {
	return &SkillServiceClient{cc: cc}
}

// Call invokes method with req and returns the response struct.
func (c *SkillServiceClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
