package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/skillcast/internal/config"
	"github.com/cory-johannsen/skillcast/internal/game/combat"
	"github.com/cory-johannsen/skillcast/internal/game/condition"
	"github.com/cory-johannsen/skillcast/internal/game/dice"
	"github.com/cory-johannsen/skillcast/internal/game/effect"
	"github.com/cory-johannsen/skillcast/internal/game/skill"
	"github.com/cory-johannsen/skillcast/internal/gameserver"
	"github.com/cory-johannsen/skillcast/internal/i18n"
	"github.com/cory-johannsen/skillcast/internal/observability"
	"github.com/cory-johannsen/skillcast/internal/scripting"
	"github.com/cory-johannsen/skillcast/internal/server"
	"github.com/cory-johannsen/skillcast/internal/storage/postgres"
)

// app holds what main needs after construction.
type app struct {
	logger    *zap.Logger
	defs      *skill.Registry
	lifecycle *server.Lifecycle
}

// content is the static data loaded at startup.
type content struct {
	defs    *skill.Registry
	catalog *i18n.Catalog
	// conditions is nil when no condition catalog is configured.
	conditions *condition.Registry
}

var providerSet = wire.NewSet(
	provideLogger,
	provideContent,
	provideDefinitions,
	provideCatalog,
	provideConditions,
	provideRoller,
	combat.NewRoster,
	provideScripting,
	provideEffects,
	provideEngine,
	providePool,
	provideStore,
	provideNotifier,
	gameserver.NewSkillService,
	provideHealth,
	provideGRPCServer,
	provideLifecycle,
)

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging, cfg.Server.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// provideContent loads skill definitions, the string catalog and the
// condition catalog concurrently.
func provideContent(ctx context.Context, cfg config.Config, logger *zap.Logger) (content, error) {
	start := time.Now()
	var c content
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		defs, err := skill.LoadDirectory(cfg.Skills.DefinitionsDir)
		if err != nil {
			return fmt.Errorf("loading skill definitions: %w", err)
		}
		c.defs = defs
		return nil
	})
	g.Go(func() error {
		catalog, err := i18n.Load(cfg.Skills.LocaleDir, cfg.Skills.Language)
		if err != nil {
			return fmt.Errorf("loading locale: %w", err)
		}
		c.catalog = catalog
		return nil
	})
	if dir := cfg.Skills.ConditionsDir; dir != "" {
		g.Go(func() error {
			conds, err := condition.LoadDirectory(dir)
			if err != nil {
				return fmt.Errorf("loading conditions: %w", err)
			}
			c.conditions = conds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return content{}, err
	}
	logger.Info("content loaded",
		zap.Int("skills", c.defs.Len()),
		zap.String("language", c.catalog.Language()),
		zap.Int("strings", c.catalog.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return c, nil
}

func provideDefinitions(c content) *skill.Registry    { return c.defs }
func provideCatalog(c content) *i18n.Catalog          { return c.catalog }
func provideConditions(c content) *condition.Registry { return c.conditions }

func provideRoller(logger *zap.Logger) *dice.Roller {
	return dice.NewRoller(dice.NewCryptoSource(), logger)
}

// provideScripting loads the Lua skill functions and wires the engine.entity
// callbacks to the roster. A nil Manager means scripting is disabled.
func provideScripting(cfg config.Config, roller *dice.Roller, roster *combat.Roster, conds *condition.Registry, logger *zap.Logger) (*scripting.Manager, func(), error) {
	if cfg.Skills.ScriptsDir == "" {
		logger.Info("skill scripting disabled")
		return nil, func() {}, nil
	}
	mgr := scripting.NewManager(roller, logger)
	if err := mgr.Load(cfg.Skills.ScriptsDir, cfg.Skills.InstructionLimit); err != nil {
		return nil, nil, fmt.Errorf("loading skill scripts: %w", err)
	}

	lookup := func(uid string) (*combat.Combatant, error) {
		c, ok := roster.Get(skill.EntityRef(uid))
		if !ok {
			return nil, fmt.Errorf("%w: %q", skill.ErrUnknownTarget, uid)
		}
		return c, nil
	}
	mgr.GetCombatant = func(uid string) *scripting.CombatantInfo {
		c, err := lookup(uid)
		if err != nil {
			return nil
		}
		hp, maxHP := c.HP()
		return &scripting.CombatantInfo{UID: uid, Name: c.Name(), HP: hp, MaxHP: maxHP, Conditions: c.Conditions()}
	}
	mgr.ApplyDamage = func(uid string, hp int) (int, error) {
		c, err := lookup(uid)
		if err != nil {
			return 0, err
		}
		return c.ApplyDamage(hp), nil
	}
	mgr.Heal = func(uid string, hp int) (int, error) {
		c, err := lookup(uid)
		if err != nil {
			return 0, err
		}
		return c.Heal(hp), nil
	}
	mgr.ApplyCondition = func(uid, condID string) error {
		if conds != nil {
			if _, ok := conds.Get(condID); !ok {
				return fmt.Errorf("%w: %q", condition.ErrUnknownCondition, condID)
			}
		}
		c, err := lookup(uid)
		if err != nil {
			return err
		}
		c.AddCondition(condID)
		return nil
	}
	return mgr, mgr.Close, nil
}

// provideEffects builds the effect registry and checks every definition's
// function resolves.
func provideEffects(defs *skill.Registry, mgr *scripting.Manager, conds *condition.Registry, roller *dice.Roller, logger *zap.Logger) (*effect.Registry, error) {
	var fallback effect.Fallback
	if mgr != nil {
		fallback = effect.NewLuaFallback(mgr)
	}
	var opts []effect.BuiltinOption
	if conds != nil {
		opts = append(opts, effect.WithConditions(conds))
	}
	effects := effect.NewRegistry(fallback, logger)
	effect.RegisterBuiltins(effects, roller, opts...)
	if err := effects.Validate(defs.All()); err != nil {
		return nil, fmt.Errorf("validating skill functions: %w", err)
	}
	return effects, nil
}

func provideEngine(cfg config.Config, effects *effect.Registry, roster *combat.Roster, catalog *i18n.Catalog, logger *zap.Logger) *skill.Engine {
	return skill.NewEngine(effects, roster, roster, catalog, logger,
		skill.WithGlobalCooldown(cfg.Skills.GlobalCooldown),
	)
}

func providePool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Pool, func(), error) {
	start := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pool, pool.Close, nil
}

func provideStore(pool *postgres.Pool) gameserver.SkillStore {
	return postgres.NewSkillRepository(pool.DB())
}

func provideNotifier(logger *zap.Logger) gameserver.Notifier {
	return gameserver.NewLogNotifier(logger)
}

func provideHealth() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}

func provideGRPCServer(svc *gameserver.SkillService, hs *health.Server) *grpc.Server {
	srv := grpc.NewServer()
	gameserver.NewGRPCServer(svc).Register(srv)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// provideLifecycle registers the gRPC listener and a database health probe
// that marks the service NOT_SERVING while PostgreSQL is unreachable.
func provideLifecycle(ctx context.Context, cfg config.Config, srv *grpc.Server, hs *health.Server, pool *postgres.Pool, logger *zap.Logger) *server.Lifecycle {
	lc := server.NewLifecycle(logger)
	lc.Add("grpc", server.NewGRPCService(cfg.GameServer.Addr(), srv, cfg.Server.ShutdownTimeout, logger))

	done := make(chan struct{})
	lc.Add("postgres", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
				}
				st := healthpb.HealthCheckResponse_SERVING
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
					st = healthpb.HealthCheckResponse_NOT_SERVING
				}
				hs.SetServingStatus(gameserver.ServiceName, st)
			}
		},
		StopFn: func() { close(done) },
	})
	return lc
}
