// Package gameserver exposes the skill subsystem to the command layer: a
// SkillService that loads, casts and persists skill instances, and its gRPC
// transport.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skillcast/internal/game/combat"
	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

// SkillStore persists skill instances.
//
// Implementations return errors matching postgres.ErrSkillNotFound and
// postgres.ErrSkillExists for missing and duplicate records.
type SkillStore interface {
	Create(ctx context.Context, rec skill.Record) error
	Get(ctx context.Context, id string) (skill.Record, error)
	ListByOwner(ctx context.Context, owner skill.EntityRef) ([]skill.Record, error)
	SaveState(ctx context.Context, rec skill.Record) error
	Delete(ctx context.Context, id string) error
	Apply(ctx context.Context, created, updated []skill.Record, deleted []string) error
}

// Notifier delivers client-feed events to a character.
type Notifier interface {
	Notify(to skill.EntityRef, payload []byte)
}

// SkillService is the inbound API of the skill subsystem. Operations on one
// owner's skills are serialized; different owners proceed concurrently.
type SkillService struct {
	store    SkillStore
	defs     *skill.Registry
	engine   *skill.Engine
	roster   *combat.Roster
	notifier Notifier
	logger   *zap.Logger

	locksMu sync.Mutex
	locks   map[skill.EntityRef]*ownerLock
}

// ownerLock serializes one owner's operations. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewSkillService creates a SkillService.
//
// Precondition: store, defs, engine, roster and logger must be non-nil.
// notifier may be nil, in which case no feed events are sent.
func NewSkillService(store SkillStore, defs *skill.Registry, engine *skill.Engine, roster *combat.Roster, notifier Notifier, logger *zap.Logger) *SkillService {
	if store == nil || defs == nil || engine == nil || roster == nil || logger == nil {
		panic("gameserver.NewSkillService: store, defs, engine, roster and logger must not be nil")
	}
	return &SkillService{
		store:    store,
		defs:     defs,
		engine:   engine,
		roster:   roster,
		notifier: notifier,
		logger:   logger,
		locks:    make(map[skill.EntityRef]*ownerLock),
	}
}

// lock acquires owner's mutex and returns its release function.
func (s *SkillService) lock(owner skill.EntityRef) func() {
	s.locksMu.Lock()
	l, ok := s.locks[owner]
	if !ok {
		l = &ownerLock{}
		s.locks[owner] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, owner)
		}
		s.locksMu.Unlock()
	}
}

// Join registers a combat participant so its skills can be cast.
func (s *SkillService) Join(ctx context.Context, id skill.EntityRef, name string, kind combat.Kind, maxHP int) error {
	if id == "" || maxHP <= 0 {
		return fmt.Errorf("%w: join needs an id and max_hp > 0", ErrInvalidRequest)
	}
	if err := s.roster.Add(combat.NewCombatant(id, name, kind, maxHP)); err != nil {
		return fmt.Errorf("%w: %v", ErrAlreadyJoined, err)
	}
	s.logger.Info("combatant joined", zap.String("id", string(id)), zap.String("kind", kind.String()))
	return nil
}

// Leave removes a combat participant and reports whether it was present.
func (s *SkillService) Leave(ctx context.Context, id skill.EntityRef) bool {
	return s.roster.Remove(id)
}

// owner resolves a participant in the roster.
func (s *SkillService) owner(ref skill.EntityRef) (skill.Entity, error) {
	ent, ok := s.roster.Resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not in the roster", skill.ErrMissingOwner, ref)
	}
	return ent, nil
}

// loadSet restores owner's skills. Records whose definition no longer
// exists are skipped with a warning.
func (s *SkillService) loadSet(ctx context.Context, owner skill.Entity) (*skill.Set, error) {
	recs, err := s.store.ListByOwner(ctx, owner.Ref())
	if err != nil {
		return nil, err
	}
	set := skill.NewSet(owner, s.defs, s.engine)
	for _, rec := range recs {
		inst, err := skill.Restore(rec, s.defs)
		if err != nil {
			s.logger.Warn("skipping stored skill", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		if err := set.Adopt(inst); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// load fetches instance id while holding its owner's lock. The caller
// must call the returned release function.
func (s *SkillService) load(ctx context.Context, id string) (*skill.Instance, func(), error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	release := s.lock(rec.Owner)
	// reread under the lock; a concurrent cast may have moved the cooldown
	if rec, err = s.store.Get(ctx, id); err != nil {
		release()
		return nil, nil, err
	}
	inst, err := skill.Restore(rec, s.defs)
	if err != nil {
		release()
		return nil, nil, err
	}
	return inst, release, nil
}

// InstanceID returns the id of ownerID's instance of skill key.
//
// Postcondition: Returns ErrNotLearned when owner does not hold key.
func (s *SkillService) InstanceID(ctx context.Context, ownerID skill.EntityRef, key string) (string, error) {
	recs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}
	for _, rec := range recs {
		if rec.Key == key {
			return rec.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", skill.ErrNotLearned, key)
}

// Learn grants skill key to owner, binding it and starting the global cooldown.
//
// Postcondition: Returns the stored instance, or ErrMissingOwner,
// ErrUnknownSkill or ErrAlreadyLearned.
func (s *SkillService) Learn(ctx context.Context, ownerID skill.EntityRef, key string) (*skill.Instance, error) {
	owner, err := s.owner(ownerID)
	if err != nil {
		return nil, err
	}
	defer s.lock(ownerID)()
	set, err := s.loadSet(ctx, owner)
	if err != nil {
		return nil, err
	}
	inst, err := set.Learn(key, false)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, inst.Record()); err != nil {
		return nil, err
	}
	s.logger.Info("skill learned",
		zap.String("owner", string(ownerID)),
		zap.String("skill", key),
		zap.String("id", inst.ID()),
	)
	return inst, nil
}

// Unlearn destroys instance id.
func (s *SkillService) Unlearn(ctx context.Context, id string) error {
	inst, release, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("skill unlearned",
		zap.String("owner", string(inst.Owner())),
		zap.String("skill", inst.Key()),
	)
	return nil
}

// Skills describes every skill held by owner.
func (s *SkillService) Skills(ctx context.Context, ownerID skill.EntityRef) ([]skill.Appearance, error) {
	owner, err := s.owner(ownerID)
	if err != nil {
		return nil, err
	}
	defer s.lock(ownerID)()
	set, err := s.loadSet(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := s.engine.Now()
	out := make([]skill.Appearance, 0)
	for _, inst := range set.All() {
		out = append(out, inst.Appearance(now))
	}
	return out, nil
}

// Cast casts instance id at target (empty for none) and persists the
// cooldown. The cooldown is stored even when the effect fails, and the store
// write ignores cancellation of ctx once the cast has committed.
func (s *SkillService) Cast(ctx context.Context, id string, target skill.EntityRef) (*skill.CastResult, error) {
	inst, release, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	before := inst.CooldownFinish()
	res, castErr := s.engine.Cast(ctx, inst, target)
	if !inst.CooldownFinish().Equal(before) {
		if err := s.store.SaveState(context.WithoutCancel(ctx), inst.Record()); err != nil {
			return nil, errors.Join(castErr, fmt.Errorf("persisting cooldown: %w", err))
		}
	}
	if castErr != nil {
		return nil, castErr
	}
	if !res.Rejected() {
		s.notify(res)
	}
	return res, nil
}

func (s *SkillService) notify(res *skill.CastResult) {
	if s.notifier == nil {
		return
	}
	payload, err := EncodeCastFeed(res)
	if err != nil {
		s.logger.Error("encoding cast feed", zap.String("skill", res.Skill), zap.Error(err))
		return
	}
	for ref := range res.Status {
		s.notifier.Notify(ref, payload)
	}
}

// AvailableCommands lists the commands viewerID may invoke on instance id.
// An empty viewerID means the owner.
func (s *SkillService) AvailableCommands(ctx context.Context, id string, viewerID skill.EntityRef) ([]skill.Command, error) {
	inst, release, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()
	if viewerID == "" {
		viewerID = inst.Owner()
	}
	viewer, ok := s.roster.Resolve(viewerID)
	if !ok {
		return nil, fmt.Errorf("%w: viewer %q", skill.ErrUnknownTarget, viewerID)
	}
	return skill.AvailableCommands(inst, viewer, s.engine.Translator()), nil
}

// CheckAvailability returns "" when instance id can be cast now, or the reason.
func (s *SkillService) CheckAvailability(ctx context.Context, id string) (string, error) {
	inst, release, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	defer release()
	return s.engine.CheckAvailability(inst), nil
}

// SyncDefaults aligns owner's default skills with keys and returns the ids of
// learned and removed instances. Changes are stored atomically.
func (s *SkillService) SyncDefaults(ctx context.Context, ownerID skill.EntityRef, keys []string) (learned, removed []string, err error) {
	owner, err := s.owner(ownerID)
	if err != nil {
		return nil, nil, err
	}
	defer s.lock(ownerID)()
	set, err := s.loadSet(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	added, dropped, err := set.SyncDefaults(keys)
	if err != nil {
		return nil, nil, err
	}

	isNew := make(map[string]bool, len(added))
	created := make([]skill.Record, 0, len(added))
	for _, inst := range added {
		created = append(created, inst.Record())
		learned = append(learned, inst.ID())
		isNew[inst.ID()] = true
	}
	for _, inst := range dropped {
		removed = append(removed, inst.ID())
	}
	var updated []skill.Record
	for _, inst := range set.All() {
		if !isNew[inst.ID()] {
			updated = append(updated, inst.Record())
		}
	}
	if err := s.store.Apply(ctx, created, updated, removed); err != nil {
		return nil, nil, err
	}
	s.logger.Info("default skills synced",
		zap.String("owner", string(ownerID)),
		zap.Int("learned", len(learned)),
		zap.Int("removed", len(removed)),
	)
	return learned, removed, nil
}

// ResetCooldowns clears every cooldown held by owner.
func (s *SkillService) ResetCooldowns(ctx context.Context, ownerID skill.EntityRef) error {
	owner, err := s.owner(ownerID)
	if err != nil {
		return err
	}
	defer s.lock(ownerID)()
	set, err := s.loadSet(ctx, owner)
	if err != nil {
		return err
	}
	set.ResetCooldowns()
	updated := make([]skill.Record, 0)
	for _, inst := range set.All() {
		updated = append(updated, inst.Record())
	}
	return s.store.Apply(ctx, nil, updated, nil)
}
