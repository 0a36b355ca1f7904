package gameserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
	"github.com/cory-johannsen/skillcast/internal/storage/postgres"
)

var (
	// ErrInvalidRequest is returned for a request missing required fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAlreadyJoined is returned when a combatant id is already registered.
	ErrAlreadyJoined = errors.New("combatant already joined")
)

// toStatus maps service errors to gRPC status errors.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch {
	case errors.Is(err, skill.ErrEffectEvaluation):
		code = codes.Aborted
	case errors.Is(err, skill.ErrMissingOwner),
		errors.Is(err, skill.ErrPassive):
		code = codes.FailedPrecondition
	case errors.Is(err, skill.ErrUnknownTarget),
		errors.Is(err, skill.ErrUnknownSkill),
		errors.Is(err, skill.ErrNotLearned),
		errors.Is(err, postgres.ErrSkillNotFound):
		code = codes.NotFound
	case errors.Is(err, skill.ErrAlreadyLearned),
		errors.Is(err, postgres.ErrSkillExists),
		errors.Is(err, ErrAlreadyJoined):
		code = codes.AlreadyExists
	case errors.Is(err, ErrInvalidRequest):
		code = codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
