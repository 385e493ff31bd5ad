// Package service runs the board's use cases. Every mutation is one
// transaction: authorization, row changes and counter updates commit
// together or not at all.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/ledger"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/policy"
	"github.com/gfdmit/tierboard/internal/repository"
)

// Anonymous is the actor id of a reader who is not logged in.
const Anonymous int64 = 0

type Service struct {
	repo      repository.Repository
	images    repository.ImageStore
	retention string
	now       func() time.Time
}

func New(repo repository.Repository, images repository.ImageStore, conf config.Board) *Service {
	return &Service{
		repo:      repo,
		images:    images,
		retention: conf.Retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) inTx(ctx context.Context, op string, fn func(tx repository.Stores) error) error {
	return classify(op, svc.repo.WithinTx(ctx, fn))
}

// activeActor loads the caller's current row. Unknown and deleted accounts
// may not act.
func activeActor(ctx context.Context, users repository.UserStore, actorID int64) (model.User, error) {
	if actorID == Anonymous {
		return model.User{}, forbidden("login required")
	}
	actor, err := users.FindByID(ctx, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, forbidden("unknown account")
	}
	if err != nil {
		return model.User{}, err
	}
	if !actor.Active() {
		return model.User{}, forbidden(policy.ReasonInactive.String())
	}
	return actor, nil
}

func requireAccess(actor model.User, category model.Category, action model.Action) error {
	if !policy.CanAccess(actor.Role, category, action) {
		return forbidden(actor.Role.String() + " may not " + action.String() + " in " + category.String())
	}
	return nil
}

// guardMutation is the owner-or-admin check for edits and deletes, made
// against the actor's current row. BLACKLIST accounts never mutate content.
func guardMutation(ctx context.Context, users repository.UserStore, actorID, ownerID int64) (model.User, error) {
	actor, decision, err := policy.Guard(ctx, users, actorID, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, forbidden("unknown account")
	}
	if err != nil {
		return model.User{}, err
	}
	if !decision.Allowed {
		return model.User{}, forbidden(decision.Reason.String())
	}
	if actor.Role == model.RoleBlacklist {
		return model.User{}, forbidden("account blacklisted")
	}
	return actor, nil
}

func counters(tx repository.Stores) *ledger.Ledger {
	return ledger.New(tx.Counters())
}
