package policy

import (
	"context"

	"github.com/gfdmit/tierboard/internal/model"
)

type DenyReason int

const (
	ReasonNone DenyReason = iota
	ReasonNotOwner
	ReasonInactive
)

func (r DenyReason) String() string {
	switch r {
	case ReasonNotOwner:
		return "not owner"
	case ReasonInactive:
		return "account inactive"
	default:
		return ""
	}
}

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision                 { return Decision{Allowed: true} }
func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// AuthorizeMutation is the owner-or-admin rule shared by board and comment
// edits and deletes.
func AuthorizeMutation(actorID, ownerID int64, actorRole model.Role) Decision {
	if actorID == ownerID || actorRole == model.RoleAdmin {
		return Allow()
	}
	return Deny(ReasonNotOwner)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
}

// Guard applies AuthorizeMutation to the actor's current row. The role is
// never taken from the caller because it may have changed since login.
func Guard(ctx context.Context, users UserFinder, actorID, ownerID int64) (model.User, Decision, error) {
	actor, err := users.FindByID(ctx, actorID)
	if err != nil {
		return model.User{}, Decision{}, err
	}
	if !actor.Active() {
		return actor, Deny(ReasonInactive), nil
	}
	return actor, AuthorizeMutation(actor.ID, ownerID, actor.Role), nil
}
