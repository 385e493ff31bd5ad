package policy

import (
	"errors"
	"fmt"

	"github.com/gfdmit/tierboard/internal/model"
)

var ErrNoTransition = errors.New("no role transition")

// PromoteOnGreeting is the automatic path: a BRONZE user's first greeting
// post makes them SILVER. Any other role stays put.
func PromoteOnGreeting(current model.Role) (model.Role, bool) {
	if current == model.RoleBronze {
		return model.RoleSilver, true
	}
	return current, false
}

var cycle = map[model.Role]model.Role{
	model.RoleBronze: model.RoleSilver,
	model.RoleSilver: model.RoleGold,
	model.RoleGold:   model.RoleBronze,
}

// NextRole is the manual admin cycle BRONZE -> SILVER -> GOLD -> BRONZE.
// ADMIN and BLACKLIST sit outside the cycle.
func NextRole(current model.Role) (model.Role, error) {
	next, ok := cycle[current]
	if !ok {
		return current, fmt.Errorf("%w from %v", ErrNoTransition, current)
	}
	return next, nil
}

// Blacklist is reachable from every role. Leaving it is not modelled.
func Blacklist(current model.Role) (model.Role, error) {
	if current == model.RoleBlacklist {
		return current, fmt.Errorf("%w: already %v", ErrNoTransition, current)
	}
	return model.RoleBlacklist, nil
}
