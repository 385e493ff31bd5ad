// Package policy decides who may do what on the board. Nothing in here
// performs I/O except the ownership guard, which re-reads the actor row.
package policy

import "github.com/gfdmit/tierboard/internal/model"

type roleSet map[model.Role]bool

func roles(rs ...model.Role) roleSet {
	set := make(roleSet, len(rs))
	for _, r := range rs {
		set[r] = true
	}
	return set
}

var (
	everyone = roles(model.RoleBronze, model.RoleSilver, model.RoleGold, model.RoleAdmin, model.RoleBlacklist)
	goldTier = roles(model.RoleGold, model.RoleAdmin)
	greeters = roles(model.RoleBronze, model.RoleAdmin)
	greeted  = roles(model.RoleSilver, model.RoleGold, model.RoleAdmin)
)

// matrix is the per-category grant table. BLACKLIST rows are listed where
// the category grants them; the cross-cutting rule in CanAccess still
// overrides them for anything but reading.
var matrix = map[model.Category]map[model.Action]roleSet{
	model.CategoryGreeting: {
		model.ActionRead:    everyone,
		model.ActionWrite:   greeters,
		model.ActionComment: greeters,
		model.ActionLike:    greeters,
	},
	model.CategoryFree: {
		model.ActionRead:    everyone,
		model.ActionWrite:   greeted,
		model.ActionComment: greeted,
		model.ActionLike:    greeted,
	},
	model.CategoryGold: {
		model.ActionRead:    goldTier,
		model.ActionWrite:   goldTier,
		model.ActionComment: goldTier,
		model.ActionLike:    goldTier,
	},
}

// CanAccess reports whether role may perform action on boards of category.
// Unknown roles, categories or actions are denied.
func CanAccess(role model.Role, category model.Category, action model.Action) bool {
	if role == model.RoleBlacklist {
		if action != model.ActionRead || category == model.CategoryGold {
			return false
		}
	}
	grants, ok := matrix[category]
	if !ok {
		return false
	}
	return grants[action][role]
}

// CanReadAnonymously covers visitors without an account.
func CanReadAnonymously(category model.Category) bool {
	return category == model.CategoryGreeting || category == model.CategoryFree
}
