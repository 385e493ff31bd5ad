package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownValue = errors.New("unknown enum value")

// Role is a user's standing on the board.
type Role int

const (
	RoleBronze Role = iota + 1
	RoleSilver
	RoleGold
	RoleAdmin
	RoleBlacklist
)

var roleNames = map[Role]string{
	RoleBronze:    "BRONZE",
	RoleSilver:    "SILVER",
	RoleGold:      "GOLD",
	RoleAdmin:     "ADMIN",
	RoleBlacklist: "BLACKLIST",
}

// Roles lists every role in rank order, BLACKLIST last.
var Roles = []Role{RoleBronze, RoleSilver, RoleGold, RoleAdmin, RoleBlacklist}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: role %q", ErrUnknownValue, s)
}

// Category partitions boards by topic.
type Category int

const (
	CategoryGreeting Category = iota + 1
	CategoryFree
	CategoryGold
)

var categoryNames = map[Category]string{
	CategoryGreeting: "GREETING",
	CategoryFree:     "FREE",
	CategoryGold:     "GOLD",
}

var Categories = []Category{CategoryGreeting, CategoryFree, CategoryGold}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory accepts any letter case, since categories travel in URLs
// as lower case.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: category %q", ErrUnknownValue, s)
}

// Action is what an actor attempts on a category.
type Action int

const (
	ActionRead Action = iota + 1
	ActionWrite
	ActionComment
	ActionLike
)

var actionNames = map[Action]string{
	ActionRead:    "READ",
	ActionWrite:   "WRITE",
	ActionComment: "COMMENT",
	ActionLike:    "LIKE",
}

var Actions = []Action{ActionRead, ActionWrite, ActionComment, ActionLike}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

type UserStatus int

const (
	StatusActive UserStatus = iota + 1
	StatusDeleted
)

func (s UserStatus) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusDeleted:
		return "DELETED"
	default:
		return fmt.Sprintf("UserStatus(%d)", int(s))
	}
}

func ParseUserStatus(s string) (UserStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE":
		return StatusActive, nil
	case "DELETED":
		return StatusDeleted, nil
	}
	return 0, fmt.Errorf("%w: status %q", ErrUnknownValue, s)
}

// LikeState is the outcome of a like toggle.
type LikeState bool

const (
	Unliked LikeState = false
	Liked   LikeState = true
)

func (s LikeState) String() string {
	if s {
		return "LIKED"
	}
	return "UNLIKED"
}

// SearchField is the board column a keyword search looks in.
type SearchField int

const (
	SearchNone SearchField = iota
	SearchTitle
	SearchBody
	SearchNickname
)

var searchFieldNames = map[SearchField]string{
	SearchTitle:    "title",
	SearchBody:     "body",
	SearchNickname: "nickname",
}

func (f SearchField) String() string {
	if name, ok := searchFieldNames[f]; ok {
		return name
	}
	return "none"
}

// ParseSearchField maps an empty string to SearchNone.
func ParseSearchField(s string) (SearchField, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SearchNone, nil
	}
	for f, name := range searchFieldNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return SearchNone, fmt.Errorf("%w: search type %q", ErrUnknownValue, s)
}

// BoardSearch narrows a board listing to rows whose Field contains Keyword,
// ignoring case.
type BoardSearch struct {
	Field   SearchField
	Keyword string
}

// Active reports whether the search filters anything. A blank keyword
// lists every board.
func (s BoardSearch) Active() bool {
	return s.Field != SearchNone && strings.TrimSpace(s.Keyword) != ""
}
