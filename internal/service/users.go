package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/policy"
	"github.com/gfdmit/tierboard/internal/repository"
)

const (
	maxLoginIDLen  = 10
	maxNicknameLen = 10
)

type Registration struct {
	LoginID       string
	Password      string
	PasswordCheck string
	Nickname      string
}

func (r Registration) validate() validation {
	v := validation{}
	v.check(strings.TrimSpace(r.LoginID) != "", "loginId", "must not be empty")
	v.check(utf8.RuneCountInString(r.LoginID) <= maxLoginIDLen, "loginId", "at most 10 characters")
	v.check(r.Password != "", "password", "must not be empty")
	v.check(r.Password == r.PasswordCheck, "passwordCheck", "passwords do not match")
	v.check(strings.TrimSpace(r.Nickname) != "", "nickname", "must not be empty")
	v.check(utf8.RuneCountInString(r.Nickname) <= maxNicknameLen, "nickname", "at most 10 characters")
	return v
}

// Register creates a BRONZE account.
func (svc *Service) Register(ctx context.Context, r Registration) (model.User, error) {
	if err := r.validate().err(); err != nil {
		return model.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, classify("register", err)
	}

	user := model.User{
		LoginID:      r.LoginID,
		Nickname:     r.Nickname,
		PasswordHash: string(hash),
		Role:         model.RoleBronze,
		Status:       model.StatusActive,
		CreatedAt:    svc.now(),
	}
	err = svc.inTx(ctx, "register", func(tx repository.Stores) error {
		v := validation{}
		taken, err := tx.Users().ExistsByLoginID(ctx, r.LoginID)
		if err != nil {
			return err
		}
		v.check(!taken, "loginId", "already in use")
		taken, err = tx.Users().ExistsByNickname(ctx, r.Nickname)
		if err != nil {
			return err
		}
		v.check(!taken, "nickname", "already in use")
		if err := v.err(); err != nil {
			return err
		}

		err = tx.Users().Insert(ctx, &user)
		if errors.Is(err, repository.ErrDuplicate) {
			return &ValidationError{Fields: map[string]string{"loginId": "already in use"}}
		}
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// DeleteUser soft-deletes the actor's account after checking their
// password. The likes they gave are removed and every counter they fed is
// taken back; their boards and comments stay as history.
func (svc *Service) DeleteUser(ctx context.Context, actorID int64, secret string) error {
	return svc.inTx(ctx, "delete user", func(tx repository.Stores) error {
		actor, err := activeActor(ctx, tx.Users(), actorID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(secret)) != nil {
			return &ValidationError{Fields: map[string]string{"password": "does not match"}}
		}

		l := counters(tx)
		boardIDs, err := tx.Likes().DeleteByUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		sort.Slice(boardIDs, func(i, j int) bool { return boardIDs[i] < boardIDs[j] })
		received := map[int64]int64{}
		for _, boardID := range boardIDs {
			meta, err := tx.Boards().LockMeta(ctx, boardID)
			if errors.Is(err, repository.ErrNotFound) {
				// like kept as history of a deleted board
				continue
			}
			if err != nil {
				return err
			}
			if err := l.DecrementLikeCount(ctx, boardID); err != nil {
				return err
			}
			if meta.OwnerID != actor.ID {
				received[meta.OwnerID]++
			}
		}
		owners := make([]int64, 0, len(received))
		for id := range received {
			owners = append(owners, id)
		}
		sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
		for _, id := range owners {
			if err := l.AdjustReceivedLikeCount(ctx, id, -received[id]); err != nil {
				return err
			}
		}

		tallies, err := tx.Comments().TallyByAuthor(ctx, actor.ID)
		if err != nil {
			return err
		}
		for _, t := range tallies {
			if err := l.AdjustCommentCount(ctx, t.BoardID, -t.Count); err != nil {
				return err
			}
		}

		return tx.Users().UpdateStatus(ctx, actor.ID, model.StatusDeleted)
	})
}

// ChangeRole moves the user one step along BRONZE -> SILVER -> GOLD ->
// BRONZE. Only an ADMIN may do it.
func (svc *Service) ChangeRole(ctx context.Context, adminID, userID int64) (model.Role, error) {
	return svc.transition(ctx, "change role", adminID, userID, policy.NextRole)
}

// Blacklist moves any user to BLACKLIST. Only an ADMIN may do it.
func (svc *Service) Blacklist(ctx context.Context, adminID, userID int64) (model.Role, error) {
	return svc.transition(ctx, "blacklist", adminID, userID, policy.Blacklist)
}

func (svc *Service) transition(ctx context.Context, op string, adminID, userID int64, next func(model.Role) (model.Role, error)) (model.Role, error) {
	var role model.Role
	err := svc.inTx(ctx, op, func(tx repository.Stores) error {
		admin, err := activeActor(ctx, tx.Users(), adminID)
		if err != nil {
			return err
		}
		if admin.Role != model.RoleAdmin {
			return forbidden("admin only")
		}
		target, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !target.Active() {
			return repository.ErrNotFound
		}
		if role, err = next(target.Role); err != nil {
			return err
		}
		swapped, err := tx.Users().SwapRole(ctx, target.ID, target.Role, role)
		if err != nil {
			return err
		}
		if !swapped {
			return fmt.Errorf("role of user %d changed concurrently: %w", target.ID, repository.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return role, nil
}

// MyInfo returns the actor's own account.
func (svc *Service) MyInfo(ctx context.Context, actorID int64) (model.User, error) {
	actor, err := activeActor(ctx, svc.repo.Users(), actorID)
	if err != nil {
		return model.User{}, classify("my info", err)
	}
	return actor, nil
}

// ProfileEdit changes the nickname and, when NewPassword is set, the
// password. CurrentPassword must match either way.
type ProfileEdit struct {
	Nickname         string
	CurrentPassword  string
	NewPassword      string
	NewPasswordCheck string
}

func (svc *Service) EditProfile(ctx context.Context, actorID int64, in ProfileEdit) (model.User, error) {
	v := validation{}
	v.check(in.CurrentPassword != "", "currentPassword", "must not be empty")
	v.check(in.NewPassword == in.NewPasswordCheck, "newPasswordCheck", "passwords do not match")
	v.check(strings.TrimSpace(in.Nickname) != "", "nickname", "must not be empty")
	v.check(utf8.RuneCountInString(in.Nickname) <= maxNicknameLen, "nickname", "at most 10 characters")
	if err := v.err(); err != nil {
		return model.User{}, err
	}

	var newHash string
	if in.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return model.User{}, classify("edit profile", err)
		}
		newHash = string(hash)
	}

	var user model.User
	err := svc.inTx(ctx, "edit profile", func(tx repository.Stores) error {
		actor, err := activeActor(ctx, tx.Users(), actorID)
		if err != nil {
			return err
		}
		checks := validation{}
		checks.check(bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(in.CurrentPassword)) == nil,
			"currentPassword", "does not match")
		if in.Nickname != actor.Nickname {
			taken, err := tx.Users().ExistsByNickname(ctx, in.Nickname)
			if err != nil {
				return err
			}
			checks.check(!taken, "nickname", "already in use")
		}
		if err := checks.err(); err != nil {
			return err
		}

		hash := newHash
		if hash == "" {
			hash = actor.PasswordHash
		}
		err = tx.Users().UpdateProfile(ctx, actor.ID, in.Nickname, hash)
		if errors.Is(err, repository.ErrDuplicate) {
			return &ValidationError{Fields: map[string]string{"nickname": "already in use"}}
		}
		if err != nil {
			return err
		}
		user = actor
		user.Nickname, user.PasswordHash = in.Nickname, hash
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// SearchUsers lets an ADMIN look up active accounts by nickname fragment.
// Other admins are left out since no transition applies to them.
func (svc *Service) SearchUsers(ctx context.Context, adminID int64, keyword string, page Page) ([]model.User, int64, error) {
	admin, err := activeActor(ctx, svc.repo.Users(), adminID)
	if err != nil {
		return nil, 0, classify("search users", err)
	}
	if admin.Role != model.RoleAdmin {
		return nil, 0, forbidden("admin only")
	}
	keyword = strings.TrimSpace(keyword)
	page = page.normalize()
	users, err := svc.repo.Users().SearchByNickname(ctx, keyword, model.RoleAdmin, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, classify("search users", err)
	}
	total, err := svc.repo.Users().CountByNickname(ctx, keyword, model.RoleAdmin)
	if err != nil {
		return nil, 0, classify("search users", err)
	}
	return users, total, nil
}
