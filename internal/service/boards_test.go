package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
)

func pngUpload(name string) *model.ImageUpload {
	return &model.ImageUpload{Filename: name, ContentType: "image/png", Size: 3, Data: []byte{1, 2, 3}}
}

func TestGreetingPromotesOnce(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	a := f.user(t, "a", model.RoleBronze)

	b := f.board(t, a, model.CategoryGreeting)
	if b.OwnerRole != model.RoleSilver {
		t.Fatalf("board owner role = %v, want SILVER", b.OwnerRole)
	}
	if got := f.reloadUser(t, a.ID).Role; got != model.RoleSilver {
		t.Fatalf("role = %v, want SILVER", got)
	}

	_, err := f.svc.WriteBoard(ctx, a.ID, BoardInput{Category: model.CategoryGreeting, Title: "again", Body: "hi"})
	wantErr(t, err, ErrForbidden)
	if got := f.reloadUser(t, a.ID).Role; got != model.RoleSilver {
		t.Fatalf("role after second greeting = %v, want SILVER", got)
	}
	total, _ := f.store.Boards().CountAll(ctx)
	if total != 1 {
		t.Fatalf("boards = %d, want 1", total)
	}
}

func TestAdminGreetingKeepsRole(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	admin := f.user(t, "admin", model.RoleAdmin)
	f.board(t, admin, model.CategoryGreeting)
	if got := f.reloadUser(t, admin.ID).Role; got != model.RoleAdmin {
		t.Fatalf("role = %v, want ADMIN", got)
	}
}

func TestWriteBoardDeniedWritesNothing(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	bronze := f.user(t, "bronze", model.RoleBronze)
	black := f.user(t, "black", model.RoleBlacklist)

	_, err := f.svc.WriteBoard(ctx, bronze.ID, BoardInput{Category: model.CategoryFree, Title: "t", Body: "b"})
	wantErr(t, err, ErrForbidden)
	_, err = f.svc.WriteBoard(ctx, black.ID, BoardInput{Category: model.CategoryGreeting, Title: "t", Body: "b"})
	wantErr(t, err, ErrForbidden)
	_, err = f.svc.WriteBoard(ctx, bronze.ID, BoardInput{Category: model.CategoryGreeting, Title: "", Body: "b"})
	wantErr(t, err, ErrValidation)

	total, _ := f.store.Boards().CountAll(ctx)
	if total != 0 {
		t.Fatalf("boards = %d, want 0", total)
	}
}

func TestWriteBoardImage(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	u := f.user(t, "u", model.RoleSilver)

	b, err := f.svc.WriteBoard(ctx, u.ID, BoardInput{Category: model.CategoryFree, Title: "t", Body: "b", Image: pngUpload("cat.png")})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	if b.ImageID == nil || f.images.count() != 1 {
		t.Fatalf("imageID = %v, objects = %d, want attached", b.ImageID, f.images.count())
	}
	link, err := f.svc.BoardImageURL(ctx, Anonymous, b.ID)
	if err != nil {
		t.Fatalf("BoardImageURL: %v", err)
	}
	if link.Host != "images.test" {
		t.Fatalf("url = %v", link)
	}

	_, err = f.svc.WriteBoard(ctx, u.ID, BoardInput{Category: model.CategoryFree, Title: "t", Body: "b",
		Image: &model.ImageUpload{Filename: "x.gif", ContentType: "image/gif", Data: []byte{1}}})
	wantErr(t, err, ErrValidation)
}

func TestWriteBoardSurvivesImageFailure(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	u := f.user(t, "u", model.RoleSilver)
	f.images.putErr = errors.New("minio down")

	b, err := f.svc.WriteBoard(ctx, u.ID, BoardInput{Category: model.CategoryFree, Title: "t", Body: "b", Image: pngUpload("cat.png")})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	if b.ImageID != nil {
		t.Fatalf("imageID = %v, want nil", *b.ImageID)
	}
	if got := f.reloadBoard(t, b.ID); got.ImageID != nil {
		t.Fatalf("stored imageID = %v, want nil", *got.ImageID)
	}
	_, err = f.svc.BoardImageURL(ctx, u.ID, b.ID)
	wantErr(t, err, ErrNotFound)
}

func TestEditBoardReplacesImage(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	u := f.user(t, "u", model.RoleSilver)
	b, err := f.svc.WriteBoard(ctx, u.ID, BoardInput{Category: model.CategoryFree, Title: "t", Body: "b", Image: pngUpload("old.png")})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}

	edited, err := f.svc.EditBoard(ctx, u.ID, b.ID, BoardInput{Category: model.CategoryFree, Title: "t2", Body: "b2", Image: pngUpload("new.png")})
	if err != nil {
		t.Fatalf("EditBoard: %v", err)
	}
	if edited.Title != "t2" || edited.ImageID == nil || *edited.ImageID == *b.ImageID {
		t.Fatalf("edited = %+v, want new title and a new image", edited)
	}
	if f.images.count() != 1 {
		t.Fatalf("objects = %d, want 1", f.images.count())
	}
	if _, err := f.store.Images().FindByID(ctx, *b.ImageID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("old image record err = %v, want not found", err)
	}
}

func TestEditBoardFailsWhenOldImageStays(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	u := f.user(t, "u", model.RoleSilver)
	b, err := f.svc.WriteBoard(ctx, u.ID, BoardInput{Category: model.CategoryFree, Title: "t", Body: "b", Image: pngUpload("old.png")})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	f.images.removeErr = errors.New("minio down")

	_, err = f.svc.EditBoard(ctx, u.ID, b.ID, BoardInput{Category: model.CategoryFree, Title: "t2", Body: "b2", Image: pngUpload("new.png")})
	wantErr(t, err, ErrStoreFailure)

	got := f.reloadBoard(t, b.ID)
	if got.Title != "t" || got.ImageID == nil || *got.ImageID != *b.ImageID {
		t.Fatalf("board = %+v, want unchanged", got)
	}
}

func TestEditBoardGuards(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	owner := f.user(t, "owner", model.RoleSilver)
	other := f.user(t, "other", model.RoleGold)
	admin := f.user(t, "admin", model.RoleAdmin)
	b := f.board(t, owner, model.CategoryFree)
	in := BoardInput{Category: model.CategoryFree, Title: "new", Body: "body"}

	_, err := f.svc.EditBoard(ctx, other.ID, b.ID, in)
	wantErr(t, err, ErrForbidden)

	wrongCategory := in
	wrongCategory.Category = model.CategoryGold
	_, err = f.svc.EditBoard(ctx, owner.ID, b.ID, wrongCategory)
	wantErr(t, err, ErrNotFound)

	if _, err := f.svc.EditBoard(ctx, admin.ID, b.ID, in); err != nil {
		t.Fatalf("admin EditBoard: %v", err)
	}
	if got := f.reloadBoard(t, b.ID).Title; got != "new" {
		t.Fatalf("title = %q, want new", got)
	}
}

func TestDeleteBoardRollsBackReceivedLikes(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	owner := f.user(t, "owner", model.RoleSilver)
	x := f.user(t, "x", model.RoleSilver)
	y := f.user(t, "y", model.RoleGold)
	keep := f.board(t, owner, model.CategoryFree)
	gone := f.board(t, owner, model.CategoryFree)

	for _, liker := range []model.User{x, y, owner} {
		if _, err := f.svc.ToggleLike(ctx, liker.ID, gone.ID); err != nil {
			t.Fatalf("ToggleLike: %v", err)
		}
	}
	if _, err := f.svc.ToggleLike(ctx, x.ID, keep.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if got := f.reloadUser(t, owner.ID).ReceivedLikeCnt; got != 3 {
		t.Fatalf("received before delete = %d, want 3", got)
	}

	wantErr(t, f.svc.DeleteBoard(ctx, x.ID, gone.ID, model.CategoryFree), ErrForbidden)
	wantErr(t, f.svc.DeleteBoard(ctx, owner.ID, gone.ID, model.CategoryGold), ErrNotFound)

	if err := f.svc.DeleteBoard(ctx, owner.ID, gone.ID, model.CategoryFree); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if got := f.reloadUser(t, owner.ID).ReceivedLikeCnt; got != 1 {
		t.Fatalf("received after delete = %d, want 1", got)
	}
	_, err := f.svc.ReadBoard(ctx, owner.ID, model.CategoryFree, gone.ID)
	wantErr(t, err, ErrNotFound)
}

func TestDeleteBoardRetention(t *testing.T) {
	cases := []struct {
		retention string
		wantRows  bool
	}{
		{config.RetentionKeep, true},
		{config.RetentionPurge, false},
	}
	for _, tc := range cases {
		t.Run(tc.retention, func(t *testing.T) {
			f := newFixture(t, tc.retention)
			ctx := context.Background()
			owner := f.user(t, "owner", model.RoleSilver)
			fan := f.user(t, "fan", model.RoleSilver)
			b, err := f.svc.WriteBoard(ctx, owner.ID, BoardInput{Category: model.CategoryFree, Title: "t", Body: "b", Image: pngUpload("a.png")})
			if err != nil {
				t.Fatalf("WriteBoard: %v", err)
			}
			if _, err := f.svc.WriteComment(ctx, fan.ID, b.ID, "nice"); err != nil {
				t.Fatalf("WriteComment: %v", err)
			}
			if _, err := f.svc.ToggleLike(ctx, fan.ID, b.ID); err != nil {
				t.Fatalf("ToggleLike: %v", err)
			}

			if err := f.svc.DeleteBoard(ctx, owner.ID, b.ID, model.CategoryFree); err != nil {
				t.Fatalf("DeleteBoard: %v", err)
			}
			if f.images.count() != 0 {
				t.Fatalf("objects = %d, want 0", f.images.count())
			}

			comments, err := f.store.Comments().ListByBoard(ctx, b.ID)
			if err != nil {
				t.Fatalf("ListByBoard: %v", err)
			}
			liked, err := f.store.Likes().Exists(ctx, fan.ID, b.ID)
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if (len(comments) == 1) != tc.wantRows || liked != tc.wantRows {
				t.Fatalf("comments = %d, liked = %v, want rows kept = %v", len(comments), liked, tc.wantRows)
			}
		})
	}
}

func TestReadBoard(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	gold := f.user(t, "gold", model.RoleGold)
	silver := f.user(t, "silver", model.RoleSilver)
	black := f.user(t, "black", model.RoleBlacklist)
	free := f.board(t, gold, model.CategoryFree)
	vip := f.board(t, gold, model.CategoryGold)

	if _, err := f.svc.ReadBoard(ctx, Anonymous, model.CategoryFree, free.ID); err != nil {
		t.Fatalf("anonymous read FREE: %v", err)
	}
	if _, err := f.svc.ReadBoard(ctx, black.ID, model.CategoryFree, free.ID); err != nil {
		t.Fatalf("blacklist read FREE: %v", err)
	}
	_, err := f.svc.ReadBoard(ctx, Anonymous, model.CategoryGold, vip.ID)
	wantErr(t, err, ErrForbidden)
	_, err = f.svc.ReadBoard(ctx, silver.ID, model.CategoryGold, vip.ID)
	wantErr(t, err, ErrForbidden)
	_, err = f.svc.ReadBoard(ctx, gold.ID, model.CategoryFree, vip.ID)
	wantErr(t, err, ErrNotFound)
	if _, err := f.svc.ReadBoard(ctx, gold.ID, model.CategoryGold, vip.ID); err != nil {
		t.Fatalf("gold read GOLD: %v", err)
	}
}

func TestListBoardsAndNotices(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	admin := f.user(t, "admin", model.RoleAdmin)
	u := f.user(t, "u", model.RoleSilver)
	notice := f.board(t, admin, model.CategoryFree)
	for i := 0; i < 3; i++ {
		f.board(t, u, model.CategoryFree)
	}

	boards, total, err := f.svc.ListBoards(ctx, Anonymous, model.CategoryFree, Page{Limit: 2}, model.BoardSearch{})
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 2 || total != 3 {
		t.Fatalf("ListBoards = %d boards, total %d, want 2 of 3", len(boards), total)
	}
	for _, b := range boards {
		if b.ID == notice.ID {
			t.Fatalf("notice %d listed with regular boards", notice.ID)
		}
	}

	notices, err := f.svc.Notices(ctx, u.ID, model.CategoryFree)
	if err != nil || len(notices) != 1 || notices[0].ID != notice.ID {
		t.Fatalf("Notices = %+v, %v, want [%d]", notices, err, notice.ID)
	}

	bs, us, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if bs != (model.BoardStats{Total: 4, Notices: 1, Free: 3}) {
		t.Fatalf("board stats = %+v", bs)
	}
	if us != (model.UserStats{Active: 2, Silver: 1, Admin: 1}) {
		t.Fatalf("user stats = %+v", us)
	}
}

func TestMyBoards(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	u := f.user(t, "u", model.RoleSilver)
	other := f.user(t, "other", model.RoleSilver)
	mine := f.board(t, u, model.CategoryFree)
	theirs := f.board(t, other, model.CategoryFree)
	if _, err := f.svc.ToggleLike(ctx, u.ID, theirs.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if _, err := f.svc.WriteComment(ctx, u.ID, theirs.ID, "hey"); err != nil {
		t.Fatalf("WriteComment: %v", err)
	}

	cases := map[string]int64{"board": mine.ID, "like": theirs.ID, "comment": theirs.ID}
	for kind, want := range cases {
		boards, err := f.svc.MyBoards(ctx, u.ID, kind)
		if err != nil {
			t.Fatalf("MyBoards(%s): %v", kind, err)
		}
		if len(boards) != 1 || boards[0].ID != want {
			t.Fatalf("MyBoards(%s) = %+v, want [%d]", kind, boards, want)
		}
	}
	_, err := f.svc.MyBoards(ctx, u.ID, "bookmark")
	wantErr(t, err, ErrValidation)
}

// interleavedBoards runs inject right after an unlocked read and right
// before a locking one, which is where a like committed by another
// transaction lands.
type interleavedBoards struct {
	repository.BoardStore
	inject func(ctx context.Context) error
}

func (b interleavedBoards) FindMeta(ctx context.Context, id int64) (model.BoardMeta, error) {
	meta, err := b.BoardStore.FindMeta(ctx, id)
	if err != nil {
		return meta, err
	}
	return meta, b.inject(ctx)
}

func (b interleavedBoards) LockMeta(ctx context.Context, id int64) (model.BoardMeta, error) {
	if err := b.inject(ctx); err != nil {
		return model.BoardMeta{}, err
	}
	return b.BoardStore.LockMeta(ctx, id)
}

func TestDeleteBoardCountsLikeCommittedDuringDelete(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	owner := f.user(t, "owner", model.RoleSilver)
	x := f.user(t, "x", model.RoleSilver)
	y := f.user(t, "y", model.RoleSilver)
	b := f.board(t, owner, model.CategoryFree)
	if _, err := f.svc.ToggleLike(ctx, x.ID, b.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	injected := false
	svc := f.hooked(func(tx repository.Stores) repository.Stores {
		likeByY := once(func(ctx context.Context) error {
			injected = true
			_, err := setLike(ctx, tx, y.ID, owner.ID, b.ID, model.Liked, f.svc.now)
			return err
		})
		return hookedStores{Stores: tx, boards: interleavedBoards{BoardStore: tx.Boards(), inject: likeByY}}
	})

	if err := svc.DeleteBoard(ctx, owner.ID, b.ID, model.CategoryFree); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if !injected {
		t.Fatal("concurrent like was never applied")
	}
	if got := f.reloadUser(t, owner.ID).ReceivedLikeCnt; got != 0 {
		t.Fatalf("receivedLikeCnt after delete = %d, want 0", got)
	}
}

// staleRole reports role for user id, as a read taken before another
// transaction changed it would.
type staleRole struct {
	repository.UserStore
	id   int64
	role model.Role
}

func (u staleRole) FindByID(ctx context.Context, id int64) (model.User, error) {
	user, err := u.UserStore.FindByID(ctx, id)
	if err == nil && id == u.id {
		user.Role = u.role
	}
	return user, err
}

func TestGreetingPromotionRejectsStaleRole(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	a := f.user(t, "a", model.RoleBronze)
	f.board(t, a, model.CategoryGreeting)

	svc := f.hooked(func(tx repository.Stores) repository.Stores {
		return hookedStores{Stores: tx, users: staleRole{UserStore: tx.Users(), id: a.ID, role: model.RoleBronze}}
	})
	_, err := svc.WriteBoard(ctx, a.ID, BoardInput{Category: model.CategoryGreeting, Title: "twice", Body: "hi"})
	wantErr(t, err, ErrForbidden)

	if total, _ := f.store.Boards().CountAll(ctx); total != 1 {
		t.Fatalf("boards = %d, want 1", total)
	}
	if got := f.reloadUser(t, a.ID).Role; got != model.RoleSilver {
		t.Fatalf("role = %v, want SILVER", got)
	}
}

func TestListBoardsSearch(t *testing.T) {
	f := newFixture(t, config.RetentionKeep)
	ctx := context.Background()
	u := f.user(t, "u", model.RoleSilver)
	for _, title := range []string{"Weekly Go", "gopher meetup", "cooking"} {
		if _, err := f.svc.WriteBoard(ctx, u.ID, BoardInput{Category: model.CategoryFree, Title: title, Body: "b"}); err != nil {
			t.Fatalf("WriteBoard: %v", err)
		}
	}

	boards, total, err := f.svc.ListBoards(ctx, Anonymous, model.CategoryFree, Page{},
		model.BoardSearch{Field: model.SearchTitle, Keyword: "GO"})
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 2 || total != 2 {
		t.Fatalf("search = %d boards, total %d, want 2", len(boards), total)
	}

	_, total, err = f.svc.ListBoards(ctx, Anonymous, model.CategoryFree, Page{},
		model.BoardSearch{Field: model.SearchTitle, Keyword: ""})
	if err != nil || total != 3 {
		t.Fatalf("blank keyword total = %d, %v, want 3", total, err)
	}
}
