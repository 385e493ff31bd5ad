package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/log"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository"
	"github.com/gfdmit/tierboard/internal/repository/sqlstore"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeImages struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	removeErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string][]byte{}}
}

func (f *fakeImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeImages) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeImages) URL(_ context.Context, key string) (*url.URL, error) {
	return &url.URL{Scheme: "http", Host: "images.test", Path: "/" + key}, nil
}

func (f *fakeImages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fixture struct {
	svc    *Service
	store  *sqlstore.Store
	images *fakeImages
}

func newFixture(t *testing.T, retention string) *fixture {
	t.Helper()
	store, err := sqlstore.New(config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "board.db"),
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	images := newFakeImages()
	svc := New(store, images, config.Board{Retention: retention})
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, store: store, images: images}
}

const testPassword = "pw"

var testHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

func (f *fixture) user(t *testing.T, login string, role model.Role) model.User {
	t.Helper()
	u := model.User{
		LoginID:      login,
		Nickname:     login,
		PasswordHash: testHash,
		Role:         role,
		Status:       model.StatusActive,
		CreatedAt:    f.svc.now(),
	}
	if err := f.store.Users().Insert(context.Background(), &u); err != nil {
		t.Fatalf("insert user %s: %v", login, err)
	}
	return u
}

func (f *fixture) board(t *testing.T, owner model.User, category model.Category) model.Board {
	t.Helper()
	b, err := f.svc.WriteBoard(context.Background(), owner.ID, BoardInput{Category: category, Title: "title", Body: "body"})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	return b
}

func (f *fixture) reloadBoard(t *testing.T, id int64) model.Board {
	t.Helper()
	b, err := f.store.Boards().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find board %d: %v", id, err)
	}
	return b
}

func (f *fixture) reloadUser(t *testing.T, id int64) model.User {
	t.Helper()
	u, err := f.store.Users().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find user %d: %v", id, err)
	}
	return u
}

// hookedRepo hands transactions a rewrapped set of stores, so a test can
// replay what a concurrent transaction does between two statements.
type hookedRepo struct {
	repository.Repository
	wrap func(tx repository.Stores) repository.Stores
}

func (r hookedRepo) WithinTx(ctx context.Context, fn func(tx repository.Stores) error) error {
	return r.Repository.WithinTx(ctx, func(tx repository.Stores) error {
		return fn(r.wrap(tx))
	})
}

type hookedStores struct {
	repository.Stores
	users  repository.UserStore
	boards repository.BoardStore
	likes  repository.LikeStore
}

func (h hookedStores) Users() repository.UserStore {
	if h.users != nil {
		return h.users
	}
	return h.Stores.Users()
}

func (h hookedStores) Boards() repository.BoardStore {
	if h.boards != nil {
		return h.boards
	}
	return h.Stores.Boards()
}

func (h hookedStores) Likes() repository.LikeStore {
	if h.likes != nil {
		return h.likes
	}
	return h.Stores.Likes()
}

// hooked returns a service over the fixture's store whose transactions see
// the stores built by wrap.
func (f *fixture) hooked(wrap func(tx repository.Stores) repository.Stores) *Service {
	svc := New(hookedRepo{Repository: f.store, wrap: wrap}, f.images, config.Board{Retention: f.svc.retention})
	svc.now = f.svc.now
	return svc
}

// once runs fn the first time it is called.
func once(fn func(ctx context.Context) error) func(ctx context.Context) error {
	done := false
	return func(ctx context.Context) error {
		if done {
			return nil
		}
		done = true
		return fn(ctx)
	}
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("err = %v, want %v", err, target)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"forbidden passes", forbidden("x"), ErrForbidden},
		{"store error", errors.New("boom"), ErrStoreFailure},
		{"row missing", repository.ErrNotFound, ErrNotFound},
		{"validation passes", &ValidationError{Fields: map[string]string{"a": "b"}}, ErrValidation},
		{"no transition passes", ErrNoTransition, ErrNoTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wantErr(t, classify("op", tc.err), tc.want)
		})
	}
	if classify("op", nil) != nil {
		t.Fatal("classify(nil) != nil")
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"nickname": "taken", "loginId": "taken"}}
	want := "validation failed: loginId: taken; nickname: taken"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
