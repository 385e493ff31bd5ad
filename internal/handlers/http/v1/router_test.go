package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/log"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/repository/sqlstore"
	"github.com/gfdmit/tierboard/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type memImages map[string][]byte

func (m memImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	m[key] = data
	return err
}

func (m memImages) Remove(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func (m memImages) URL(_ context.Context, key string) (*url.URL, error) {
	return &url.URL{Scheme: "http", Host: "images.test", Path: "/" + key}, nil
}

type testServer struct {
	router *gin.Engine
	store  *sqlstore.Store
}

func newTestServer(t *testing.T) *testServer {
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

	router, err := New(service.New(store, memImages{}, config.Board{Retention: config.RetentionKeep}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testServer{router: router, store: store}
}

func (s *testServer) user(t *testing.T, login string, role model.Role) int64 {
	t.Helper()
	u := model.User{LoginID: login, Nickname: login, PasswordHash: "x", Role: role, Status: model.StatusActive, CreatedAt: time.Now()}
	if err := s.store.Users().Insert(context.Background(), &u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u.ID
}

func (s *testServer) do(req *http.Request, actorID int64) *httptest.ResponseRecorder {
	if actorID != 0 {
		req.Header.Set(ActorHeader, strconv.FormatInt(actorID, 10))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *testServer) graphql(t *testing.T, actorID int64, query string, vars map[string]interface{}) gqlResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req, actorID)
	if rec.Code != http.StatusOK {
		t.Fatalf("graphql status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res gqlResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode graphql response: %v", err)
	}
	return res
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil), 0)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestInvalidActorHeader(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set(ActorHeader, "nobody")
	rec := s.do(req, 0)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGraphQLLikeFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.user(t, "owner", model.RoleSilver)
	fan := s.user(t, "fan", model.RoleGold)

	res := s.graphql(t, owner, `mutation($in: BoardInput!) { writeBoard(input: $in) { id category likeCnt } }`,
		map[string]interface{}{"in": map[string]interface{}{"category": "free", "title": "hello", "body": "world"}})
	if len(res.Errors) > 0 {
		t.Fatalf("writeBoard errors = %+v", res.Errors)
	}
	var board struct {
		ID       string `json:"id"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(res.Data["writeBoard"], &board); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if board.Category != "FREE" {
		t.Fatalf("category = %q, want FREE", board.Category)
	}

	res = s.graphql(t, fan, `mutation($id: ID!) { toggleLike(boardId: $id) }`, map[string]interface{}{"id": board.ID})
	if len(res.Errors) > 0 || string(res.Data["toggleLike"]) != "true" {
		t.Fatalf("toggleLike = %s, %+v", res.Data["toggleLike"], res.Errors)
	}

	res = s.graphql(t, 0, `query($id: ID!) { board(category: "FREE", id: $id) { likeCnt ownerNickname } }`, map[string]interface{}{"id": board.ID})
	var read struct {
		LikeCnt       int    `json:"likeCnt"`
		OwnerNickname string `json:"ownerNickname"`
	}
	if err := json.Unmarshal(res.Data["board"], &read); err != nil {
		t.Fatalf("decode board: %v (%+v)", err, res.Errors)
	}
	if read.LikeCnt != 1 || read.OwnerNickname != "owner" {
		t.Fatalf("board = %+v, want likeCnt 1 by owner", read)
	}
}

func TestGraphQLErrorsAreMapped(t *testing.T) {
	s := newTestServer(t)
	bronze := s.user(t, "bronze", model.RoleBronze)

	res := s.graphql(t, bronze, `mutation { writeBoard(input: {category: "GOLD", title: "t", body: "b"}) { id } }`, nil)
	if len(res.Errors) != 1 || res.Errors[0].Message != service.ErrForbidden.Error() {
		t.Fatalf("errors = %+v, want %q", res.Errors, service.ErrForbidden.Error())
	}
	res = s.graphql(t, bronze, `query { board(category: "FREE", id: "42") { id } }`, nil)
	if len(res.Errors) != 1 || res.Errors[0].Message != service.ErrNotFound.Error() {
		t.Fatalf("errors = %+v, want %q", res.Errors, service.ErrNotFound.Error())
	}
}

func TestGraphQLSearchAndProfile(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(t, "admin", model.RoleAdmin)
	writer := s.user(t, "writer", model.RoleSilver)

	for _, title := range []string{"Go news", "weather"} {
		res := s.graphql(t, writer, `mutation($in: BoardInput!) { writeBoard(input: $in) { id } }`,
			map[string]interface{}{"in": map[string]interface{}{"category": "FREE", "title": title, "body": "b"}})
		if len(res.Errors) > 0 {
			t.Fatalf("writeBoard errors = %+v", res.Errors)
		}
	}

	res := s.graphql(t, 0, `query { boards(category: "free", searchType: "title", keyword: "go") { total items { title } } }`, nil)
	var page struct {
		Total int `json:"total"`
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
	}
	if err := json.Unmarshal(res.Data["boards"], &page); err != nil {
		t.Fatalf("decode boards: %v (%+v)", err, res.Errors)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Title != "Go news" {
		t.Fatalf("search = %+v", page)
	}

	res = s.graphql(t, 0, `query { boards(category: "free", searchType: "author", keyword: "go") { total } }`, nil)
	if len(res.Errors) != 1 {
		t.Fatalf("unknown searchType errors = %+v, want one", res.Errors)
	}

	res = s.graphql(t, admin, `query { users(keyword: "wri") { total items { nickname role } } }`, nil)
	var users struct {
		Total int `json:"total"`
		Items []struct {
			Nickname string `json:"nickname"`
			Role     string `json:"role"`
		} `json:"items"`
	}
	if err := json.Unmarshal(res.Data["users"], &users); err != nil {
		t.Fatalf("decode users: %v (%+v)", err, res.Errors)
	}
	if users.Total != 1 || users.Items[0].Nickname != "writer" || users.Items[0].Role != "SILVER" {
		t.Fatalf("users = %+v", users)
	}
	res = s.graphql(t, writer, `query { users(keyword: "a") { total } }`, nil)
	if len(res.Errors) != 1 || res.Errors[0].Message != service.ErrForbidden.Error() {
		t.Fatalf("non-admin search errors = %+v", res.Errors)
	}

	res = s.graphql(t, writer, `query { me { nickname } }`, nil)
	if len(res.Errors) > 0 || string(res.Data["me"]) != `{"nickname":"writer"}` {
		t.Fatalf("me = %s, %+v", res.Data["me"], res.Errors)
	}
}

func multipartBoard(t *testing.T, method, target, title string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("title", title)
	_ = w.WriteField("body", "body")
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="cat.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		_, _ = part.Write(image)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestMultipartBoardWithImage(t *testing.T) {
	s := newTestServer(t)
	owner := s.user(t, "owner", model.RoleSilver)

	rec := s.do(multipartBoard(t, http.MethodPost, "/api/v1/boards/free", "pic", []byte{1, 2, 3}), owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var board struct {
		ID       string `json:"id"`
		HasImage bool   `json:"hasImage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !board.HasImage {
		t.Fatalf("hasImage = false, want true")
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/boards/free/"+board.ID+"/image", nil), 0)
	if rec.Code != http.StatusOK {
		t.Fatalf("image status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = s.do(multipartBoard(t, http.MethodPut, "/api/v1/boards/free/"+board.ID, "renamed", nil), owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestMultipartBoardStatusCodes(t *testing.T) {
	s := newTestServer(t)
	silver := s.user(t, "silver", model.RoleSilver)

	cases := []struct {
		name   string
		req    *http.Request
		actor  int64
		status int
	}{
		{"forbidden category", multipartBoard(t, http.MethodPost, "/api/v1/boards/gold", "t", nil), silver, http.StatusForbidden},
		{"unknown category", multipartBoard(t, http.MethodPost, "/api/v1/boards/news", "t", nil), silver, http.StatusBadRequest},
		{"empty title", multipartBoard(t, http.MethodPost, "/api/v1/boards/free", "", nil), silver, http.StatusBadRequest},
		{"anonymous", multipartBoard(t, http.MethodPost, "/api/v1/boards/free", "t", nil), 0, http.StatusForbidden},
		{"missing board", multipartBoard(t, http.MethodPut, "/api/v1/boards/free/77", "t", nil), silver, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := s.do(tc.req, tc.actor); rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}
