// AngelaMos | 2026
// server.go

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/auth"
	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/health"
	"github.com/vidtube/go-backend/internal/media"
	"github.com/vidtube/go-backend/internal/middleware"
	"github.com/vidtube/go-backend/internal/server"
	"github.com/vidtube/go-backend/internal/subscription"
	"github.com/vidtube/go-backend/internal/upload"
	"github.com/vidtube/go-backend/internal/user"
	"github.com/vidtube/go-backend/internal/video"
)

// TestServer runs the full router over the memory store.
type TestServer struct {
	Server   *httptest.Server
	Store    *Store
	Denylist *MemoryDenylist
	Uploader *FakeUploader
	Tokens   *auth.TokenService
	Config   *config.Config
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := NewStore()
	denylist := NewMemoryDenylist()
	uploader := &FakeUploader{}
	mediaSvc := media.NewService(uploader, cfg.Media.Timeout, logger)

	uploads, err := upload.NewParser(cfg.Upload)
	require.NoError(t, err)

	hasher, err := core.NewPasswordHasher(cfg.Security)
	require.NoError(t, err)

	userSvc := user.NewService(store.Users(), mediaSvc)
	tokens, err := auth.NewTokenService(cfg.JWT, userSvc)
	require.NoError(t, err)

	authSvc := auth.NewService(userSvc, tokens, hasher, mediaSvc, denylist)
	subscriptionSvc := subscription.NewService(store.Subscriptions(), userSvc)
	videoSvc := video.NewService(store.Videos(), mediaSvc, userSvc, logger)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: health.NewHandler(),
		Logger:        logger,
	})
	router := srv.Router()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))

	srv.MountAPI(server.Handlers{
		Auth:          auth.NewHandler(authSvc, auth.NewCookieManager(cfg.Cookie), uploads),
		Users:         user.NewHandler(userSvc, uploads),
		Subscriptions: subscription.NewHandler(subscriptionSvc),
		Videos:        video.NewHandler(videoSvc, uploads),
		Authenticator: middleware.Authenticator(tokens, denylist, userSvc),
	})

	ts := &TestServer{
		Server:   httptest.NewServer(router),
		Store:    store,
		Denylist: denylist,
		Uploader: uploader,
		Tokens:   tokens,
		Config:   cfg,
	}
	t.Cleanup(ts.Server.Close)

	return ts
}

func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// Response is a decoded envelope. Data stays raw for the caller to decode.
type Response struct {
	StatusCode int
	Cookies    []*http.Cookie
	Envelope   struct {
		StatusCode int             `json:"statusCode"`
		Data       json.RawMessage `json:"data"`
		Message    string          `json:"message"`
		Success    bool            `json:"success"`
		Errors     []string        `json:"errors"`
	}
}

func (r *Response) Decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Envelope.Data, v), "data: %s", string(r.Envelope.Data))
}

func (r *Response) Cookie(name string) *http.Cookie {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// DoJSON sends body as JSON with an optional bearer token.
func (ts *TestServer) DoJSON(t *testing.T, method, path, token string, body any) *Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.APIURL(path), reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return ts.do(t, req, token)
}

// DoMultipart sends fields and files (slot to local path) as a multipart form.
func (ts *TestServer) DoMultipart(
	t *testing.T,
	method, path, token string,
	fields map[string]string,
	files map[string]string,
) *Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for slot, path := range files {
		part, err := mw.CreateFormFile(slot, path)
		require.NoError(t, err)
		_, err = part.Write([]byte("fixture-" + slot))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(method, ts.APIURL(path), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return ts.do(t, req, token)
}

func (ts *TestServer) do(t *testing.T, req *http.Request, token string) *Response {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test response

	out := &Response{StatusCode: resp.StatusCode, Cookies: resp.Cookies()}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out.Envelope))
	return out
}

// Register creates an account through the API.
func (ts *TestServer) Register(t *testing.T, username, email, password string) auth.UserResponse {
	t.Helper()

	resp := ts.DoMultipart(t, http.MethodPost, "/users/register", "", map[string]string{
		"fullName": "Full " + username,
		"email":    email,
		"username": username,
		"password": password,
	}, map[string]string{"avatar": username + ".png"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Envelope.Message)

	var out auth.UserResponse
	resp.Decode(t, &out)
	return out
}

// Login returns the issued access and refresh tokens.
func (ts *TestServer) Login(t *testing.T, username, password string) auth.LoginResponse {
	t.Helper()

	resp := ts.DoJSON(t, http.MethodPost, "/users/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Envelope.Message)

	var out auth.LoginResponse
	resp.Decode(t, &out)
	return out
}
