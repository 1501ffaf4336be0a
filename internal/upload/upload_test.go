// AngelaMos | 2026
// upload_test.go

package upload_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/upload"
)

func multipartRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for slot, name := range files {
		part, err := mw.CreateFormFile(slot, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newParser(t *testing.T, maxBytes int64) (*upload.Parser, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	p, err := upload.NewParser(config.UploadConfig{TempDir: dir, MaxBytes: maxBytes})
	require.NoError(t, err)
	return p, dir
}

func TestParser_SavesRequestedSlots(t *testing.T) {
	p, dir := newParser(t, 1<<20)

	req := multipartRequest(t,
		map[string]string{"title": "  Intro  ", "isPublished": "false", "password": "  padded secret  "},
		map[string]string{"videoFile": "clip.MP4", "extra": "ignored.txt"},
	)

	files, err := p.Parse(httptest.NewRecorder(), req, "videoFile", "thumbnail")
	require.NoError(t, err)
	defer files.Cleanup()

	path := files.Path("videoFile")
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".mp4"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content of clip.MP4", string(data))

	assert.Empty(t, files.Path("thumbnail"))
	assert.Empty(t, files.Path("extra"))
	assert.Equal(t, "Intro", files.Value("title"))
	assert.Equal(t, "false", files.Value("isPublished"))
	assert.Equal(t, "  padded secret  ", files.RawValue("password"))
	assert.Empty(t, files.Value("duration"))
	assert.Empty(t, files.RawValue("duration"))

	files.Cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestParser_NonMultipartIsEmpty(t *testing.T) {
	p, _ := newParser(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	files, err := p.Parse(httptest.NewRecorder(), req, "avatar")
	require.NoError(t, err)
	assert.Empty(t, files.Path("avatar"))
	assert.Empty(t, files.Value("title"))
}

func TestParser_RejectsOversizedBody(t *testing.T) {
	p, _ := newParser(t, 64)

	req := multipartRequest(t, nil, map[string]string{"avatar": strings.Repeat("a", 200) + ".png"})

	_, err := p.Parse(httptest.NewRecorder(), req, "avatar")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, core.FromError(err).StatusCode)
}
