// AngelaMos | 2026
// upload.go

package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
)

const memoryBuffer = 10 << 20

// Parser stores named multipart file slots in a temp directory so they can
// be handed to the media host by path.
type Parser struct {
	tempDir  string
	maxBytes int64
}

func NewParser(cfg config.UploadConfig) (*Parser, error) {
	if err := os.MkdirAll(cfg.TempDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Parser{tempDir: cfg.TempDir, maxBytes: cfg.MaxBytes}, nil
}

// Files is the result of a parsed form. Callers must defer Cleanup.
type Files struct {
	paths  map[string]string
	values map[string][]string
}

// Parse reads the form and saves the first file of every requested slot.
// Slots absent from the request are simply missing from the result. A body
// that is not multipart yields an empty result so JSON-only callers can
// still reach validation.
func (p *Parser) Parse(w http.ResponseWriter, r *http.Request, slots ...string) (*Files, error) {
	files := &Files{paths: make(map[string]string, len(slots))}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return files, nil
	}

	if p.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, p.maxBytes)
	}

	if err := r.ParseMultipartForm(memoryBuffer); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, core.BadRequestError("Upload exceeds the size limit")
		}
		return nil, core.BadRequestError("Invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // spooled parts only

	files.values = r.MultipartForm.Value

	for _, slot := range slots {
		headers := r.MultipartForm.File[slot]
		if len(headers) == 0 {
			continue
		}

		path, err := p.save(headers[0])
		if err != nil {
			files.Cleanup()
			return nil, fmt.Errorf("save %s: %w", slot, err)
		}
		files.paths[slot] = path
	}

	return files, nil
}

func (p *Parser) save(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open part: %w", err)
	}
	defer src.Close() //nolint:errcheck // read-only part

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst := filepath.Join(p.tempDir, uuid.NewString()+ext)

	//nolint:gosec // G304: path is built from a generated name
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()    //nolint:errcheck // already failing
		_ = os.Remove(dst) //nolint:errcheck // already failing
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(dst) //nolint:errcheck // already failing
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return dst, nil
}

// Path returns the saved location of a slot, or "" when it was not sent.
func (f *Files) Path(slot string) string {
	return f.paths[slot]
}

// Value returns the first value of a form field with surrounding space
// trimmed.
func (f *Files) Value(key string) string {
	return strings.TrimSpace(f.RawValue(key))
}

// RawValue returns the first value of a form field exactly as sent.
func (f *Files) RawValue(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Cleanup removes every saved file still on disk. Files already consumed
// by the media service are gone and ignored.
func (f *Files) Cleanup() {
	for slot, path := range f.paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("remove temp upload", "slot", slot, "path", path, "error", err)
		}
	}
}
