package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"tably-service/internal/logger"
)

var avatarExtensions = []struct {
	mime string
	ext  string
}{
	{"image/jpeg", "jpg"},
	{"image/png", "png"},
	{"image/webp", "webp"},
}

// PictureSetter records an uploaded avatar URL on the user's profile.
type PictureSetter interface {
	SetProfilePicture(ctx context.Context, userID, url string) error
}

// UploadHandler stores avatar images under dir/<userId>/<unix>.<ext> and answers
// with the public URL.
type UploadHandler struct {
	profiles PictureSetter
	dir      string
	prefix   string
	maxBytes int64
	now      func() time.Time
}

func NewUploadHandler(profiles PictureSetter, dir, publicPrefix string, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		profiles: profiles,
		dir:      dir,
		prefix:   strings.TrimRight(publicPrefix, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, uploadResponse{Error: "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "invalid upload"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "file not received"})
		return
	}
	defer file.Close()

	userID := sanitizeUserID(r.FormValue("userId"))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "userId required"})
		return
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "unreadable file"})
		return
	}
	ext := ""
	for _, allowed := range avatarExtensions {
		if mtype.Is(allowed.mime) {
			ext = allowed.ext
			break
		}
	}
	if ext == "" {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "format not allowed: " + mtype.String()})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Error: "could not read upload"})
		return
	}

	targetDir := filepath.Join(h.dir, userID)
	if err := os.MkdirAll(targetDir, 0o775); err != nil {
		logger.Error("create avatar dir %s: %v", targetDir, err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Error: "could not create target directory"})
		return
	}
	filename := fmt.Sprintf("%d.%s", h.now().Unix(), ext)
	if err := saveFile(filepath.Join(targetDir, filename), file); err != nil {
		logger.Error("save avatar for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Error: "could not save file"})
		return
	}

	url := h.prefix + "/" + userID + "/" + filename
	if h.profiles != nil {
		if err := h.profiles.SetProfilePicture(r.Context(), userID, url); err != nil {
			logger.Warn("avatar stored but profile not updated for %s: %v", userID, err)
		}
	}
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, URL: url})
}

func saveFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// sanitizeUserID keeps ASCII letters, digits and hyphens.
func sanitizeUserID(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return -1
	}, raw)
}
