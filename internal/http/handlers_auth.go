package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Demo-grade credentials: passwords are stored and compared in
// plaintext and the token is a constant. Do not reuse this outside
// the demo.
const demoToken = "demo-token"

type authResponse struct {
	Token     string  `json:"token"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := core.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing email or password")
		return
	}

	err := s.store.CreateUser(r.Context(), storage.User{Email: email, Password: req.Password, Name: req.Name})
	if errors.Is(err, storage.ErrDuplicate) {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token: demoToken,
		Email: email,
		Name:  nullableString(req.Name),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := core.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing email or password")
		return
	}

	u, err := s.store.UserByEmail(r.Context(), email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Unknown emails auto-register on first login (demo behavior).
		if err := s.store.CreateUser(r.Context(), storage.User{Email: email, Password: req.Password}); err != nil {
			writeDomainError(w, r, err)
			return
		}
		u = storage.User{Email: email, Password: req.Password}
	case err != nil:
		writeDomainError(w, r, err)
		return
	case u.Password != req.Password:
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:     demoToken,
		Email:     u.Email,
		Name:      nullableString(u.Name),
		AvatarURL: nullableString(u.AvatarURL),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	email := emailQuery(r.URL.Query())
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	u, err := s.store.UserByEmail(r.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Email     string  `json:"email"`
		Name      *string `json:"name"`
		AvatarURL *string `json:"avatar_url"`
	}{Email: u.Email, Name: nullableString(u.Name), AvatarURL: nullableString(u.AvatarURL)})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := core.NormalizeEmail(req.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if _, err := s.store.UpdateProfileName(r.Context(), email, req.Name); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	email := core.NormalizeEmail(r.FormValue("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	name, err := s.saveUpload(file, header.Filename)
	if err != nil {
		slog.ErrorContext(r.Context(), "Avatar upload failed", "error", err, "user", email)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	urlPath := "/uploads/" + name
	if err := s.store.SetAvatar(r.Context(), email, urlPath); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "avatar_url": urlPath})
}

// saveUpload stores the blob under a random name, keeping the original
// extension. The core only ever sees the resulting reference string.
func (s *Server) saveUpload(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".dat"
	}
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("random suffix: %w", err)
	}
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), hex.EncodeToString(suffix), ext)

	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return name, nil
}
