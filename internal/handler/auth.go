package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/newsboard/newsboard/internal/ctxkeys"
	"github.com/newsboard/newsboard/internal/service"
	"github.com/newsboard/newsboard/internal/session"
	"github.com/newsboard/newsboard/internal/ui"
	"github.com/newsboard/newsboard/internal/ui/pages"
)

const (
	msgInvalidCredentials = "ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง"
	msgOTPDelivery        = "ไม่สามารถส่งรหัส OTP ได้ กรุณาลองใหม่อีกครั้ง"
	msgOTPExpired         = "รหัส OTP หมดอายุ กรุณาเข้าสู่ระบบใหม่"
	msgOTPMismatch        = "รหัส OTP ไม่ถูกต้อง"
	msgInternal           = "เกิดข้อผิดพลาดภายในระบบ กรุณาลองใหม่อีกครั้ง"
)

type AuthHandler struct {
	authService *service.AuthService
	sessions    *session.Manager
}

func NewAuthHandler(authService *service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Login(pages.LoginData{}))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		ui.RenderStatus(w, r, http.StatusBadRequest, pages.Login(pages.LoginData{Username: username, Error: msgInvalidCredentials}))
		return
	}

	pending, err := h.authService.StartChallenge(r.Context(), username, password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		ui.RenderStatus(w, r, http.StatusUnauthorized, pages.Login(pages.LoginData{Username: username, Error: msgInvalidCredentials}))
		return
	case errors.Is(err, service.ErrOTPDelivery):
		ui.RenderStatus(w, r, http.StatusServiceUnavailable, pages.Login(pages.LoginData{Username: username, Error: msgOTPDelivery}))
		return
	case err != nil:
		slog.Error("failed to start login", "error", err)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Login(pages.LoginData{Username: username, Error: msgInternal}))
		return
	}

	err = h.sessions.Save(w, r, pending)
	if err != nil {
		slog.Error("failed to save session", "error", err)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Login(pages.LoginData{Username: username, Error: msgInternal}))
		return
	}

	http.Redirect(w, r, "/admin/verify-2fa", http.StatusSeeOther)
}

func (h *AuthHandler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := ctxkeys.Session(r.Context()).(session.AwaitingOTP); !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	ui.Render(w, r, pages.Verify(pages.VerifyData{Expiry: h.authService.OTPExpiry()}))
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	pending, ok := ctxkeys.Session(r.Context()).(session.AwaitingOTP)
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	next, err := h.authService.VerifyChallenge(pending, r.FormValue("otp"))
	switch {
	case errors.Is(err, session.ErrOTPExpired):
		h.save(w, r, next)
		ui.RenderStatus(w, r, http.StatusUnauthorized, pages.Login(pages.LoginData{Error: msgOTPExpired}))
		return
	case errors.Is(err, session.ErrOTPMismatch):
		ui.RenderStatus(w, r, http.StatusUnauthorized, pages.Verify(pages.VerifyData{Error: msgOTPMismatch, Expiry: h.authService.OTPExpiry()}))
		return
	case err != nil:
		slog.Error("failed to verify otp", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	if !h.save(w, r, next) {
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if auth, ok := ctxkeys.Session(r.Context()).(session.Authenticated); ok {
		h.save(w, r, auth.Logout())
		slog.Info("admin logged out", "user_id", auth.UserID())
	} else {
		h.save(w, r, session.Anonymous{})
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *AuthHandler) save(w http.ResponseWriter, r *http.Request, state session.State) bool {
	err := h.sessions.Save(w, r, state)
	if err != nil {
		slog.Error("failed to save session", "error", err)
		return false
	}
	return true
}
