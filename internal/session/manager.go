package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/sessions"
)

const (
	CookieName = "newsboard_session"

	keyState    = "state"
	keyUserID   = "user_id"
	keyCode     = "otp_code"
	keyIssuedAt = "otp_issued_at"

	stateAwaiting      = "awaiting_otp"
	stateAuthenticated = "authenticated"
)

// Manager stores session state in files; the browser only holds a signed,
// encrypted session id.
type Manager struct {
	store *sessions.FilesystemStore
}

type ManagerConfig struct {
	Dir    string
	Secret string
	MaxAge time.Duration
	Secure bool
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	err := os.MkdirAll(cfg.Dir, 0700)
	if err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	hashKey := sha256.Sum256([]byte("session-hash:" + cfg.Secret))
	blockKey := sha256.Sum256([]byte("session-block:" + cfg.Secret))

	store := sessions.NewFilesystemStore(cfg.Dir, hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)

	return &Manager{store: store}, nil
}

// Load returns the state bound to the request. Missing, tampered or
// unreadable sessions are Anonymous.
func (m *Manager) Load(r *http.Request) State {
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		slog.Debug("session load failed", "error", err)
		return Anonymous{}
	}
	return decode(sess.Values)
}

// Save persists s. Saving Anonymous destroys the session.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s State) error {
	if _, ok := s.(Anonymous); ok {
		return m.Destroy(w, r)
	}

	sess, _ := m.store.Get(r, CookieName)
	sess.Values = encode(s)

	err := sess.Save(r, w)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Destroy removes the stored session and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, CookieName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1

	if sess.IsNew {
		// nothing on disk, only the cookie needs expiring
		http.SetCookie(w, sessions.NewCookie(CookieName, "", sess.Options))
		return nil
	}

	err := sess.Save(r, w)
	if errors.Is(err, fs.ErrNotExist) {
		http.SetCookie(w, sessions.NewCookie(CookieName, "", sess.Options))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func encode(s State) map[any]any {
	switch st := s.(type) {
	case AwaitingOTP:
		return map[any]any{
			keyState:    stateAwaiting,
			keyUserID:   st.UserID,
			keyCode:     st.Code,
			keyIssuedAt: st.IssuedAt.UnixNano(),
		}
	case Authenticated:
		return map[any]any{
			keyState:  stateAuthenticated,
			keyUserID: st.userID,
		}
	default:
		return map[any]any{}
	}
}

func decode(values map[any]any) State {
	state, _ := values[keyState].(string)
	userID, _ := values[keyUserID].(int64)

	switch state {
	case stateAwaiting:
		code, _ := values[keyCode].(string)
		issued, _ := values[keyIssuedAt].(int64)
		if userID == 0 || code == "" {
			return Anonymous{}
		}
		return AwaitingOTP{UserID: userID, Code: code, IssuedAt: time.Unix(0, issued)}
	case stateAuthenticated:
		if userID == 0 {
			return Anonymous{}
		}
		return Authenticated{userID: userID}
	default:
		return Anonymous{}
	}
}
