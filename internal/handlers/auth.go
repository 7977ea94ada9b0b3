package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"bakehouse/internal/auth"
	applog "bakehouse/internal/log"
	"bakehouse/internal/views/pages"
	"bakehouse/models"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionUserIDKey        = "auth:user:id"
	sessionUsernameKey      = "auth:user:name"
	sessionRoleKey          = "auth:user:role"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login renders the sign-in form and processes form or JSON submissions.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling login request", "method", r.Method, "htmx", isHTMX(r))

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if h.activeSession(r) {
			redirectTo(w, r, "/app")
			return
		}
		h.renderLogin(w, r, http.StatusOK, "", "")
	case http.MethodPost:
		if h.sessions == nil || h.users == nil {
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}

		var creds credentials
		jsonRequest := wantsJSON(r)
		if jsonRequest {
			if err := decodeJSON(r, &creds); err != nil {
				writeError(w, r, err)
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "invalid form submission", http.StatusBadRequest)
				return
			}
			creds.Username = r.PostFormValue("username")
			creds.Password = r.PostFormValue("password")
		}
		creds.Username = strings.TrimSpace(creds.Username)

		user, err := h.users.Authenticate(r.Context(), creds.Username, creds.Password)
		if err != nil {
			message := "We were unable to sign you in. Please try again."
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, auth.ErrMissingCredentials):
				message, status = "Username and password are required.", http.StatusBadRequest
			case errors.Is(err, auth.ErrInvalidCredentials):
				message, status = "Invalid username or password.", http.StatusUnauthorized
			default:
				applog.Error(r.Context(), "failed to authenticate user", "error", err)
			}
			applog.Info(r.Context(), "login rejected", "username", creds.Username, "status", status)
			if jsonRequest {
				writeJSON(w, r, status, errorResponse{Error: message})
				return
			}
			h.renderLogin(w, r, status, message, creds.Username)
			return
		}

		if err := h.establishSession(r, user); err != nil {
			applog.Error(r.Context(), "failed to establish session", "error", err)
			http.Error(w, "unable to start session", http.StatusInternalServerError)
			return
		}
		applog.Info(r.Context(), "user signed in", "username", user.Username, "role", user.Role)

		if jsonRequest {
			writeJSON(w, r, http.StatusOK, sessionUser{ID: user.ID, Username: user.Username, Role: user.Role})
			return
		}
		redirectTo(w, r, "/app")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, message, username string) {
	var component templ.Component
	if isHTMX(r) {
		component = pages.LoginPartial(message, username)
	} else {
		component = pages.Login(message, username)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render login component", "error", err)
	}
}

func (h *Handlers) establishSession(r *http.Request, user models.User) error {
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		return err
	}
	h.sessions.Put(r.Context(), sessionAuthenticatedKey, true)
	h.sessions.Put(r.Context(), sessionUserIDKey, int(user.ID))
	h.sessions.Put(r.Context(), sessionUsernameKey, user.Username)
	h.sessions.Put(r.Context(), sessionRoleKey, user.Role)
	return nil
}

// Logout destroys the current session and redirects to the login screen.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		if err := h.sessions.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		}
	}
	redirectTo(w, r, "/login")
}

// Home sends visitors to the dashboard or the login screen.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if h.activeSession(r) {
		redirectTo(w, r, "/app")
		return
	}
	redirectTo(w, r, "/login")
}

// RequireAuthentication rejects requests without a signed-in session. API
// callers get 401; browsers are sent to the login screen.
func (h *Handlers) RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.activeSession(r) {
			if strings.HasPrefix(r.URL.Path, "/app/api/") {
				writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "sign in required"})
				return
			}
			redirectTo(w, r, "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets only admin sessions through.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return h.RequireAuthentication(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.currentUser(r).Role != models.RoleAdmin {
			writeJSON(w, r, http.StatusForbidden, errorResponse{Error: "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (h *Handlers) activeSession(r *http.Request) bool {
	if h.sessions == nil {
		return false
	}
	return h.sessions.GetBool(r.Context(), sessionAuthenticatedKey) && h.sessions.GetInt(r.Context(), sessionUserIDKey) > 0
}

func (h *Handlers) currentUser(r *http.Request) sessionUser {
	if h.sessions == nil {
		return sessionUser{}
	}
	return sessionUser{
		ID:       uint(h.sessions.GetInt(r.Context(), sessionUserIDKey)),
		Username: h.sessions.GetString(r.Context(), sessionUsernameKey),
		Role:     h.sessions.GetString(r.Context(), sessionRoleKey),
	}
}

func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
