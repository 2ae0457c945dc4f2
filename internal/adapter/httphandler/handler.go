package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
)

// POST v1/session JSON {"email", "password"} (201 Created, 400, 401, 503)
// GET v1/session Authorization Bearer (200 OK {"id", "name", "email"}, 401)
// DELETE v1/session Authorization Bearer (204 No content, 401)

type SessionHandler struct {
	sessions port.SessionManager
}

func RegisterSession(mux *http.ServeMux, sessions port.SessionManager) {
	h := SessionHandler{sessions}
	mux.HandleFunc("POST /v1/session", h.Login)
	mux.HandleFunc("GET /v1/session", RequireSession(sessions, h.GetIdentity))
	mux.HandleFunc("DELETE /v1/session", RequireSession(sessions, h.Logout))
}

func (h SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.Login"
	log := slog.With("op", op)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	token, err := h.sessions.Login(r.Context(), port.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials):
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		log.Info("login rejected", "err", err)
		return
	case errors.Is(err, domain.ErrAuthUnavailable):
		http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
		log.Error("failed to authenticate", "err", err)
		return
	default:
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		log.Error("failed to open session", "err", err)
		return
	}

	writeJSON(w, http.StatusCreated, LoginResponse{Token: token}, op)
}

func (h SessionHandler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.GetIdentity"

	identity, err := h.sessions.Identity(tokenFrom(r.Context()))
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		slog.Info("identity rejected", "op", op, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, IdentityResponse{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
	}, op)
}

func (h SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.Logout"

	if err := h.sessions.Logout(tokenFrom(r.Context())); err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		slog.Info("logout rejected", "op", op, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET v1/dashboard (200 OK)
// PUT v1/filters/ranges/{name} JSON {"min"?, "max"?} (200 OK, 400, 404)
// PUT v1/filters/selections/{name} JSON {"value"} (200 OK, 422)
// PUT v1/filters/fields/{name} JSON {"value"} (200 OK, 422)
// POST v1/filters/toggles/{name} (200 OK, 422)
// DELETE v1/filters (200 OK)
// POST v1/search?wait=true (202 Accepted, 200 OK when waited)
// POST v1/cards/reload?wait=true (202 Accepted, 200 OK when waited)
// All of them require Authorization Bearer (401).

type DashboardHandler struct{}

func RegisterDashboard(mux *http.ServeMux, sessions port.SessionManager) {
	h := DashboardHandler{}
	auth := func(hf http.HandlerFunc) http.HandlerFunc {
		return RequireSession(sessions, hf)
	}

	mux.HandleFunc("GET /v1/dashboard", auth(h.GetView))
	mux.HandleFunc("PUT /v1/filters/ranges/{name}", auth(h.PutRange))
	mux.HandleFunc("PUT /v1/filters/selections/{name}", auth(h.PutSelection))
	mux.HandleFunc("PUT /v1/filters/fields/{name}", auth(h.PutField))
	mux.HandleFunc("POST /v1/filters/toggles/{name}", auth(h.PostToggle))
	mux.HandleFunc("DELETE /v1/filters", auth(h.DeleteFilters))
	mux.HandleFunc("POST /v1/search", auth(h.PostSearch))
	mux.HandleFunc("POST /v1/cards/reload", auth(h.PostReload))
}

func (DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.GetView"
	writeJSON(w, http.StatusOK, dashboardFrom(r.Context()).View(), op)
}

func (DashboardHandler) PutRange(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.PutRange"
	log := slog.With("op", op)

	name := r.PathValue("name")
	if _, ok := domain.DefaultRanges()[name]; !ok {
		http.Error(w, "unknown range", http.StatusNotFound)
		return
	}

	var req RangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.Min == nil && req.Max == nil {
		http.Error(w, "min or max is required", http.StatusBadRequest)
		return
	}

	d := dashboardFrom(r.Context())
	current := d.View().Ranges[name]

	setLower := func() bool {
		var ok bool
		current, ok = d.SetRangeLower(name, *req.Min)
		return ok
	}
	setUpper := func() bool {
		var ok bool
		current, ok = d.SetRangeUpper(name, *req.Max)
		return ok
	}

	// moving the whole window up needs the upper bound first
	steps := []func() bool{}
	switch {
	case req.Min != nil && req.Max != nil && *req.Min > current.Max:
		steps = append(steps, setUpper, setLower)
	default:
		if req.Min != nil {
			steps = append(steps, setLower)
		}
		if req.Max != nil {
			steps = append(steps, setUpper)
		}
	}

	applied := true
	for _, step := range steps {
		applied = step() && applied
	}

	writeJSON(w, http.StatusOK, RangeResponse{Applied: applied, Range: current}, op)
}

func (DashboardHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.PutSelection"
	updateFilter(w, r, op, func(d port.Dashboard, name, value string) bool {
		return d.SetSelection(name, value)
	})
}

func (DashboardHandler) PutField(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.PutField"
	updateFilter(w, r, op, func(d port.Dashboard, name, value string) bool {
		return d.SetField(name, value)
	})
}

func (DashboardHandler) PostToggle(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.PostToggle"

	d := dashboardFrom(r.Context())
	if !d.TogglePreference(r.PathValue("name")) {
		http.Error(w, "unknown preference", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, d.View(), op)
}

func (DashboardHandler) DeleteFilters(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.DeleteFilters"

	d := dashboardFrom(r.Context())
	d.ResetFilters()
	writeJSON(w, http.StatusOK, d.View(), op)
}

func (DashboardHandler) PostSearch(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.PostSearch"
	d := dashboardFrom(r.Context())
	trigger(w, r, op, d, d.Search())
}

func (DashboardHandler) PostReload(w http.ResponseWriter, r *http.Request) {
	const op = "DashboardHandler.PostReload"
	d := dashboardFrom(r.Context())
	trigger(w, r, op, d, d.LoadAll())
}

func updateFilter(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	set func(d port.Dashboard, name, value string) bool,
) {
	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		slog.Warn("failed to parse JSON", "op", op, "err", err)
		return
	}

	d := dashboardFrom(r.Context())
	if !set(d, r.PathValue("name"), req.Value) {
		http.Error(w, "filter value rejected", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, d.View(), op)
}

// trigger answers 202 with the pending view, or with the settled view when
// the client asked to wait.
func trigger(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	d port.Dashboard,
	done <-chan struct{},
) {
	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, d.View(), op)
		return
	}

	select {
	case <-done:
		writeJSON(w, http.StatusOK, d.View(), op)
	case <-r.Context().Done():
		slog.Info("client gone before fetch completed", "op", op)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any, op string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}
