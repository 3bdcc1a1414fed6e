package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/search"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// Requests may carry an Authorization: Bearer <token> header identifying a
// user; requests without one run as anonymous.
func (s *ProjectServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/create", s.handleCreateProject)
	mux.HandleFunc("POST /api/projects/change_visibility", s.handleChangeVisibility)
	mux.HandleFunc("POST /api/organizations/update_project_visibility", s.handleUpdateProjectVisibility)
	mux.HandleFunc("GET /api/components/show", s.handleShowComponent)
	mux.HandleFunc("GET /api/components/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.SessionMiddleware(MetricsMiddleware(mux))
}

// handleHealth handles GET /api/health.
func (s *ProjectServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChangeVisibility handles POST /api/projects/change_visibility.
func (s *ProjectServer) handleChangeVisibility(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	if err := sess.CheckLoggedIn(); err != nil {
		writeStatusError(w, err)
		return
	}
	project, err := requiredParam(r, "project")
	if err != nil {
		writeStatusError(w, err)
		return
	}
	visibility, err := visibilityParam(r, "visibility", true)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	if err := s.ChangeVisibility(r.Context(), sess, project, *visibility); err != nil {
		writeStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateProjectVisibility handles POST /api/organizations/update_project_visibility.
func (s *ProjectServer) handleUpdateProjectVisibility(w http.ResponseWriter, r *http.Request) {
	organization, err := requiredParam(r, "organization")
	if err != nil {
		writeStatusError(w, err)
		return
	}
	visibility, err := visibilityParam(r, "projectVisibility", true)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	if err := s.UpdateProjectVisibility(r.Context(), SessionFrom(r.Context()), organization, *visibility); err != nil {
		writeStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateProject handles POST /api/projects/create.
func (s *ProjectServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	in := CreateProjectInput{
		Organization: r.FormValue("organization"),
		Branch:       r.FormValue("branch"),
	}
	var err error
	if in.Key, err = requiredParam(r, "project"); err != nil {
		writeStatusError(w, err)
		return
	}
	if in.Name, err = requiredParam(r, "name"); err != nil {
		writeStatusError(w, err)
		return
	}
	if in.Visibility, err = visibilityParam(r, "visibility", false); err != nil {
		writeStatusError(w, err)
		return
	}

	project, err := s.CreateProject(r.Context(), SessionFrom(r.Context()), in)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

// handleShowComponent handles GET /api/components/show.
func (s *ProjectServer) handleShowComponent(w http.ResponseWriter, r *http.Request) {
	key, err := requiredParam(r, "component")
	if err != nil {
		writeStatusError(w, err)
		return
	}
	component, err := s.ShowComponent(r.Context(), SessionFrom(r.Context()), key)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"component": component})
}

// handleSuggestions handles GET /api/components/suggestions.
func (s *ProjectServer) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	b := search.NewQueryBuilder()
	if _, err := requiredParam(r, "s"); err != nil {
		writeStatusError(w, err)
		return
	}
	_ = b.SetQuery(r.FormValue("s"))
	b.SetQualifiers(listParam(r, "qualifiers"))
	b.SetRecentlyBrowsedKeys(listParam(r, "recentlyBrowsed"))
	b.SetFavoriteKeys(listParam(r, "favorites"))
	if v := r.FormValue("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeStatusError(w, status.Errorf(codes.InvalidArgument, "'%s' is not a valid integer", v))
			return
		}
		_ = b.SetLimit(n)
	}
	q, err := b.Build()
	if err != nil {
		writeStatusError(w, err)
		return
	}

	components, err := s.SuggestComponents(r.Context(), SessionFrom(r.Context()), q)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"components": components})
}

// SessionMiddleware resolves the bearer token of each request into a
// Session. GET /api/health is always served, even with a bad token.
func (s *ProjectServer) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := s.sessions.resolve(r.Context(), r.Header.Get("Authorization"))
		if errors.Is(err, errInvalidToken) {
			writeError(w, http.StatusUnauthorized, "Invalid authentication token")
			return
		}
		if err != nil {
			slog.Error("failed to resolve session", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve session")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// requiredParam returns the non-empty value of a form parameter.
func requiredParam(r *http.Request, name string) (string, error) {
	v := r.FormValue(name)
	if v == "" {
		return "", missingParam(name)
	}
	return v, nil
}

// visibilityParam parses a public/private form parameter.
func visibilityParam(r *http.Request, name string, required bool) (*model.Visibility, error) {
	return parseVisibilityParam(name, r.FormValue(name), required)
}

// parseVisibilityParam parses a public/private parameter value. It returns
// nil when the parameter is optional and absent.
func parseVisibilityParam(name, v string, required bool) (*model.Visibility, error) {
	if v == "" {
		if required {
			return nil, missingParam(name)
		}
		return nil, nil
	}
	vis, err := model.ParseVisibility(v)
	if err != nil {
		values := make([]string, len(model.Visibilities))
		for i, p := range model.Visibilities {
			values[i] = p.String()
		}
		return nil, status.Errorf(codes.InvalidArgument, "Value of parameter '%s' (%s) must be one of: [%s]", name, v, strings.Join(values, ", "))
	}
	return &vis, nil
}

// listParam splits a comma-separated parameter, dropping blank entries.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, part := range strings.Split(r.FormValue(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type errorMessage struct {
	Msg string `json:"msg"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string][]errorMessage{"errors": {{Msg: message}}})
}

// writeStatusError writes err using the HTTP status matching its gRPC code.
// Internal details are logged, not returned.
func writeStatusError(w http.ResponseWriter, err error) {
	st := toStatus(err)
	code := httpStatus(st.Code())
	msg := st.Message()
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "An error has occurred"
	}
	writeError(w, code, msg)
}
