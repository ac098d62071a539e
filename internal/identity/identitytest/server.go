// Package identitytest runs an in-process stand-in for the identity provider
// so client and service tests can exercise real HTTP round trips.
package identitytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Admin credentials every test server accepts on the master realm.
const (
	AdminUsername = "idp-admin"
	AdminPassword = "idp-admin-password"
)

type account struct {
	ID           string
	Username     string
	Email        string
	passwordHash []byte
	roles        map[string]bool
}

// Server is a fake Keycloak-shaped provider backed by an httptest server.
type Server struct {
	Realm  string
	Secret string

	mu       sync.Mutex
	accounts map[string]*account
	httpSrv  *httptest.Server
}

// NewServer starts the fake provider. Callers own Close.
func NewServer(realm, secret string) *Server {
	s := &Server{
		Realm:    realm,
		Secret:   secret,
		accounts: make(map[string]*account),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/{realm}/protocol/openid-connect/token", s.handleToken)
	mux.HandleFunc("GET /realms/{realm}/protocol/openid-connect/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /admin/realms/{realm}/users", s.withAdmin(s.handleListUsers))
	mux.HandleFunc("POST /admin/realms/{realm}/users", s.withAdmin(s.handleCreateUser))
	mux.HandleFunc("DELETE /admin/realms/{realm}/users/{id}", s.withAdmin(s.handleDeleteUser))
	mux.HandleFunc("GET /admin/realms/{realm}/users/{id}/role-mappings/realm", s.withAdmin(s.handleGetRoles))
	mux.HandleFunc("POST /admin/realms/{realm}/users/{id}/role-mappings/realm", s.withAdmin(s.handleMapRoles(true)))
	mux.HandleFunc("DELETE /admin/realms/{realm}/users/{id}/role-mappings/realm", s.withAdmin(s.handleMapRoles(false)))
	mux.HandleFunc("GET /admin/realms/{realm}/roles/{name}", s.withAdmin(s.handleGetRole))

	s.httpSrv = httptest.NewServer(mux)
	return s
}

// URL is the provider base URL.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close shuts the fake provider down.
func (s *Server) Close() { s.httpSrv.Close() }

// AddUser seeds an account and returns its generated ID.
func (s *Server) AddUser(username, password string, roles ...string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	a := &account{
		ID:           uuid.NewString(),
		Username:     username,
		passwordHash: hash,
		roles:        make(map[string]bool),
	}
	for _, r := range roles {
		a.roles[r] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a.ID
}

// SignToken issues an access token the way the fake token endpoint would.
func (s *Server) SignToken(userID, username string, roles ...string) string {
	return s.signToken(userID, username, roles)
}

func (s *Server) signToken(userID, username string, roles []string) string {
	claims := jwt.MapClaims{
		"sub":                userID,
		"preferred_username": username,
		"realm_access":       map[string]any{"roles": roles},
		"exp":                time.Now().Add(5 * time.Minute).Unix(),
		"iat":                time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) findByUsername(username string) *account {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Username, username) {
			return a
		}
	}
	return nil
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	if r.PathValue("realm") == "master" {
		if username != AdminUsername || password != AdminPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": s.signToken(uuid.NewString(), username, []string{"admin"}),
			"token_type":   "Bearer",
			"expires_in":   300,
		})
		return
	}

	s.mu.Lock()
	a := s.findByUsername(username)
	s.mu.Unlock()

	if a == nil || bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid user credentials",
		})
		return
	}

	roles := make([]string, 0, len(a.roles))
	for role := range a.roles {
		roles = append(roles, role)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  s.signToken(a.ID, a.Username, roles),
		"refresh_token": uuid.NewString(),
		"token_type":    "Bearer",
		"expires_in":    300,
	})
}

// withAdmin rejects admin API calls that carry no bearer token. The fake does
// not re-verify the token itself.
func (s *Server) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "HTTP 401 Unauthorized"})
			return
		}
		next(w, r)
	}
}

type userRepresentation struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter := r.URL.Query().Get("username")
	users := make([]userRepresentation, 0, len(s.accounts))
	for _, a := range s.accounts {
		if filter != "" && !strings.EqualFold(a.Username, filter) {
			continue
		}
		users = append(users, userRepresentation{ID: a.ID, Username: a.Username})
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Credentials []struct {
			Value string `json:"value"`
		} `json:"credentials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || len(body.Credentials) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"errorMessage": "invalid representation"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		sameName := strings.EqualFold(a.Username, body.Username)
		sameMail := body.Email != "" && strings.EqualFold(a.Email, body.Email)
		if sameName || sameMail {
			writeJSON(w, http.StatusConflict, map[string]string{"errorMessage": "User exists with same username or email"})
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Credentials[0].Value), bcrypt.MinCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"errorMessage": err.Error()})
		return
	}

	a := &account{
		ID:           uuid.NewString(),
		Username:     strings.ToLower(body.Username),
		Email:        body.Email,
		passwordHash: hash,
		roles:        make(map[string]bool),
	}
	s.accounts[a.ID] = a

	w.Header().Set("Location", s.httpSrv.URL+"/admin/realms/"+s.Realm+"/users/"+a.ID)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	if _, ok := s.accounts[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	delete(s.accounts, id)
	w.WriteHeader(http.StatusNoContent)
}

type roleRepresentation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleGetRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	reps := make([]roleRepresentation, 0, len(a.roles))
	for role := range a.roles {
		reps = append(reps, roleRepresentation{ID: roleID(role), Name: role})
	}
	writeJSON(w, http.StatusOK, reps)
}

func (s *Server) handleMapRoles(grant bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reps []roleRepresentation
		if err := json.NewDecoder(r.Body).Decode(&reps); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role list"})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		a, ok := s.accounts[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		for _, rep := range reps {
			if grant {
				a.roles[rep.Name] = true
			} else {
				delete(a.roles, rep.Name)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	writeJSON(w, http.StatusOK, roleRepresentation{ID: roleID(name), Name: name})
}

// roleID derives a stable fake ID so repeated lookups agree.
func roleID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("realm-role:"+name)).String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
