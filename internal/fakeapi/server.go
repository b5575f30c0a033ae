// Package fakeapi is an in-memory stand-in for the document backend, used
// by tests across the client packages.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const signingKey = "fakeapi-secret"

// Route names, as used by FailNext and Calls.
const (
	RouteLogin    = "POST /auth/token"
	RouteRegister = "POST /auth/register"
	RouteList     = "GET /documents/"
	RouteCreate   = "POST /documents/"
	RouteGet      = "GET /documents/{id}"
	RouteUpdate   = "PUT /documents/{id}"
	RouteDelete   = "DELETE /documents/{id}"
	RouteAssist   = "POST /documents/{id}/assist"
)

type Document struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	OwnerID   int    `json:"owner_id"`
}

type AssistRequest struct {
	CurrentText string `json:"current_text"`
	UserPrompt  string `json:"user_prompt"`
}

type failure struct {
	status int
	detail string
}

type user struct {
	id       int
	password string
}

type Server struct {
	*httptest.Server
	Prefix string

	mu          sync.Mutex
	users       map[string]user
	tokens      map[string]string
	docs        []Document
	contents    map[int]string
	nextID      int
	failures    map[string]failure
	calls       map[string]int
	headers     map[string]http.Header
	assistReply string
	lastAssist  AssistRequest
}

// New starts a fake backend mounted under prefix ("" for bare paths). It is
// closed when the test ends.
func New(t testing.TB, prefix string) *Server {
	s := &Server{
		Prefix:      prefix,
		users:       make(map[string]user),
		tokens:      make(map[string]string),
		contents:    make(map[int]string),
		failures:    make(map[string]failure),
		calls:       make(map[string]int),
		headers:     make(map[string]http.Header),
		nextID:      1,
		assistReply: "Generated text.",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/auth/token", s.route(RouteLogin, false, s.login))
	mux.HandleFunc("POST "+prefix+"/auth/register", s.route(RouteRegister, false, s.register))
	mux.HandleFunc("GET "+prefix+"/documents/{$}", s.route(RouteList, true, s.list))
	mux.HandleFunc("POST "+prefix+"/documents/{$}", s.route(RouteCreate, true, s.create))
	mux.HandleFunc("GET "+prefix+"/documents/{id}", s.route(RouteGet, true, s.get))
	mux.HandleFunc("PUT "+prefix+"/documents/{id}", s.route(RouteUpdate, true, s.update))
	mux.HandleFunc("DELETE "+prefix+"/documents/{id}", s.route(RouteDelete, true, s.remove))
	mux.HandleFunc("POST "+prefix+"/documents/{id}/assist", s.route(RouteAssist, true, s.assist))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{id: len(s.users) + 1, password: password}
}

// IssueToken returns a valid bearer token for email, registering the user
// if needed.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; !ok {
		s.users[email] = user{id: len(s.users) + 1, password: "secret"}
	}
	return s.issueLocked(email)
}

// RevokeAll invalidates every issued token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	s.tokens = make(map[string]string)
	s.mu.Unlock()
}

// AddDocument stores a document owned by email.
func (s *Server) AddDocument(email, title, content string) Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(s.users[email].id, title, content)
}

func (s *Server) Content(id int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contents[id]
}

func (s *Server) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Document(nil), s.docs...)
}

// SetAssistReply changes the text the assist endpoint generates.
func (s *Server) SetAssistReply(text string) {
	s.mu.Lock()
	s.assistReply = text
	s.mu.Unlock()
}

func (s *Server) LastAssist() AssistRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAssist
}

// FailNext makes the next call to route answer with status and detail.
func (s *Server) FailNext(route string, status int, detail string) {
	s.mu.Lock()
	s.failures[route] = failure{status: status, detail: detail}
	s.mu.Unlock()
}

// Calls counts requests received for route, including rejected ones.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls counts every request received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// LastHeaders returns the headers of the latest request to route.
func (s *Server) LastHeaders(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[route]
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, userID int)

func (s *Server) route(name string, needsAuth bool, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[name]++
		s.headers[name] = r.Header.Clone()
		f, failing := s.failures[name]
		delete(s.failures, name)
		s.mu.Unlock()

		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}

		userID := 0
		if needsAuth {
			tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			s.mu.Lock()
			email, ok := s.tokens[tok]
			userID = s.users[email].id
			s.mu.Unlock()
			if tok == "" || !ok {
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
		}
		h(w, r, userID)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ int) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	u, ok := s.users[email]
	var tok string
	if ok && u.password == password {
		tok = s.issueLocked(email)
	}
	s.mu.Unlock()

	if tok == "" {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": tok, "token_type": "bearer"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, _ int) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []any{"body", "email"}, "msg": "Field required"}},
		})
		return
	}

	s.mu.Lock()
	_, exists := s.users[req.Email]
	id := len(s.users) + 1
	if !exists {
		s.users[req.Email] = user{id: id, password: req.Password}
	}
	s.mu.Unlock()

	if exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "email": req.Email})
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request, userID int) {
	s.mu.Lock()
	out := []Document{}
	for _, d := range s.docs {
		if d.OwnerID == userID {
			out = append(out, d)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, userID int) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []any{"body", "title"}, "msg": "Field required"}},
		})
		return
	}
	s.mu.Lock()
	doc := s.addLocked(userID, req.Title, "")
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(r, userID)
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, s.contents[s.docs[idx].ID])
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, userID int) {
	var req struct {
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(r, userID)
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Document not found")
		return
	}
	s.contents[s.docs[idx].ID] = *req.Content
	s.docs[idx].UpdatedAt = now()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(r, userID)
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Document not found")
		return
	}
	delete(s.contents, s.docs[idx].ID)
	s.docs = append(s.docs[:idx], s.docs[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assist(w http.ResponseWriter, r *http.Request, userID int) {
	var req AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}

	s.mu.Lock()
	idx := s.findLocked(r, userID)
	s.lastAssist = req
	reply := s.assistReply
	s.mu.Unlock()

	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) issueLocked(email string) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(30 * time.Minute).Unix(),
		// Distinguishes tokens issued within the same second.
		"jti": strconv.Itoa(len(s.tokens) + 1),
	}).SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	s.tokens[tok] = email
	return tok
}

func (s *Server) addLocked(ownerID int, title, content string) Document {
	ts := now()
	doc := Document{ID: s.nextID, Title: title, CreatedAt: ts, UpdatedAt: ts, OwnerID: ownerID}
	s.nextID++
	s.docs = append(s.docs, doc)
	s.contents[doc.ID] = content
	return doc
}

func (s *Server) findLocked(r *http.Request, userID int) int {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return -1
	}
	for i, d := range s.docs {
		if d.ID == id && d.OwnerID == userID {
			return i
		}
	}
	return -1
}

func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
