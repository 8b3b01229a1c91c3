// Package fakeapi is an in-process stand-in for the routine API used by
// tests. It speaks the same cookie + XSRF session protocol.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"routinectl/internal/platform/httpapi"
)

const (
	sessionCookie = "laravel_session"
	xsrfCookie    = "XSRF-TOKEN"
	xsrfRaw       = "tok%3Dfake"
	xsrfDecoded   = "tok=fake"
)

type User struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Plan                string  `json:"plan"`
	IsAdmin             bool    `json:"is_admin"`
	TutorialDismissedAt *string `json:"tutorial_dismissed_at"`
	TutorialShouldShow  bool    `json:"tutorial_should_show"`
}

type Settings map[string]any

type Routine struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

type History struct {
	ID         int64    `json:"id"`
	RoutineID  int64    `json:"routine_id"`
	Title      string   `json:"title"`
	Tasks      []string `json:"tasks"`
	StartedAt  *string  `json:"started_at"`
	FinishedAt *string  `json:"finished_at"`
	Completed  bool     `json:"completed"`
}

type account struct {
	password string
	user     User
	settings Settings
}

type override struct {
	status int
	body   string
}

// Server records every call by route name so tests can assert on network
// traffic. Route names: csrf, login, register, logout, me, settings,
// tutorial, account, forgot, reset, routines.list, routines.create,
// routines.get, routines.update, routines.delete, routines.start,
// histories.list, histories.get, histories.complete, histories.abort.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	accounts  map[string]*account
	sessions  map[string]string
	routines  map[int64]*Routine
	histories map[int64]*History
	nextID    int64
	calls     map[string]int
	overrides map[string]override
	holds     map[string]chan struct{}
	now       func() time.Time
}

func New() *Server {
	s := &Server{
		accounts:  map[string]*account{},
		sessions:  map[string]string{},
		routines:  map[int64]*Routine{},
		histories: map[int64]*History{},
		nextID:    100,
		calls:     map[string]int{},
		overrides: map[string]override{},
		holds:     map[string]chan struct{}{},
		now:       time.Now,
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// ─── Test controls ───────────────────────────────────────────────────────

// NewClient returns a request helper bound to the server with its own jar.
func (s *Server) NewClient() (*httpapi.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return httpapi.New(s.URL, jar)
}

func (s *Server) AddUser(email, password string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password)
}

func (s *Server) addUserLocked(email, password string) User {
	s.nextID++
	u := User{ID: s.nextID, Name: email, Email: email, Plan: "free", TutorialShouldShow: true}
	s.accounts[email] = &account{password: password, user: u, settings: defaultSettings()}
	return u
}

func (s *Server) AddRoutine(title string, tasks ...string) Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r := &Routine{ID: s.nextID, Title: title, Tasks: append([]string(nil), tasks...)}
	s.routines[r.ID] = r
	return *r
}

func (s *Server) AddHistory(h History) History {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == 0 {
		s.nextID++
		h.ID = s.nextID
	}
	s.histories[h.ID] = &h
	return h
}

func (s *Server) Routine(id int64) (Routine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routines[id]
	if !ok {
		return Routine{}, false
	}
	return *r, true
}

func (s *Server) History(id int64) (History, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[id]
	if !ok {
		return History{}, false
	}
	return *h, true
}

func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Fail makes the named route answer with status and body until Restore.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[route] = override{status: status, body: body}
}

func (s *Server) Restore(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, route)
}

// Hold blocks the named route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// ─── Routing ─────────────────────────────────────────────────────────────

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.track)

	r.HandleFunc("/sanctum/csrf-cookie", s.csrf).Methods(http.MethodGet).Name("csrf")
	r.HandleFunc("/login", s.xsrf(s.login)).Methods(http.MethodPost).Name("login")
	r.HandleFunc("/register", s.xsrf(s.register)).Methods(http.MethodPost).Name("register")
	r.HandleFunc("/logout", s.xsrf(s.logout)).Methods(http.MethodPost).Name("logout")
	r.HandleFunc("/forgot-password", s.xsrf(s.forgot)).Methods(http.MethodPost).Name("forgot")
	r.HandleFunc("/reset-password", s.xsrf(s.reset)).Methods(http.MethodPost).Name("reset")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/me", s.authed(s.me)).Methods(http.MethodGet).Name("me")
	api.HandleFunc("/settings", s.xsrf(s.authed(s.updateSettings))).Methods(http.MethodPatch).Name("settings")
	api.HandleFunc("/tutorial/dismiss", s.xsrf(s.authed(s.dismissTutorial))).Methods(http.MethodPost).Name("tutorial")
	api.HandleFunc("/account", s.xsrf(s.authed(s.deleteAccount))).Methods(http.MethodDelete).Name("account")

	api.HandleFunc("/routines", s.authed(s.listRoutines)).Methods(http.MethodGet).Name("routines.list")
	api.HandleFunc("/routines", s.xsrf(s.authed(s.createRoutine))).Methods(http.MethodPost).Name("routines.create")
	api.HandleFunc("/routines/{id:[0-9]+}", s.authed(s.getRoutine)).Methods(http.MethodGet).Name("routines.get")
	api.HandleFunc("/routines/{id:[0-9]+}", s.xsrf(s.authed(s.updateRoutine))).Methods(http.MethodPatch).Name("routines.update")
	api.HandleFunc("/routines/{id:[0-9]+}", s.xsrf(s.authed(s.deleteRoutine))).Methods(http.MethodDelete).Name("routines.delete")
	api.HandleFunc("/routines/{id:[0-9]+}/start", s.xsrf(s.authed(s.startRoutine))).Methods(http.MethodPost).Name("routines.start")

	api.HandleFunc("/histories", s.authed(s.listHistories)).Methods(http.MethodGet).Name("histories.list")
	api.HandleFunc("/histories/{id:[0-9]+}", s.authed(s.getHistory)).Methods(http.MethodGet).Name("histories.get")
	api.HandleFunc("/histories/{id:[0-9]+}/complete", s.xsrf(s.authed(s.finishHistory(true)))).Methods(http.MethodPost).Name("histories.complete")
	api.HandleFunc("/histories/{id:[0-9]+}/abort", s.xsrf(s.authed(s.finishHistory(false)))).Methods(http.MethodPost).Name("histories.abort")
	return r
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		s.mu.Lock()
		s.calls[name]++
		hold := s.holds[name]
		o, failing := s.overrides[name]
		s.mu.Unlock()

		if hold != nil {
			<-hold
		}
		if failing {
			writeRaw(w, o.status, o.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) xsrf(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-XSRF-TOKEN") != xsrfDecoded {
			writeJSON(w, 419, map[string]string{"message": "CSRF token mismatch."})
			return
		}
		next(w, r)
	}
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc := s.currentAccount(r)
		if acc == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			return
		}
		next(w, r, acc)
	}
}

func (s *Server) currentAccount(r *http.Request) *account {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[c.Value]
	if !ok {
		return nil
	}
	return s.accounts[email]
}

// ─── Auth handlers ───────────────────────────────────────────────────────

func (s *Server) csrf(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: xsrfCookie, Value: xsrfRaw, Path: "/"})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	acc, ok := s.accounts[in.Email]
	valid := ok && acc.password == in.Password
	s.mu.Unlock()
	if !valid {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid credentials"})
		return
	}
	s.startSession(w, in.Email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	errs := map[string][]string{}
	if in.Email == "" {
		errs["email"] = []string{"The email field is required."}
	}
	if in.Password != in.PasswordConfirmation {
		errs["password"] = []string{"The password field confirmation does not match."}
	}
	s.mu.Lock()
	if _, taken := s.accounts[in.Email]; taken && in.Email != "" {
		errs["email"] = []string{"The email has already been taken."}
	}
	if len(errs) == 0 {
		s.addUserLocked(in.Email, in.Password)
	}
	s.mu.Unlock()
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "The given data was invalid.", "errors": errs})
		return
	}
	s.startSession(w, in.Email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startSession(w http.ResponseWriter, email string) {
	s.mu.Lock()
	s.nextID++
	token := "sess-" + strconv.FormatInt(s.nextID, 10)
	s.sessions[token] = email
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) forgot(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Email == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": map[string][]string{"email": {"The email field is required."}}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "We have emailed your password reset link."})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token                string `json:"token"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	acc, ok := s.accounts[in.Email]
	valid := ok && in.Token == "reset-token" && in.Password == in.PasswordConfirmation
	if valid {
		acc.password = in.Password
	}
	s.mu.Unlock()
	if !valid {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "This password reset token is invalid."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Your password has been reset."})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, acc *account) {
	s.mu.Lock()
	payload := map[string]any{"data": map[string]any{"user": acc.user, "settings": acc.settings}}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request, acc *account) {
	patch := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "invalid payload"})
		return
	}
	s.mu.Lock()
	for k, v := range patch {
		acc.settings[k] = v
	}
	out := Settings{}
	for k, v := range acc.settings {
		out[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) dismissTutorial(w http.ResponseWriter, _ *http.Request, acc *account) {
	s.mu.Lock()
	at := s.now().UTC().Format(time.RFC3339)
	acc.user.TutorialDismissedAt = &at
	acc.user.TutorialShouldShow = false
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"tutorial_dismissed_at": at}})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request, acc *account) {
	var in struct {
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Password != "" && in.Password != acc.password {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"password":["The password is incorrect."]}}`))
		return
	}
	delete(s.accounts, acc.user.Email)
	for token, email := range s.sessions {
		if email == acc.user.Email {
			delete(s.sessions, token)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Routine handlers ────────────────────────────────────────────────────

type routineInput struct {
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

func (in routineInput) validate() map[string][]string {
	errs := map[string][]string{}
	if in.Title == "" {
		errs["title"] = []string{"The title field is required."}
	}
	if len(in.Tasks) == 0 {
		errs["tasks"] = []string{"The tasks field is required."}
	}
	return errs
}

func (s *Server) listRoutines(w http.ResponseWriter, _ *http.Request, _ *account) {
	s.mu.Lock()
	out := make([]Routine, 0, len(s.routines))
	for id := int64(0); id <= s.nextID; id++ {
		if r, ok := s.routines[id]; ok {
			out = append(out, *r)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) createRoutine(w http.ResponseWriter, r *http.Request, _ *account) {
	in := routineInput{}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if errs := in.validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "The given data was invalid.", "errors": errs})
		return
	}
	created := s.AddRoutine(in.Title, in.Tasks...)
	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}

func (s *Server) getRoutine(w http.ResponseWriter, r *http.Request, _ *account) {
	routine, ok := s.Routine(pathID(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": routine})
}

func (s *Server) updateRoutine(w http.ResponseWriter, r *http.Request, _ *account) {
	in := routineInput{}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if errs := in.validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "The given data was invalid.", "errors": errs})
		return
	}
	id := pathID(r)
	s.mu.Lock()
	existing, ok := s.routines[id]
	if ok {
		existing.Title = in.Title
		existing.Tasks = append([]string(nil), in.Tasks...)
	}
	var out Routine
	if ok {
		out = *existing
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) deleteRoutine(w http.ResponseWriter, r *http.Request, _ *account) {
	id := pathID(r)
	s.mu.Lock()
	_, ok := s.routines[id]
	delete(s.routines, id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) startRoutine(w http.ResponseWriter, r *http.Request, _ *account) {
	id := pathID(r)
	s.mu.Lock()
	routine, ok := s.routines[id]
	var h History
	if ok {
		s.nextID++
		started := s.now().UTC().Format(time.RFC3339)
		h = History{ID: s.nextID, RoutineID: id, Title: routine.Title, Tasks: append([]string(nil), routine.Tasks...), StartedAt: &started}
		s.histories[h.ID] = &h
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": h.ID, "started_at": h.StartedAt}})
}

// ─── History handlers ────────────────────────────────────────────────────

func (s *Server) listHistories(w http.ResponseWriter, r *http.Request, _ *account) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	s.mu.Lock()
	all := make([]History, 0, len(s.histories))
	for id := s.nextID; id >= 0; id-- {
		if h, ok := s.histories[id]; ok {
			all = append(all, *h)
		}
	}
	s.mu.Unlock()

	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	meta := map[string]any{"next_page_url": nil, "prev_page_url": nil, "current_page": page}
	if end < len(all) {
		meta["next_page_url"] = fmt.Sprintf("%s/api/histories?page=%d&per_page=%d", s.URL, page+1, perPage)
	}
	if page > 1 {
		meta["prev_page_url"] = fmt.Sprintf("%s/api/histories?page=%d&per_page=%d", s.URL, page-1, perPage)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": all[start:end], "meta": meta})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request, _ *account) {
	h, ok := s.History(pathID(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": h})
}

func (s *Server) finishHistory(completed bool) func(http.ResponseWriter, *http.Request, *account) {
	return func(w http.ResponseWriter, r *http.Request, _ *account) {
		id := pathID(r)
		s.mu.Lock()
		h, ok := s.histories[id]
		var out History
		if ok {
			finished := s.now().UTC().Format(time.RFC3339)
			h.FinishedAt = &finished
			h.Completed = completed
			out = *h
		}
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────

func defaultSettings() Settings {
	return Settings{
		"theme":                      "light",
		"dark_mode":                  "system",
		"show_remaining_tasks":       false,
		"show_elapsed_time":          false,
		"enable_task_estimated_time": false,
		"show_celebration":           false,
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	if json.Valid([]byte(body)) {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
