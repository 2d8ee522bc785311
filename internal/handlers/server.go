// Package handlers serves the HTML pages and the JSON API.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tiered-events/app/internal/events"
	"github.com/tiered-events/app/internal/icons"
	"github.com/tiered-events/app/internal/identity"
)

// cardImageSize is the placeholder size used on event cards.
const cardImageSize = 300

// Server holds what the handlers need.
type Server struct {
	events    *events.Service
	icons     icons.Selector
	health    func(context.Context) error
	signInURL string
	signUpURL string
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck sets the probe used by /healthz.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

// WithAuthURLs sets where the welcome page sends visitors to sign in or
// sign up with the identity provider.
func WithAuthURLs(signIn, signUp string) Option {
	return func(s *Server) {
		if signIn != "" {
			s.signInURL = signIn
		}
		if signUp != "" {
			s.signUpURL = signUp
		}
	}
}

// NewServer creates a Server.
func NewServer(svc *events.Service, selector icons.Selector, opts ...Option) *Server {
	s := &Server{
		events:    svc,
		icons:     selector,
		health:    func(context.Context) error { return nil },
		signInURL: "/sign-in",
		signUpURL: "/sign-up",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table. verifier resolves the caller on every
// matched route and requests under protected need one.
func (s *Server) Router(verifier *identity.Verifier, protected []string) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)
	r.Use(verifier.Resolve, identity.Protect(protected))

	r.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))))

	r.HandleFunc("/", s.WelcomePage).Methods(http.MethodGet)
	r.HandleFunc("/events", s.EventsPage).Methods(http.MethodGet)
	r.HandleFunc("/events/rsvp", s.SubmitRSVPForm).Methods(http.MethodPost)
	r.HandleFunc("/profile", s.ProfilePage).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/events", s.ListEventsAPI).Methods(http.MethodGet)
	api.HandleFunc("/events/rsvp", s.SubmitRSVP).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", s.GetEventAPI).Methods(http.MethodGet)
	api.HandleFunc("/me/responses", s.MyResponsesAPI).Methods(http.MethodGet)

	return r
}

// Health reports whether the store is reachable.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprint(w, "OK")
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}
	RenderErrorPage(w, r, http.StatusNotFound, "Page Not Found", "The page you are looking for does not exist.")
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	RenderErrorPage(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", "This method is not supported for "+r.URL.Path+".")
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
