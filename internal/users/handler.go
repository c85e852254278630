package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/Ayooluwabami/Blogging-API/internal/auth"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/metrics"
	"github.com/Ayooluwabami/Blogging-API/internal/validation"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=users_test

const (
	MsgUserCreated        = "User created successfully"
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid email or password"
	MsgAccessGranted      = "Access granted!"
)

type userService interface {
	Signup(ctx context.Context, req SignupRequest) (*User, error)
	Signin(ctx context.Context, req SigninRequest) (string, error)
}

type protectedRouteResponse struct {
	Message string       `json:"message"`
	User    *auth.Claims `json:"user"`
}

type Handler struct {
	service userService
	metrics *metrics.Manager
}

func NewHandler(service userService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

// SetupRoutes registers the users routes. rateLimit wraps the credential
// routes, authGate the protected ones.
func (handler *Handler) SetupRoutes(router *mux.Router, authGate, rateLimit mux.MiddlewareFunc) {
	router.Handle("/api/users/signup", rateLimit(http.HandlerFunc(handler.handleSignup))).Methods("POST").Name("signup")
	router.Handle("/api/users/signin", rateLimit(http.HandlerFunc(handler.handleSignin))).Methods("POST").Name("signin")
	router.Handle("/api/users/protected-route", authGate(http.HandlerFunc(handler.handleProtectedRoute))).Methods("GET").Name("protected-route")
}

func (handler *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := validation.DecodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, "signup", err)
		return
	}

	user, err := handler.service.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			pkg.WriteMessage(w, MsgUserExists, http.StatusBadRequest)
			return
		}
		log.Errorf("signup failed: %s", err)
		pkg.WriteInternalServerError(w)
		return
	}

	handler.metrics.CounterSignups.Inc()
	log.Debugf("new user signed up: %s", user.ID)

	pkg.WriteMessage(w, MsgUserCreated, http.StatusCreated)
}

func (handler *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := validation.DecodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, "signin", err)
		return
	}

	token, err := handler.service.Signin(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			handler.metrics.CounterSignins.WithLabelValues("invalid").Inc()
			pkg.WriteMessage(w, MsgInvalidCredentials, http.StatusUnauthorized)
			return
		}
		handler.metrics.CounterSignins.WithLabelValues("error").Inc()
		log.Errorf("signin failed: %s", err)
		pkg.WriteInternalServerError(w)
		return
	}

	handler.metrics.CounterSignins.WithLabelValues("ok").Inc()
	pkg.WriteJSONResponseOK(w, SigninResponse{Token: token})
}

func (handler *Handler) handleProtectedRoute(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		// route registered without the auth gate
		log.Errorf("protected route: no claims in request context")
		pkg.WriteInternalServerError(w)
		return
	}

	pkg.WriteJSONResponseOK(w, protectedRouteResponse{
		Message: MsgAccessGranted,
		User:    claims,
	})
}

func writeRequestError(w http.ResponseWriter, op string, err error) {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		pkg.WriteMessage(w, validationErr.Message, http.StatusBadRequest)
		return
	}
	log.Errorf("%s: read request: %s", op, err)
	pkg.WriteInternalServerError(w)
}
