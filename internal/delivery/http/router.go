package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"socio/internal/delivery/http/controllers"
	"socio/internal/delivery/http/middleware"
	"socio/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Read endpoints are public; every mutation goes through RequireAuth.
func NewRouter(
	eventController *controllers.EventController,
	festController *controllers.FestController,
	registrationController *controllers.RegistrationController,
	authController *controllers.AuthController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Events
	mux.HandleFunc("POST /api/events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /api/events", eventController.ListEvents)
	mux.HandleFunc("GET /api/events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("PUT /api/events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /api/events/{eventID}", auth(eventController.DeleteEvent))
	mux.HandleFunc("POST /api/events/{eventID}/close", auth(eventController.CloseRegistration))

	// Registrations
	mux.HandleFunc("POST /api/events/{eventID}/register", auth(registrationController.Register))
	mux.HandleFunc("GET /api/events/{eventID}/registrations", auth(registrationController.ListRegistrations))

	// Fests
	mux.HandleFunc("POST /api/fests", auth(festController.CreateFest))
	mux.HandleFunc("GET /api/fests", festController.ListFests)
	mux.HandleFunc("GET /api/fests/{festID}", festController.GetFest)
	mux.HandleFunc("PUT /api/fests/{festID}", auth(festController.UpdateFest))
	mux.HandleFunc("DELETE /api/fests/{festID}", auth(festController.DeleteFest))

	// Auth
	mux.HandleFunc("POST /api/auth/signup", authController.SignUp)
	mux.HandleFunc("POST /api/auth/login", authController.Login)
	mux.HandleFunc("GET /api/auth/me", auth(authController.Me))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
