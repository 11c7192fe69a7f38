package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"critiverse/api"
	"critiverse/services/accounts"
	"critiverse/services/catalog"
	"critiverse/services/favorites"
	"critiverse/services/metadata"
	"critiverse/services/reviews"
	"critiverse/services/scheduler"
	"critiverse/services/sessions"
)

// Deps bundles the services the HTTP surface is built from.
type Deps struct {
	Accounts  *accounts.Service
	Sessions  *sessions.Service
	Catalog   *catalog.Service
	Reviews   *reviews.Service
	Favorites *favorites.Service
	Metadata  *metadata.Service
	Scheduler *scheduler.Service
}

// RegisterRoutes mounts every API endpoint on the router. Public routes
// (login, signup, catalog browsing, metadata resolution) sit outside the
// auth middleware; reviews, favorites, and profile routes require a session;
// management routes additionally require an admin account.
func RegisterRoutes(r *mux.Router, deps Deps) {
	authHandler := NewAuthHandler(deps.Accounts, deps.Sessions)
	accountsHandler := NewAccountsHandler(deps.Accounts, deps.Sessions)
	catalogHandler := NewCatalogHandler(deps.Catalog)
	reviewsHandler := NewReviewsHandler(deps.Reviews, deps.Accounts)
	favoritesHandler := NewFavoritesHandler(deps.Favorites)
	metadataHandler := NewMetadataHandler(deps.Metadata)
	versionHandler := NewVersionHandler()

	// Credential endpoints share one per-IP throttle.
	loginLimiter := api.NewLoginLimiter()

	apiRouter := r.PathPrefix("/api").Subrouter()

	// Public auth endpoints
	apiRouter.HandleFunc("/auth/login", loginLimiter.Throttle(authHandler.Login)).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/signup", loginLimiter.Throttle(authHandler.Signup)).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/password", authHandler.ChangePassword).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/profile", authHandler.UpdateProfile).Methods(http.MethodPut, http.MethodOptions)

	apiRouter.HandleFunc("/version", versionHandler.GetVersion).Methods(http.MethodGet)

	// Public browsing
	apiRouter.HandleFunc("/catalog", catalogHandler.List).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/catalog/{id:[0-9]+}", catalogHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/catalog/{id:[0-9]+}/reviews", reviewsHandler.List).Methods(http.MethodGet, http.MethodOptions)

	apiRouter.HandleFunc("/metadata/trailer", metadataHandler.Trailer).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/providers", metadataHandler.Providers).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/series-stats", metadataHandler.SeriesStats).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/feeds/{name}", metadataHandler.Feed).Methods(http.MethodGet, http.MethodOptions)

	// Authenticated endpoints
	authed := apiRouter.NewRoute().Subrouter()
	authed.Use(api.AccountAuthMiddleware(deps.Sessions))
	authed.HandleFunc("/catalog/{id:[0-9]+}/reviews", reviewsHandler.Submit).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/reviews/{reviewID}", reviewsHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)
	authed.HandleFunc("/favorites", favoritesHandler.List).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/favorites/{id:[0-9]+}/toggle", favoritesHandler.Toggle).Methods(http.MethodPost, http.MethodOptions)

	// Admin endpoints
	admin := apiRouter.NewRoute().Subrouter()
	admin.Use(api.AccountAuthMiddleware(deps.Sessions), api.AdminOnlyMiddleware())
	admin.HandleFunc("/catalog", catalogHandler.Create).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/catalog/{id:[0-9]+}", catalogHandler.Update).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/catalog/{id:[0-9]+}", catalogHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/accounts", accountsHandler.List).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/accounts", accountsHandler.Create).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/accounts/{accountID}", accountsHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/accounts/{accountID}", accountsHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/accounts/{accountID}/password", accountsHandler.ResetPassword).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/metadata/cache", metadataHandler.ClearCache).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/metadata/feeds/refresh", metadataHandler.RefreshFeeds).Methods(http.MethodPost, http.MethodOptions)

	if deps.Scheduler != nil {
		adminHandler := NewAdminHandler(deps.Scheduler)
		admin.HandleFunc("/admin/tasks", adminHandler.Tasks).Methods(http.MethodGet, http.MethodOptions)
		admin.HandleFunc("/admin/tasks/{name}/run", adminHandler.RunTask).Methods(http.MethodPost, http.MethodOptions)
	}
}
