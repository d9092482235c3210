package routes

import (
	"github.com/julienschmidt/httprouter"

	"tripbite/auth"
	"tripbite/middleware"
	"tripbite/plans"
	"tripbite/ratelim"
)

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rateLimiter.Limit(h.Register))
	router.POST("/api/auth/login", rateLimiter.Limit(h.Login))
	router.POST("/api/auth/token", rateLimiter.Limit(h.RefreshToken))
	router.POST("/api/auth/logout", rateLimiter.Limit(h.Logout))
}

// AddPlanRoutes registers the plan API. Routes that call the search
// providers go through rateLimiter.
func AddPlanRoutes(router *httprouter.Router, h *plans.Handler, authn *middleware.Authenticator, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/plans", authn.Authenticate(rateLimiter.Limit(h.CreatePlan)))
	router.POST("/api/preview", rateLimiter.Limit(authn.OptionalAuth(h.PreviewPlan)))
	router.GET("/api/plans", authn.Authenticate(h.ListPlans))
	router.GET("/api/plans/:id", authn.OptionalAuth(h.GetPlan))
	router.DELETE("/api/plans/:id", authn.Authenticate(h.DeletePlan))
	router.POST("/api/plans/:id/suggestion", authn.Authenticate(rateLimiter.Limit(h.NewSuggestion)))
	router.GET("/api/plans/:id/pdf", authn.OptionalAuth(h.ExportPDF))
}
