// Package api assembles the HTTP surface.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/maheshrc27/postpilot/internal/api/handlers"
	"github.com/maheshrc27/postpilot/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	ApiKeys  *handlers.ApiKeyHandler
	Brands   *handlers.BrandHandler
	Accounts *handlers.PlatformHandler
	Media    *handlers.MediaHandler
	Posts    *handlers.PostHandler
	Sweep    *handlers.SweepHandler
}

func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if h.Auth != nil {
		app.Get("/login", h.Auth.Login)
		app.Get("/login/callback", h.Auth.LoginCallbackHandler)
		app.Post("/logout", h.Auth.Logout)
	}

	app.Post("/internal/sweep", h.Sweep.Trigger)

	api := app.Group("/api")
	api.Use(auth.AuthMiddleware())

	api.Get("/user/info", h.User.GetAccount)

	api.Post("/api_keys", h.ApiKeys.CreateApiKey)
	api.Get("/api_keys", h.ApiKeys.ListKeys)
	api.Delete("/api_keys/:id", h.ApiKeys.RemoveAPIKey)

	api.Post("/brands", h.Brands.CreateBrand)
	api.Get("/brands", h.Brands.ListBrands)
	api.Get("/brands/:id", h.Brands.GetBrand)
	api.Put("/brands/:id", h.Brands.UpdateBrand)
	api.Delete("/brands/:id", h.Brands.RemoveBrand)

	// social accounts
	api.Post("/brands/:id/accounts", h.Accounts.ConnectAccount)
	api.Get("/brands/:id/accounts", h.Accounts.ListSocialAccounts)
	api.Post("/accounts/:id/activate", h.Accounts.ActivateAccount)
	api.Post("/accounts/:id/deactivate", h.Accounts.DeactivateAccount)
	api.Delete("/accounts/:id", h.Accounts.DeleteSocialAccount)

	api.Post("/media", h.Media.Upload)
	api.Get("/media/:id", h.Media.GetMedia)
	api.Post("/captions/generate", h.Media.GenerateCaption)

	api.Post("/posts", h.Posts.CreateDraft)
	api.Get("/posts", h.Posts.ListPosts)
	api.Get("/posts/:id", h.Posts.GetPost)
	api.Patch("/posts/:id", h.Posts.EditPost)
	api.Delete("/posts/:id", h.Posts.RemovePost)
	api.Post("/posts/:id/schedule", h.Posts.Schedule)
	api.Post("/posts/:id/post-now", h.Posts.PostNow)
	api.Post("/posts/:id/retry", h.Posts.Retry)
	api.Post("/posts/:id/reconcile", h.Posts.Reconcile)
	api.Get("/posts/:id/history", h.Posts.History)
}
