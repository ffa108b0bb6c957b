package rest

import (
	"net/http"

	"github.com/ElHadji11/farmconnect-backend/internal/adapter/rest/middleware"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires all API routes. Static path segments are registered
// before parameterized ones, so /posts/favorites is never captured by
// /posts/{postID}.
func NewRouter(posts *PostHandler, users *UserHandler, auth *middleware.Authenticator, appLogger *logger.Logger, mm *metrics.MetricsManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Observe(appLogger, mm))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", posts.List)
			r.Get("/search", posts.Search)
			r.Get("/homepage", posts.Homepage)
			r.Get("/user/{companyName}", posts.ByCompany)
			r.Get("/{postID}", posts.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require)
				r.Post("/", posts.Create)
				r.Get("/favorites", posts.ListFavorites)
				r.Put("/{postID}", posts.Update)
				r.Delete("/{postID}", posts.Delete)
				r.Put("/{postID}/archive", posts.Archive)
				r.Post("/{postID}/reviews", posts.AddReview)
				r.Post("/{postID}/favorites", posts.AddFavorite)
				r.Delete("/{postID}/favorites", posts.RemoveFavorite)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/profile/{userID}", users.PublicProfile)
			r.Get("/seller/{userID}/posts", users.SellerPosts)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require)
				r.Get("/", users.Me)
				r.Post("/sync", users.Sync)
				r.Put("/profile", users.UpdateProfile)
				r.Post("/become-seller", users.BecomeSeller)
			})
		})
	})

	return r
}
