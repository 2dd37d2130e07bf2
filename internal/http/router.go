package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"sceneforge/internal/http/handlers"
	"sceneforge/internal/middleware"
)

// Options configures the middleware stack.
type Options struct {
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.RateLimit(opts.RateLimitPerMin),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Post("/uploads", app.UploadImage)
		r.Get("/scenes", app.ListScenes)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", app.SubmitJob)
			r.Get("/", app.ListJobs)
			r.Get("/{id}/status", app.JobStatus)
			r.Get("/{id}/result", app.JobResult)
			r.Get("/{id}/images/archive", app.ArchiveImages)
			r.Get("/{id}/images/{imageId}/download", app.DownloadImage)
			r.Delete("/{id}", app.DeleteJob)
			r.Put("/{id}/restore", app.RestoreJob)
		})
		r.Get("/trash", app.ListTrash)

		r.Route("/favorites", func(r chi.Router) {
			r.Post("/", app.AddFavorite)
			r.Get("/", app.ListFavorites)
			r.Delete("/{jobId}", app.RemoveFavorite)
		})
	})

	return r
}
