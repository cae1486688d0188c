package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/knoweval/internal/config"
	"github.com/ziadkadry99/knoweval/internal/knowledge"
	"github.com/ziadkadry99/knoweval/internal/session"
)

// CookieName holds the browser's session ID.
const CookieName = "knoweval_session"

// Options configures a Dashboard.
type Options struct {
	Sessions     *session.Manager
	Store        *knowledge.Store
	Provider     config.ProviderType
	Models       []config.Model
	DefaultModel string
	// IdleTimeout ends browser sessions unused for this long. Zero keeps
	// them until the process exits.
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

// Dashboard serves the browser UI and its JSON API.
type Dashboard struct {
	sessions     *session.Manager
	store        *knowledge.Store
	provider     config.ProviderType
	models       []config.Model
	defaultModel string
	idle         time.Duration
	renderer     *Renderer
	log          *zap.Logger
}

// New creates a new Dashboard.
func New(opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultModel := opts.DefaultModel
	if defaultModel == "" && len(opts.Models) > 0 {
		defaultModel = opts.Models[0].ID
	}
	return &Dashboard{
		sessions:     opts.Sessions,
		store:        opts.Store,
		provider:     opts.Provider,
		models:       opts.Models,
		defaultModel: defaultModel,
		idle:         opts.IdleTimeout,
		renderer:     NewRenderer(),
		log:          logger.Named("dashboard"),
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)

	r.Route("/api/notes", func(r chi.Router) {
		r.Get("/", d.handleListNotes)
		r.Post("/", d.handleCreateNote)
		r.Get("/{name}", d.handleGetNote)
		r.Put("/{name}", d.handleSaveNote)
		r.Delete("/{name}", d.handleDeleteNote)
		r.Post("/{name}/evaluate", d.handleEvaluate)
		r.Get("/{name}/evaluations", d.handleListEvaluations)
		r.Get("/{name}/evaluations/{record}", d.handleGetEvaluation)
	})

	r.Get("/api/options", d.handleOptions)
	r.Get("/api/session", d.handleGetSession)
	r.Delete("/api/session", d.handleEndSession)
	r.Get("/ws/evaluate", d.handleWebSocket)
}

// session returns the caller's session, starting one (and setting the
// cookie) when the request carries none or an expired one.
func (d *Dashboard) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	s, created := d.sessions.GetOrCreate(id)
	if created {
		if d.idle > 0 {
			if n := d.sessions.EndIdle(d.idle); n > 0 {
				d.log.Debug("ended idle sessions", zap.Int("count", n))
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}
