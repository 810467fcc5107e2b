// Package carts exposes the cart pool, deliveries and equipment over HTTP
// and streams tick snapshots over a websocket.
package carts

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/factorysim/core/cartstatus"
	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/engine"
	"github.com/kilianp07/factorysim/core/equipment"
	"github.com/kilianp07/factorysim/core/logger"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// Controller runs commands against the simulation. *engine.Runner
// satisfies it.
type Controller interface {
	Snapshot(ctx context.Context) (engine.Snapshot, error)
	Exec(ctx context.Context, fn func(*engine.Engine) error) error
	DeployCart(ctx context.Context) (model.Delivery, error)
	DeployAllCarts(ctx context.Context) (int, error)
	RecallAllCarts(ctx context.Context) (int, error)
	SendGridCommand(ctx context.Context, cmd dispatch.GridCommand) error
	ResetCarts(ctx context.Context) error
	SetProduction(ctx context.Context, on bool) (bool, error)
	ResetProduction(ctx context.Context) error
}

// Options carries the optional collaborators of the server.
type Options struct {
	Status    cartstatus.Store
	Snapshots *eventbus.TypedBus[engine.Snapshot]
	// Journal is mounted on /api/journal when set.
	Journal http.Handler
	// GridSize is the number of grid cells per axis used by view
	// conversions.
	GridSize float64
	// StreamEvery sends one websocket frame every n snapshots.
	StreamEvery int
	Log         logger.Logger
}

// Server holds the handler dependencies.
type Server struct {
	ctl   Controller
	equip *equipment.Monitor
	opts  Options
	log   logger.Logger

	upgrader websocket.Upgrader
}

// NewServer builds the API server.
func NewServer(ctl Controller, equip *equipment.Monitor, opts Options) *Server {
	if opts.GridSize <= 1 {
		opts.GridSize = 1001
	}
	if opts.StreamEvery <= 0 {
		opts.StreamEvery = 1
	}
	return &Server{
		ctl:   ctl,
		equip: equip,
		opts:  opts,
		log:   logger.OrNop(opts.Log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Router returns the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/carts", s.handleCarts)
		r.Get("/carts/status", s.handleCartStatus)
		r.Post("/carts/deploy", s.handleDeploy)
		r.Post("/carts/deploy-all", s.handleDeployAll)
		r.Post("/carts/recall", s.handleRecall)
		r.Post("/carts/reset", s.handleReset)
		r.Get("/carts/{id}", s.handleCart)
		r.Post("/carts/{id}/command", s.handleCommand)

		r.Get("/deliveries", s.handleDeliveries)
		r.Get("/deliveries/active", s.handleActive)

		r.Get("/equipment", s.handleEquipment)
		r.Get("/workshops", s.handleWorkshops)
		r.Get("/production", s.handleProduction)
		r.Post("/production/{action}", s.handleProductionAction)

		r.Get("/stream", s.handleStream)

		if s.opts.Journal != nil {
			r.Method(http.MethodGet, "/journal", s.opts.Journal)
		}
	})
	return r
}
