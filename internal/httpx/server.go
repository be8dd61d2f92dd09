package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"storefront/internal/agents"
	"storefront/internal/catalog"
	"storefront/internal/identity"
	"storefront/internal/orders"
)

// Publisher is the slice of the kafka producer the handlers use.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Deps struct {
	Auth       *identity.Service
	Products   *catalog.Repo
	Cart       CartStore
	Orders     *orders.Service
	OrderStore orders.Store
	Agents     *agents.Service
	Redis      *redis.Client

	PlacedProducer    Publisher
	StatusProducer    Publisher
	CancelledProducer Publisher

	ServiceName string
}

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// New wires every handler onto one router. Catalog reads are public;
// everything else sits behind the bearer-token middleware.
func New(d Deps) *chi.Mux {
	r := NewRouter()

	ah := &AuthHandler{Svc: d.Auth}
	ph := &ProductsHandler{Repo: d.Products}
	ch := &CartHandler{Repo: d.Cart}
	oh := &OrdersHandler{
		Svc:               d.Orders,
		Store:             d.OrderStore,
		Redis:             d.Redis,
		PlacedProducer:    d.PlacedProducer,
		StatusProducer:    d.StatusProducer,
		CancelledProducer: d.CancelledProducer,
		Service:           d.ServiceName,
	}
	gh := &AgentsHandler{Svc: d.Agents, Orders: d.OrderStore, Catalog: d.Products}

	r.Post("/auth/register", ah.register)
	r.Post("/auth/login", ah.login)

	r.Get("/products", ph.list)
	r.Get("/products/categories", ph.categories)
	r.Get("/products/{id}", ph.get)

	r.Group(func(r chi.Router) {
		r.Use(identity.Authenticator(d.Auth))

		r.Get("/auth/me", ah.me)

		r.Post("/products", ph.create)
		r.Put("/products/{id}", ph.update)
		r.Delete("/products/{id}", ph.delete)

		r.Get("/cart", ch.list)
		r.Post("/cart", ch.add)
		r.Delete("/cart", ch.clear)
		r.Put("/cart/{itemID}", ch.update)
		r.Delete("/cart/{itemID}", ch.remove)

		oh.Register(r)
		gh.Register(r)
	})

	return r
}
