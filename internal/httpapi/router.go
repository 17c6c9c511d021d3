// Package httpapi is the thin HTTP surface over the storefront services.
// Handlers translate requests and map errors; no business rules live here.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/cart"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/catalog"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/checkout"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/config"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/order"
)

type Server struct {
	cfg      *config.Config
	cart     *cart.Service
	catalog  *catalog.Service
	checkout *checkout.Service
	orders   *order.Service
}

func NewServer(cfg *config.Config, cartSvc *cart.Service, cat *catalog.Service, co *checkout.Service, orders *order.Service) *Server {
	return &Server{
		cfg:      cfg,
		cart:     cartSvc,
		catalog:  cat,
		checkout: co,
		orders:   orders,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/cart/{userID}", func(r chi.Router) {
		r.Get("/", s.handleGetCart)
		r.Post("/items", s.handleAddItem)
		r.Post("/items/{itemID}/increase", s.handleIncrementItem)
		r.Post("/items/{itemID}/decrease", s.handleDecrementItem)
		r.Put("/items/{itemID}", s.handleSetQuantity)
		r.Delete("/items/{itemID}", s.handleRemoveItem)
	})

	r.Route("/checkout/{userID}", func(r chi.Router) {
		r.Post("/", s.handleBeginCheckout)
		r.Post("/input", s.handleCheckoutInput)
		r.Post("/delivery", s.handleSelectDelivery)
		r.Post("/payment", s.handleSelectPayment)
		r.Delete("/", s.handleCancelCheckout)
	})

	r.Get("/users/{userID}/orders", s.handleListOrders)

	r.Get("/categories", s.handleCategories)
	r.Get("/products", s.handleListProducts)
	r.Get("/products/{productID}", s.handleGetProduct)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/orders/dashboard", s.handleDashboard)
		r.Get("/orders/{orderID}", s.handleGetOrder)
		r.Post("/orders/{orderID}/confirm-payment", s.handleConfirmPayment)
		r.Post("/orders/{orderID}/payment-received", s.handlePaymentReceived)
		r.Post("/orders/{orderID}/process", s.handleMarkProcessing)
		r.Post("/orders/{orderID}/ship", s.handleShip)
		r.Post("/orders/{orderID}/deliver", s.handleMarkDelivered)
		r.Post("/orders/{orderID}/cancel", s.handleCancelOrder)
		r.Post("/products", s.handleCreateProduct)
		r.Put("/products/{productID}", s.handleUpdateProduct)
		r.Delete("/products/{productID}", s.handleDeleteProduct)
	})

	return r
}
