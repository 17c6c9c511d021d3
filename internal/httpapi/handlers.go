package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/cart"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/catalog"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/checkout"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	snapshot, err := s.cart.Snapshot(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		ProductID string  `json:"product_id"`
		Quantity  float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.cart.AddItem(r.Context(), userID, body.ProductID, body.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleIncrementItem(w http.ResponseWriter, r *http.Request) {
	s.adjustItem(w, r, s.cart.IncrementItem)
}

func (s *Server) handleDecrementItem(w http.ResponseWriter, r *http.Request) {
	s.adjustItem(w, r, s.cart.DecrementItem)
}

func (s *Server) adjustItem(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID int64, itemID string) error) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), userID, chi.URLParam(r, "itemID")); err != nil {
		writeError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, "quantity updated")
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var body struct {
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.cart.SetItemQuantity(r.Context(), userID, itemID, body.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, "quantity updated")
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := s.cart.RemoveItem(r.Context(), userID, chi.URLParam(r, "itemID")); err != nil {
		writeError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, "item removed")
}

func (s *Server) handleBeginCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	session, err := s.checkout.Begin(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(session))
}

func (s *Server) handleCheckoutInput(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.checkout.SubmitText(r.Context(), userID, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

func (s *Server) handleSelectDelivery(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.checkout.SelectDelivery(r.Context(), userID, body.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

func (s *Server) handleSelectPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := s.checkout.SelectPayment(r.Context(), userID, body.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleCancelCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := s.checkout.Cancel(userID); err != nil {
		writeError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, "checkout cancelled, cart preserved")
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	orders, err := s.orders.ListByUser(r.Context(), userID, s.cfg.OrderListLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.CategoriesWithCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// handleListProducts serves the browse and search surfaces: ?search= wins
// over ?category=, and no parameters at all lists the whole catalog.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)
	if query := r.URL.Query().Get("search"); query != "" {
		products, err = s.catalog.SearchByName(r.Context(), query)
	} else {
		products, err = s.catalog.ListByCategory(r.Context(), r.URL.Query().Get("category"))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeError(w http.ResponseWriter, err error) {
	var insufficient *cart.InsufficientQuantityError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"message":   insufficient.Error(),
			"required":  insufficient.Required,
			"shortfall": insufficient.Shortfall(),
		})
	case errors.Is(err, cart.ErrQuantityTooLow),
		errors.Is(err, catalog.ErrNoTiers),
		errors.Is(err, catalog.ErrDuplicateTier),
		errors.Is(err, catalog.ErrEmptyUpdate),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidSelection),
		errors.Is(err, checkout.ErrUnexpectedInput),
		errors.Is(err, repository.ErrInvalidReference):
		writeStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrNoSession),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		writeStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrStaleWrite):
		writeStatus(w, http.StatusConflict, "please retry, the cart changed underneath you")
	default:
		writeStatus(w, http.StatusInternalServerError, "internal error")
	}
}
