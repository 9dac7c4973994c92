package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/egme/khlav-kalash/internal/db"
	"github.com/egme/khlav-kalash/internal/models"
)

type adminOrdersData struct {
	Orders []*models.Order
	Notice string
}

type adminOrderData struct {
	Order  *models.Order
	Errors []string
	Notice string
	Price  string
}

// AdminOrders lists all orders.
func (h *Handlers) AdminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list orders", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, http.StatusOK, "admin_orders.html", adminOrdersData{
		Orders: orders,
		Notice: popFlash(w, r),
	})
}

// AdminShowOrder shows a single order.
func (h *Handlers) AdminShowOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrderByID(w, r)
	if !ok {
		return
	}

	h.render(w, r, http.StatusOK, "admin_show.html", adminOrderData{
		Order:  order,
		Notice: popFlash(w, r),
		Price:  h.orders.Price().Format(),
	})
}

// AdminEditOrder renders the edit form.
func (h *Handlers) AdminEditOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrderByID(w, r)
	if !ok {
		return
	}

	h.render(w, r, http.StatusOK, "admin_edit.html", adminOrderData{
		Order: order,
	})
}

// AdminUpdateOrder updates the billing fields of an order. HTML forms only
// submit POST, so a _method=delete override routes to delete.
func (h *Handlers) AdminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if strings.EqualFold(r.FormValue("_method"), "delete") {
		h.AdminDeleteOrder(w, r)
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	input := orderInputFromForm(r)
	order, err := h.orders.Update(r.Context(), id, input)
	if err != nil {
		var verrs *models.ValidationErrors
		if errors.As(err, &verrs) {
			invalid := orderFromInput(input)
			invalid.ID = id
			h.render(w, r, http.StatusOK, "admin_edit.html", adminOrderData{
				Order:  invalid,
				Errors: verrs.Messages(),
			})
			return
		}
		if errors.Is(err, db.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to update order", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	setFlash(w, "Order was successfully updated.")
	http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
}

// AdminDeleteOrder destroys an order and returns to the list.
func (h *Handlers) AdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.orders.Delete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to delete order", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	setFlash(w, "Order was successfully destroyed.")
	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

func (h *Handlers) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.renderNotFound(w, r)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) loadOrderByID(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	id, ok := h.orderID(w, r)
	if !ok {
		return nil, false
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.renderNotFound(w, r)
			return nil, false
		}
		h.loggerFromContext(r.Context()).Error("failed to load order", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return order, true
}
