package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/egme/khlav-kalash/internal/db"
	"github.com/egme/khlav-kalash/internal/models"
	"github.com/egme/khlav-kalash/internal/services"
	"github.com/egme/khlav-kalash/internal/stripe"
)

type orderFormData struct {
	Order  *models.Order
	Errors []string
	Notice string
	Price  string
}

type payPageData struct {
	Order              *models.Order
	Price              string
	Notice             string
	StripePublicKey    string
	IntentClientSecret string
	BillingDetailsJSON template.JS
}

type receiptPageData struct {
	Order  *models.Order
	Price  string
	Notice string
}

func orderInputFromForm(r *http.Request) services.CreateOrderInput {
	return services.CreateOrderInput{
		FirstName:    r.FormValue("first_name"),
		LastName:     r.FormValue("last_name"),
		EmailAddress: r.FormValue("email_address"),
		StreetLine1:  r.FormValue("street_line_1"),
		StreetLine2:  r.FormValue("street_line_2"),
		PostalCode:   r.FormValue("postal_code"),
		City:         r.FormValue("city"),
		Region:       r.FormValue("region"),
		Country:      r.FormValue("country"),
	}
}

func orderFromInput(in services.CreateOrderInput) *models.Order {
	return &models.Order{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		EmailAddress: in.EmailAddress,
		StreetLine1:  in.StreetLine1,
		StreetLine2:  in.StreetLine2,
		PostalCode:   in.PostalCode,
		City:         in.City,
		Region:       in.Region,
		Country:      in.Country,
	}
}

// NewOrderForm renders the public order form.
func (h *Handlers) NewOrderForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "new.html", orderFormData{
		Order:  &models.Order{},
		Notice: popFlash(w, r),
		Price:  h.orders.Price().Format(),
	})
}

// CreateOrder handles the public order submission. Validation and provider
// failures re-render the form with the entered values preserved; success
// redirects to the pay page.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	input := orderInputFromForm(r)
	order, err := h.orders.Create(r.Context(), input)
	if err != nil {
		var verrs *models.ValidationErrors
		if errors.As(err, &verrs) {
			h.render(w, r, http.StatusOK, "new.html", orderFormData{
				Order:  orderFromInput(input),
				Errors: verrs.Messages(),
				Price:  h.orders.Price().Format(),
			})
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to create order", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	setFlash(w, "Order was successfully created.")
	http.Redirect(w, r, "/pay/"+order.Permalink, http.StatusSeeOther)
}

// Pay renders the payment page, or redirects to the receipt when the
// provider already reports the intent as succeeded.
func (h *Handlers) Pay(w http.ResponseWriter, r *http.Request) {
	permalink := mux.Vars(r)["permalink"]

	view, err := h.orders.PayView(r.Context(), permalink)
	if err != nil {
		h.handlePaymentFlowError(w, r, err)
		return
	}

	if view.Paid {
		setFlash(w, "Order was successfully paid.")
		http.Redirect(w, r, "/order/"+view.Order.Permalink, http.StatusSeeOther)
		return
	}

	billingDetails, err := json.Marshal(view.Order.BillingDetails())
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode billing details", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, http.StatusOK, "pay.html", payPageData{
		Order:              view.Order,
		Price:              h.orders.Price().Format(),
		Notice:             popFlash(w, r),
		StripePublicKey:    h.config.StripePublicKey,
		IntentClientSecret: view.Intent.ClientSecret,
		BillingDetailsJSON: template.JS(billingDetails),
	})
}

// Permalink reconciles the order's paid state and renders the receipt, or
// redirects back to the pay page when the payment has not gone through yet.
func (h *Handlers) Permalink(w http.ResponseWriter, r *http.Request) {
	permalink := mux.Vars(r)["permalink"]

	order, paid, err := h.orders.Reconcile(r.Context(), permalink)
	if err != nil {
		h.handlePaymentFlowError(w, r, err)
		return
	}

	if !paid {
		setFlash(w, "Order is not paid yet.")
		http.Redirect(w, r, "/pay/"+order.Permalink, http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, "receipt.html", receiptPageData{
		Order:  order,
		Price:  h.orders.Price().Format(),
		Notice: popFlash(w, r),
	})
}

func (h *Handlers) handlePaymentFlowError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, db.ErrNotFound) {
		h.renderNotFound(w, r)
		return
	}

	var apiErr *stripe.APIError
	if errors.As(err, &apiErr) {
		h.renderServiceUnavailable(w, apiErr.CorrelationID)
		return
	}

	h.loggerFromContext(r.Context()).Error("payment flow failed", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
