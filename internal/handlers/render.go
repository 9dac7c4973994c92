package handlers

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/egme/khlav-kalash/ui/templates"
)

var pageTemplates = mustParsePages(
	"new.html",
	"pay.html",
	"receipt.html",
	"admin_orders.html",
	"admin_show.html",
	"admin_edit.html",
	"not_found.html",
)

func mustParsePages(pages ...string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		parsed[page] = template.Must(
			template.New("layout.html").ParseFS(templates.FS, "layout.html", page),
		)
	}
	return parsed
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := pageTemplates[page]
	if !ok {
		h.loggerFromContext(r.Context()).Error("unknown template", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to render template", "page", page, "error", err)
	}
}

func (h *Handlers) renderNotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found.html", struct{ Notice string }{})
}

// NotFound handles requests to unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderNotFound(w, r)
}

func (h *Handlers) renderServiceUnavailable(w http.ResponseWriter, correlationID string) {
	http.Error(w, fmt.Sprintf("Error retrieving payment info %s", correlationID), http.StatusServiceUnavailable)
}
