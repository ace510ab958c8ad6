package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrKriegler/go-policy-admin/internal/core"
	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

type QuoteHandler struct {
	Quotes   core.QuoteService
	Policies core.PolicyService
	Log      *slog.Logger
}

func NewQuoteHandler(quotes core.QuoteService, policies core.PolicyService, log *slog.Logger) *QuoteHandler {
	return &QuoteHandler{Quotes: quotes, Policies: policies, Log: log}
}

func (h *QuoteHandler) Mount(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{quote_id}", h.Get)
		r.Post("/{quote_id}", h.Confirm)
	})
}

// Create stores a quote.
// 200: envelope with quote; 400: malformed JSON or validation error.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in policyapi.QuoteRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		h.Log.WarnContext(r.Context(), "invalid quote body", "err", err)
		policyapi.WriteFailure(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	q, err := h.Quotes.Create(r.Context(), in)
	if err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}
	writeOK(r.Context(), h.Log, w, q, "")
}

// Get returns a stored quote.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "quote_id"))
	if !ok {
		policyapi.WriteFailure(w, http.StatusBadRequest, "Invalid quote id")
		return
	}

	q, err := h.Quotes.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}
	writeOK(r.Context(), h.Log, w, core.QuoteToModel(q), "")
}

// Confirm handles POST /quotes/{id}:confirm and issues a policy from the quote.
// 200: envelope with the created policy; 400: quote missing or eligibility failure.
func (h *QuoteHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	rawID, verb, found := strings.Cut(chi.URLParam(r, "quote_id"), ":")
	if !found || verb != "confirm" {
		policyapi.WriteFailure(w, http.StatusNotFound, "Unknown action")
		return
	}
	id, ok := parseID(rawID)
	if !ok {
		policyapi.WriteFailure(w, http.StatusBadRequest, "Invalid quote id")
		return
	}

	q, err := h.Quotes.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}

	policy, err := h.Policies.CreateFromQuote(r.Context(), q)
	if err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}
	h.Log.InfoContext(r.Context(), "policy created from quote", "quote_id", id, "policy_id", policy.ID)
	writeOK(r.Context(), h.Log, w, policy, "")
}
