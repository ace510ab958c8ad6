package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrKriegler/go-policy-admin/internal/core"
	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

type PolicyHandler struct {
	Svc core.PolicyService
	Log *slog.Logger
}

func NewPolicyHandler(svc core.PolicyService, log *slog.Logger) *PolicyHandler {
	return &PolicyHandler{Svc: svc, Log: log}
}

// Mount registers GET /policies/{id} and the POST /policies/{id}:renew and
// /policies/{id}:cancel actions. Actions share the id segment, so the verb is
// split off in Action.
func (h *PolicyHandler) Mount(r chi.Router) {
	r.Route("/policies", func(r chi.Router) {
		r.Get("/{policy_id}", h.Get)
		r.Post("/{policy_id}", h.Action)
	})
}

// Get returns a policy with property, holders, payments and refunds.
// 200: envelope with policy; 400: invalid id or not found; 401: not associated.
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "policy_id"))
	if !ok {
		policyapi.WriteFailure(w, http.StatusBadRequest, "Invalid policy id")
		return
	}
	if err := authorize(r, h.Svc, id); err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}

	policy, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}
	writeOK(r.Context(), h.Log, w, policy, "")
}

func (h *PolicyHandler) Action(w http.ResponseWriter, r *http.Request) {
	rawID, verb, found := strings.Cut(chi.URLParam(r, "policy_id"), ":")
	if !found {
		policyapi.WriteFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id, ok := parseID(rawID)
	if !ok {
		policyapi.WriteFailure(w, http.StatusBadRequest, "Invalid policy id")
		return
	}

	switch verb {
	case "renew":
		h.renew(w, r, id)
	case "cancel":
		h.cancel(w, r, id)
	default:
		policyapi.WriteFailure(w, http.StatusNotFound, "Unknown action")
	}
}

// renew issues the follow-on policy.
// 200: envelope with renewal result; 400: lifecycle failure; 401: not associated.
func (h *PolicyHandler) renew(w http.ResponseWriter, r *http.Request, id int64) {
	if err := authorize(r, h.Svc, id); err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}

	res, err := h.Svc.Renew(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}
	h.Log.InfoContext(r.Context(), "policy renewed", "policy_id", id, "new_policy_id", res.PolicyID)
	writeOK(r.Context(), h.Log, w, res, "")
}

// cancel marks the policy cancelled and raises the refund.
// 200: envelope with refund; 400: lifecycle failure; 401: not associated.
func (h *PolicyHandler) cancel(w http.ResponseWriter, r *http.Request, id int64) {
	if err := authorize(r, h.Svc, id); err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}

	res, err := h.Svc.Cancel(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err)
		return
	}
	h.Log.InfoContext(r.Context(), "policy cancelled", "policy_id", id, "refund", res.RefundAmount.String())
	writeOK(r.Context(), h.Log, w, res, core.CancelSuccessMessage)
}
