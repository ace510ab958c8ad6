package handlers

import "github.com/go-chi/chi/v5"

// Mountable is a feature that registers its own routes on the root router.
type Mountable interface {
	Mount(r chi.Router)
}

var (
	_ Mountable = (*PolicyHandler)(nil)
	_ Mountable = (*QuoteHandler)(nil)
)
