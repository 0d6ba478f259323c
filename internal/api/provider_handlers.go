// Handlers for the provider endpoints: listing, searching and fetching
// book details.

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/tome-go/internal/downloader/providers"
)

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, providers.GetAll())
}

func (s *Server) handleProviderSearch(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	query := r.URL.Query().Get("q")

	provider, ok := providers.Get(providerID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Provider not found")
		return
	}

	results, err := provider.Search(query)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to perform search")
		return
	}

	RespondWithJSON(w, http.StatusOK, results)
}

func (s *Server) handleProviderGetBook(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	// The book identifier might contain special characters so it needs to be decoded.
	bookIdentifier, _ := url.PathUnescape(chi.URLParam(r, "bookIdentifier"))

	provider, ok := providers.Get(providerID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Provider not found")
		return
	}

	meta, chapters, err := provider.GetBook(bookIdentifier)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to get book details")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"metadata": meta,
		"chapters": chapters,
	})
}
