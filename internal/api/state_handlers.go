// Handlers for inspecting and pruning resumable download state.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/tome-go/internal/models"
)

type downloadStateSummary struct {
	*models.DownloadState
	Progress float64 `json:"progress"`
}

func (s *Server) handleListDownloadStates(w http.ResponseWriter, r *http.Request) {
	states, err := s.app.StateStore().List()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list download states")
		return
	}

	summaries := make([]downloadStateSummary, 0, len(states))
	for _, st := range states {
		summaries = append(summaries, downloadStateSummary{
			DownloadState: st,
			Progress:      s.app.StateStore().Progress(st.BookID),
		})
	}
	RespondWithJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleDeleteDownloadState(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	if err := s.app.StateStore().Delete(bookID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete download state")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
