// A handler file for all download-queue API endpoints.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/tome-go/internal/downloader"
)

// BookQueuePayload is the expected structure for queuing a book.
type BookQueuePayload struct {
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
	ProviderID string `json:"provider_id"`
	Merge      bool   `json:"merge"`
}

func (s *Server) handleAddBookToQueue(w http.ResponseWriter, r *http.Request) {
	var payload BookQueuePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if payload.Title == "" || payload.Identifier == "" || payload.ProviderID == "" {
		RespondWithError(w, http.StatusBadRequest, "title, identifier and provider_id are required")
		return
	}

	if err := s.store.AddBookToQueue(payload.Title, payload.Identifier, payload.ProviderID, payload.Merge); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to add book to download queue")
		return
	}

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": fmt.Sprintf("'%s' has been added to the download queue.", payload.Title),
	})
}

func (s *Server) handleGetDownloadQueue(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.GetDownloadQueue()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve download queue")
		return
	}
	RespondWithJSON(w, http.StatusOK, items)
}

func (s *Server) handleQueueAction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	switch payload.Action {
	case "pause_all":
		downloader.PauseDownloads()
		s.store.PauseAllQueueItems()
	case "resume_all":
		downloader.ResumeDownloads()
		s.store.ResumeAllQueueItems()
	case "retry_failed":
		s.store.ResetFailedQueueItems()
	case "delete_completed":
		s.store.DeleteCompletedQueueItems()
	case "empty":
		s.store.EmptyQueue()
	default:
		RespondWithError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleQueueItemAction(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var payload struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	switch payload.Action {
	case "pause":
		err = downloader.PauseQueueItem(s.app, s.store, itemID)
	case "resume":
		err = downloader.ResumeQueueItem(s.app, s.store, itemID)
	case "retry":
		err = s.store.RetryQueueItem(itemID)
	case "delete":
		err = s.store.DeleteQueueItem(itemID)
	default:
		RespondWithError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
