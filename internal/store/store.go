// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vrsandeep/tome-go/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const queueColumns = "id, book_title, book_identifier, provider_id, status, progress, message, merge, created_at"

func scanQueueItem(row interface{ Scan(...any) error }) (*models.DownloadQueueItem, error) {
	var item models.DownloadQueueItem
	var msg sql.NullString
	err := row.Scan(&item.ID, &item.BookTitle, &item.BookIdentifier, &item.ProviderID,
		&item.Status, &item.Progress, &msg, &item.Merge, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Message = msg.String
	return &item, nil
}

// AddBookToQueue queues one book for acquisition. Re-queuing the same
// book from the same provider is ignored.
func (s *Store) AddBookToQueue(bookTitle, bookIdentifier, providerID string, merge bool) error {
	_, err := s.db.Exec(`
        INSERT OR IGNORE INTO download_queue
        (book_title, book_identifier, provider_id, merge, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, bookTitle, bookIdentifier, providerID, merge, time.Now())
	return err
}

// GetDownloadQueue returns every queue item, newest first.
func (s *Store) GetDownloadQueue() ([]*models.DownloadQueueItem, error) {
	rows, err := s.db.Query("SELECT " + queueColumns + " FROM download_queue ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.DownloadQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetQueuedDownloadItems retrieves a limited number of items with a 'queued' status.
func (s *Store) GetQueuedDownloadItems(limit int) ([]*models.DownloadQueueItem, error) {
	rows, err := s.db.Query("SELECT "+queueColumns+" FROM download_queue WHERE status = 'queued' ORDER BY created_at ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.DownloadQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetDownloadQueueItem retrieves a single item from the download queue by ID.
func (s *Store) GetDownloadQueueItem(id int64) (*models.DownloadQueueItem, error) {
	return scanQueueItem(s.db.QueryRow("SELECT "+queueColumns+" FROM download_queue WHERE id = ?", id))
}

// UpdateQueueItemStatus changes an item's status and message. Completed
// items also get their completion timestamp stamped.
func (s *Store) UpdateQueueItemStatus(id int64, status, message string) error {
	if status == "completed" {
		_, err := s.db.Exec("UPDATE download_queue SET status = ?, message = ?, completed_at = ? WHERE id = ?",
			status, message, time.Now(), id)
		return err
	}
	_, err := s.db.Exec("UPDATE download_queue SET status = ?, message = ? WHERE id = ?", status, message, id)
	return err
}

// UpdateQueueItemProgress changes an item's progress percentage.
func (s *Store) UpdateQueueItemProgress(id int64, progress int) error {
	_, err := s.db.Exec("UPDATE download_queue SET progress = ? WHERE id = ?", progress, id)
	return err
}

// ResetInProgressQueueItems sets items from 'in_progress' back to 'queued' on startup.
// Per-chapter progress survives in the resume state store, so a restart
// only re-queues the book, it does not restart the download from scratch.
func (s *Store) ResetInProgressQueueItems() error {
	_, err := s.db.Exec("UPDATE download_queue SET status = 'queued', message = 'Re-queued after restart' WHERE status = 'in_progress'")
	return err
}

// PauseAllQueueItems sets all items in 'in_progress' or 'queued' to 'paused'.
func (s *Store) PauseAllQueueItems() error {
	_, err := s.db.Exec("UPDATE download_queue SET status = 'paused', message = 'Paused by user' WHERE status = 'in_progress' OR status = 'queued'")
	return err
}

// ResumeAllQueueItems sets all items in 'paused' back to 'queued'.
func (s *Store) ResumeAllQueueItems() error {
	_, err := s.db.Exec("UPDATE download_queue SET status = 'queued', message = 'Resumed by user' WHERE status = 'paused'")
	return err
}

// ResetFailedQueueItems sets items from 'failed' back to 'queued' to be retried.
func (s *Store) ResetFailedQueueItems() error {
	_, err := s.db.Exec("UPDATE download_queue SET status = 'queued', message = 'Re-queued by user' WHERE status = 'failed'")
	return err
}

// DeleteCompletedQueueItems removes successfully completed items from the queue.
func (s *Store) DeleteCompletedQueueItems() error {
	_, err := s.db.Exec("DELETE FROM download_queue WHERE status = 'completed'")
	return err
}

// DeleteCompletedOlderThan removes completed items whose completion
// predates the cutoff, returning how many were removed.
func (s *Store) DeleteCompletedOlderThan(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	res, err := s.db.Exec("DELETE FROM download_queue WHERE status = 'completed' AND completed_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// EmptyQueue removes all items from the queue that are not completed or in progress.
func (s *Store) EmptyQueue() error {
	_, err := s.db.Exec("DELETE FROM download_queue WHERE status = 'queued' OR status = 'failed' OR status = 'paused'")
	return err
}

// DeleteQueueItem removes a specific item from the download queue by ID.
func (s *Store) DeleteQueueItem(id int64) error {
	_, err := s.db.Exec("DELETE FROM download_queue WHERE id = ?", id)
	return err
}

// PauseQueueItem pauses a specific item in the download queue by ID.
func (s *Store) PauseQueueItem(id int64) error {
	result, err := s.db.Exec("UPDATE download_queue SET status = 'paused', message = 'Paused by user' WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("download queue item with ID %d not found", id)
	}
	return nil
}

// ResumeQueueItem resumes a specific item in the download queue by ID.
func (s *Store) ResumeQueueItem(id int64) error {
	result, err := s.db.Exec("UPDATE download_queue SET status = 'queued', message = 'Resumed by user' WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("download queue item with ID %d not found", id)
	}
	return nil
}

// RetryQueueItem retries a specific failed item in the download queue by ID.
func (s *Store) RetryQueueItem(id int64) error {
	result, err := s.db.Exec("UPDATE download_queue SET status = 'queued', message = 'Re-queued for retry by user' WHERE id = ? AND status = 'failed'", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("download queue item with ID %d not found or not in failed status", id)
	}
	return nil
}
