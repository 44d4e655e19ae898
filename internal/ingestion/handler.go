package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/restocklab/restock-backend/internal/api/v1"
	httperr "github.com/restocklab/restock-backend/internal/core/errors"
	"github.com/restocklab/restock-backend/internal/core/storage"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist pick entry"
	msgDuplicateEntry = "Pick entry already exists"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// RecordPickHandler handles POST /v1/companies/:company_id/picks.
func (s *Service) RecordPickHandler(c *gin.Context) {
	entry, payloadSize, err := s.parseEntry(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if vErr := entry.Validate(); vErr != nil {
		slog.Warn("Pick entry validation failed", "error", vErr, "company_id", entry.CompanyID)
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    vErr.Error(),
		})
		return
	}

	slog.Info("Received pick entry",
		"entry_id", entry.ID,
		"company_id", entry.CompanyID,
		"sku_id", entry.SKUID,
		"quantity", entry.Quantity,
		"payload_size", payloadSize)

	if err := s.persistEntry(c.Request.Context(), entry); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded", "id": entry.ID})
}

// parseEntry reads the raw request body and binds it into a PickEntry.
// Returns the parsed entry and the raw payload size (used for structured logging upstream).
func (s *Service) parseEntry(c *gin.Context) (*v1.PickEntry, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	// Check if body exceeds maximum size
	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var entry v1.PickEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	// The path parameter owns the tenant scope; a mismatching body value is
	// overwritten rather than rejected.
	entry.CompanyID = c.Param("company_id")

	// A server-assigned ID gives up idempotent retries; clients that need
	// them must supply their own.
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	entry.RecordedAt = s.nowFn()
	return &entry, len(bodyBytes), nil
}

// persistEntry saves the entry to the backing store.
func (s *Service) persistEntry(ctx context.Context, entry *v1.PickEntry) *ingestionError {
	if err := s.store.SavePickEntry(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate pick entry rejected", "entry_id", entry.ID, "company_id", entry.CompanyID)
			return &ingestionError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateEntryError,
				message:    msgDuplicateEntry,
			}
		}

		slog.Error("Failed to persist pick entry", "error", err, "entry_id", entry.ID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	return nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
