package ingestion

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/restocklab/restock-backend/internal/core/storage"
)

type Service struct {
	store            storage.PickStore
	maxBodySizeBytes int
	nowFn            func() time.Time // injectable for deterministic tests
}

func NewService(store storage.PickStore, maxBodySizeMB int) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/companies/:company_id/picks", s.RecordPickHandler)
}
