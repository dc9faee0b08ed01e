package handlers

import (
	"net/http"

	"github.com/swaggo/swag"
	"go.uber.org/zap"

	docs "itravel/docs/swagger"
	pkgerrors "itravel/pkg/errors"
)

// DocsHandler serves the registered OpenAPI document
type DocsHandler struct {
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewDocsHandler creates a new docs handler
func NewDocsHandler(errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *DocsHandler {
	return &DocsHandler{errors: errorHandler, logger: logger}
}

// GetDoc handles GET /swagger/doc.json
func (h *DocsHandler) GetDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		h.logger.Error("Failed to render API document", zap.Error(err))
		h.errors.Handle(w, r, pkgerrors.NewInternalError("API document unavailable"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
