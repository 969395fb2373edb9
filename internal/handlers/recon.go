package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/mkuznetsov/reconcilo/internal/handlers/render"
	"github.com/mkuznetsov/reconcilo/internal/models"
	"github.com/mkuznetsov/reconcilo/internal/service/matcher"
)

// 5 MiB: bank statements uploaded as JSON get large, arbitrary bodies should not
const maxReconBodySize = 5 << 20

type matcherService interface {
	Reconcile(ctx context.Context, payload json.RawMessage) (models.MatchReport, error)
}

type ReconHandler struct {
	matcher matcherService
}

func NewRecon(m matcherService) *ReconHandler {
	return &ReconHandler{matcher: m}
}

// Reconcile proxies the transaction payload to the external matching engine.
// The payload is opaque here: the engine owns its validation
func (h *ReconHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReconBodySize))
	if err != nil {
		render.ServiceError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	report, err := h.matcher.Reconcile(r.Context(), payload)
	if err != nil {
		var matcherErr *matcher.MatcherError
		if errors.As(err, &matcherErr) {
			switch matcherErr.Code {
			case matcher.CodeRetryAfter:
				w.Header().Set("Retry-After", strconv.Itoa(int(matcherErr.RetryAfter.Seconds())))
				render.ServiceError(w, "Matching engine is busy", http.StatusTooManyRequests)
				return
			case matcher.CodeBadRequest:
				render.ServiceError(w, "Matching engine rejected the payload", http.StatusBadRequest)
				return
			}
		}

		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, successResponse{Success: true, Data: report})
}
