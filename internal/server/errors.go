package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/export"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Raw   string `json:"raw,omitempty"` // preview of unparseable model output
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrNoReport):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrNoAnalyzer):
		return http.StatusServiceUnavailable
	}

	switch common.KindOf(err) {
	case common.KindMalformedDocument, common.KindEmptyOrImageOnlyDocument:
		return http.StatusUnprocessableEntity
	case common.KindEmptyModelResponse, common.KindUnparseableModelOutput, common.KindSchemaViolation, common.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Kind: common.KindOf(err)}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
		resp.Error = "internal server error"
	}
	if resp.Kind == common.KindUnparseableModelOutput {
		resp.Raw = common.DetailOf(err)
	}
	c.AbortWithStatusJSON(status, resp)
}
