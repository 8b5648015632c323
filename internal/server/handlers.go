package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/extract"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
	"github.com/joseph-ayodele/contract-auditor/internal/redact"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
)

type ParseResponse struct {
	Text       string              `json:"text"`
	Format     constants.Format    `json:"format"`
	Pages      int                 `json:"pages,omitempty"`
	Redacted   bool                `json:"redacted"`
	Redactions map[redact.Kind]int `json:"redactions,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}

type AuditRequest struct {
	ContractText string `json:"contractText"`
	Anonymize    *bool  `json:"anonymize,omitempty"`
}

type AnalyzeResponse struct {
	ID       *uuid.UUID         `json:"id,omitempty"`
	Report   llm.ContractReport `json:"report"`
	Tier     llm.Tier           `json:"tier"`
	Warnings []string           `json:"warnings,omitempty"`
}

type AuditSummary struct {
	ID             uuid.UUID             `json:"id"`
	Filename       string                `json:"filename,omitempty"`
	Format         constants.Format      `json:"format,omitempty"`
	Status         constants.AuditStatus `json:"status"`
	FailureKind    string                `json:"failureKind,omitempty"`
	HealthScore    *int                  `json:"healthScore,omitempty"`
	Redacted       bool                  `json:"redacted"`
	RedactionCount int                   `json:"redactionCount"`
	RecoveryTier   string                `json:"recoveryTier,omitempty"`
	TextChars      int                   `json:"textChars"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type AuditDetail struct {
	AuditSummary
	Report *llm.ContractReport `json:"report,omitempty"`
}

// Parse handles POST /api/parse: extraction and optional redaction, no model call.
func (h *Handler) Parse(c *gin.Context) {
	blob, anonymize, err := h.readUpload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	prepared, err := h.pipeline.Prepare(c.Request.Context(), blob, anonymize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ParseResponse{
		Text:       prepared.Text,
		Format:     prepared.Format,
		Pages:      prepared.Pages,
		Redacted:   prepared.Redacted,
		Redactions: prepared.Redactions,
		Warnings:   prepared.Warnings,
	})
}

// AuditText handles POST /api/audit with already-extracted text and returns the bare report.
func (h *Handler) AuditText(c *gin.Context) {
	var req AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(c, err)
			return
		}
		h.fail(c, common.NewAppError(common.KindInvalidInput, "request body must be JSON", common.ErrInvalidInput))
		return
	}
	v := common.NewValidator().
		Field("contractText", req.ContractText, common.Required, common.MaxLength(MaxContractRunes))
	if err := v.Error(); err != nil {
		h.fail(c, err)
		return
	}

	anonymize := h.anonymizeDefault
	if req.Anonymize != nil {
		anonymize = *req.Anonymize
	}
	out, err := h.pipeline.AuditText(c.Request.Context(), req.ContractText, pipeline.AuditOptions{Anonymize: anonymize})
	if err != nil {
		h.fail(c, err)
		return
	}
	if out.ID != uuid.Nil {
		c.Header("X-Audit-ID", out.ID.String())
	}
	c.JSON(http.StatusOK, out.Result.Report)
}

// Analyze handles POST /api/analyze: the full pipeline over an uploaded document.
func (h *Handler) Analyze(c *gin.Context) {
	blob, anonymize, err := h.readUpload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	out, err := h.pipeline.Audit(c.Request.Context(), blob, pipeline.AuditOptions{Anonymize: anonymize})
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := AnalyzeResponse{Report: out.Result.Report, Tier: out.Result.Tier, Warnings: out.Result.Warnings}
	if out.ID != uuid.Nil {
		resp.ID = &out.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListAudits(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.fail(c, common.NewAppError(common.KindInvalidInput, "limit must be a positive integer", common.ErrInvalidInput))
			return
		}
		limit = n
	}
	recs, err := h.audits.List(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]AuditSummary, 0, len(recs))
	for i := range recs {
		out = append(out, summarize(&recs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"audits": out})
}

func (h *Handler) GetAudit(c *gin.Context) {
	id, err := auditID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec, err := h.audits.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AuditDetail{AuditSummary: summarize(rec), Report: rec.Report})
}

func (h *Handler) ExportAudit(c *gin.Context) {
	id, err := auditID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.exporter.ExportAuditXLSX(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="audit-%s.xlsx"`, id))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
}

// readUpload reads the multipart "file" field and the optional "anonymize" flag.
func (h *Handler) readUpload(c *gin.Context) (extract.DocumentBlob, bool, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return extract.DocumentBlob{}, false, err
		}
		return extract.DocumentBlob{}, false, common.NewAppError(common.KindInvalidInput, "file is required", common.ErrInvalidInput)
	}

	anonymize := h.anonymizeDefault
	if s := c.PostForm("anonymize"); s != "" {
		anonymize, err = strconv.ParseBool(s)
		if err != nil {
			return extract.DocumentBlob{}, false, common.NewAppError(common.KindInvalidInput, "anonymize must be a boolean", common.ErrInvalidInput)
		}
	}

	data, err := readFileHeader(fh)
	if err != nil {
		return extract.DocumentBlob{}, false, err
	}
	return extract.DocumentBlob{
		Data:      data,
		MediaType: fh.Header.Get("Content-Type"),
		Filename:  fh.Filename,
	}, anonymize, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func auditID(c *gin.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	if err := common.NewValidator().Field("id", raw, common.UUID).Error(); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func summarize(rec *repository.AuditRecord) AuditSummary {
	return AuditSummary{
		ID:             rec.ID,
		Filename:       rec.Filename,
		Format:         rec.Format,
		Status:         rec.Status,
		FailureKind:    rec.FailureKind,
		HealthScore:    rec.HealthScore,
		Redacted:       rec.Redacted,
		RedactionCount: rec.RedactionCount,
		RecoveryTier:   rec.RecoveryTier,
		TextChars:      rec.TextChars,
		CreatedAt:      rec.CreatedAt,
	}
}
