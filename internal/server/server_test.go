package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
)

const validReply = `{"healthScore": 81, "safe": [{"title": "Term", "summary": "s", "plainEnglish": "p"}], "review": [], "risk": [], "missing": ["Arbitration"]}`

type stubAnalyzer struct {
	reply *string
	err   error
}

func (s stubAnalyzer) Complete(context.Context, string) (*string, error) { return s.reply, s.err }

func str(s string) *string { return &s }

type testEnv struct {
	router *gin.Engine
	audits repository.AuditRepository
}

func newEnv(t *testing.T, an llm.Analyzer, withHistory bool) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := Config{MaxUploadBytes: 1 << 20}
	opts := []pipeline.Option{pipeline.WithAnalyzer(an)}
	if withHistory {
		db, err := repository.Open(context.Background(), common.DatabaseConfig{DSN: ":memory:"}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close(nil) })
		cfg.DB = db
		cfg.Audits = repository.NewAuditRepository(db, nil)
		opts = append(opts, pipeline.WithHistory(cfg.Audits))
	}
	cfg.Pipeline = pipeline.New(nil, opts...)
	return testEnv{router: NewRouter(cfg), audits: cfg.Audits}
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(path string, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	env := newEnv(t, nil, true)
	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newEnv(t, nil, false)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-123")
	w := env.do(req)
	assert.Equal(t, "req-123", w.Header().Get(headerRequestID))
}

func TestParse(t *testing.T) {
	env := newEnv(t, nil, false)
	req := uploadRequest(t, "/api/parse", "nda.txt",
		[]byte("Call 555-123-4567\r\n\r\n\r\nor write to a@b.io"), map[string]string{"anonymize": "true"})
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Call [REDACTED_PHONE]\n\nor write to [REDACTED_EMAIL]", resp.Text)
	assert.Equal(t, "PLAIN", string(resp.Format))
	assert.True(t, resp.Redacted)
	assert.Equal(t, 2, len(resp.Redactions))
}

func TestParse_Errors(t *testing.T) {
	env := newEnv(t, nil, false)

	w := env.do(uploadRequest(t, "/api/parse", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(uploadRequest(t, "/api/parse", "a.txt", []byte("x"), map[string]string{"anonymize": "maybe"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(uploadRequest(t, "/api/parse", "broken.pdf", []byte("%PDF-1.4 garbage"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, common.KindMalformedDocument, decodeError(t, w).Kind)

	w = env.do(uploadRequest(t, "/api/parse", "big.txt", bytes.Repeat([]byte("a"), 2<<20), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAuditText(t *testing.T) {
	env := newEnv(t, stubAnalyzer{reply: str("Here you go:\n" + validReply)}, true)
	w := env.do(jsonRequest("/api/audit", `{"contractText": "The tenant shall pay rent."}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report llm.ContractReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 81, report.HealthScore)
	assert.Equal(t, []string{"Arbitration"}, report.Missing)
	assert.NotEmpty(t, w.Header().Get("X-Audit-ID"))

	// field names are part of the contract with clients
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, k := range []string{"healthScore", "safe", "review", "risk", "missing"} {
		assert.Contains(t, raw, k)
	}
}

func TestAuditText_Errors(t *testing.T) {
	tests := []struct {
		name     string
		analyzer stubAnalyzer
		body     string
		status   int
		kind     string
		raw      string
	}{
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
		{name: "missing text", body: `{"contractText": "  "}`, status: http.StatusBadRequest},
		{name: "empty reply", analyzer: stubAnalyzer{reply: str("")}, body: `{"contractText": "x"}`,
			status: http.StatusBadGateway, kind: common.KindEmptyModelResponse},
		{name: "prose reply", analyzer: stubAnalyzer{reply: str("Sorry, no.")}, body: `{"contractText": "x"}`,
			status: http.StatusBadGateway, kind: common.KindUnparseableModelOutput, raw: "Sorry, no."},
		{name: "schema violation", analyzer: stubAnalyzer{reply: str(`{"healthScore": "high"}`)}, body: `{"contractText": "x"}`,
			status: http.StatusBadGateway, kind: common.KindSchemaViolation},
		{name: "upstream", analyzer: stubAnalyzer{err: common.NewAppError(common.KindUpstream, "status 500", nil)}, body: `{"contractText": "x"}`,
			status: http.StatusBadGateway, kind: common.KindUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, tt.analyzer, false)
			w := env.do(jsonRequest("/api/audit", tt.body))
			require.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decodeError(t, w)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, resp.Kind)
			}
			assert.Equal(t, tt.raw, resp.Raw)
		})
	}
}

func TestAnalyzeAndHistory(t *testing.T) {
	env := newEnv(t, stubAnalyzer{reply: str(validReply)}, true)

	w := env.do(uploadRequest(t, "/api/analyze", "lease.txt", []byte("Lease agreement"), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.ID)
	assert.Equal(t, llm.TierDirect, resp.Tier)
	assert.Equal(t, 81, resp.Report.HealthScore)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/audits", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Audits []AuditSummary `json:"audits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Audits, 1)
	assert.Equal(t, "lease.txt", list.Audits[0].Filename)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/audits/"+resp.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var detail AuditDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.NotNil(t, detail.Report)
	assert.Equal(t, 81, detail.Report.HealthScore)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/audits/"+resp.ID.String()+"/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	v, _ := f.GetCellValue("Summary", "B2")
	assert.Equal(t, "81", v)
}

func TestAudits_Errors(t *testing.T) {
	env := newEnv(t, nil, true)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/audits/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/audits/6f1c1a2e-5b0e-4c53-9a55-7d1f0f7d2f11", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/audits?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryRoutesDisabled(t *testing.T) {
	env := newEnv(t, nil, false)
	w := env.do(httptest.NewRequest(http.MethodGet, "/api/audits", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoAnalyzer(t *testing.T) {
	env := newEnv(t, nil, false)
	w := env.do(jsonRequest("/api/audit", `{"contractText": "x"}`))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
