package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commonerrors "econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/validation"
	"econest-automation/internal/models"
	llmproxy "econest-automation/internal/workers/ai/llm-proxy"
	leadworkflow "econest-automation/internal/workers/leads/lead-workflow"
	n8ncallback "econest-automation/internal/workers/leads/n8n-callback"
	detectintent "econest-automation/internal/workers/spade/detect-intent"
	evaluatepolicy "econest-automation/internal/workers/spade/evaluate-policy"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockStore struct {
	UpsertLeadFunc    func(ctx context.Context, sub models.LeadSubmission) (string, bool, error)
	UpdateRoutingFunc func(ctx context.Context, leadID string, status models.LeadStatus, score int, route models.Route) error
	UpdateStatusFunc  func(ctx context.Context, leadID string, status models.LeadStatus) error
	MarkQualifiedFunc func(ctx context.Context, leadID, crmDealURL string, enrichment map[string]interface{}) error
	CreateTaskFunc    func(ctx context.Context, task *models.Task) (string, error)
	PingFunc          func(ctx context.Context) error
}

func (m *MockStore) UpsertLead(ctx context.Context, sub models.LeadSubmission) (string, bool, error) {
	if m.UpsertLeadFunc != nil {
		return m.UpsertLeadFunc(ctx, sub)
	}
	return "lead-1", true, nil
}

func (m *MockStore) UpdateRouting(ctx context.Context, leadID string, status models.LeadStatus, score int, route models.Route) error {
	if m.UpdateRoutingFunc != nil {
		return m.UpdateRoutingFunc(ctx, leadID, status, score, route)
	}
	return nil
}

func (m *MockStore) UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, leadID, status)
	}
	return nil
}

func (m *MockStore) MarkQualified(ctx context.Context, leadID, crmDealURL string, enrichment map[string]interface{}) error {
	if m.MarkQualifiedFunc != nil {
		return m.MarkQualifiedFunc(ctx, leadID, crmDealURL, enrichment)
	}
	return nil
}

func (m *MockStore) CreateTask(ctx context.Context, task *models.Task) (string, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, task)
	}
	return "task-1", nil
}

func (m *MockStore) GetLead(ctx context.Context, leadID string) (*models.Lead, error) {
	return &models.Lead{ID: leadID}, nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

const testSecret = "s3cret"

func newTestRouter(t *testing.T, store *MockStore, llm *llmproxy.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)
	validator, err := validation.NewValidator()
	require.NoError(t, err)

	cbCfg := n8ncallback.LoadConfig()
	cbCfg.Secret = testSecret

	return NewRouter(Handlers{
		Leads:     leadworkflow.NewHandler(leadworkflow.HandlerOptions{Store: store, Logger: log}),
		Callbacks: n8ncallback.NewHandler(n8ncallback.HandlerOptions{Config: cbCfg, Store: store, Logger: log}),
		LLM:       llm,
		Policy:    evaluatepolicy.NewHandler(0, validator, log),
		Intent:    detectintent.NewHandler(0, log),
		Store:     store,
		Logger:    log,
	}, nil)
}

func doRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ==========================
// Lead Workflow
// ==========================

func TestLeadWorkflow_Success(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)

	w := doRequest(r, http.MethodPost, "/functions/v1/lead-workflow",
		`{"name":"Jane Doe","email":"Jane@AcmeCorp.com","source":"referral","company":"Acme"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "lead-1", body["leadId"])
	assert.Equal(t, "high", body["route"])
	assert.EqualValues(t, 95, body["score"])
	assert.Equal(t, true, body["isNew"])
	assert.Equal(t, messageLeadProcessed, body["message"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestLeadWorkflow_MissingFields(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)

	w := doRequest(r, http.MethodPost, "/functions/v1/lead-workflow", `{"name":"Jane"}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Missing required fields: name and email", body["error"])
}

func TestLeadWorkflow_InvalidJSON(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)
	w := doRequest(r, http.MethodPost, "/functions/v1/lead-workflow", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadWorkflow_StoreFailure(t *testing.T) {
	store := &MockStore{
		UpsertLeadFunc: func(ctx context.Context, sub models.LeadSubmission) (string, bool, error) {
			return "", false, errors.New("connection refused")
		},
	}
	r := newTestRouter(t, store, nil)

	w := doRequest(r, http.MethodPost, "/functions/v1/lead-workflow", `{"name":"Jane","email":"jane@example.com"}`, nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body["error"], "connection refused")
}

// ==========================
// Callback
// ==========================

func TestN8NCallback_SignedQualified(t *testing.T) {
	var marked string
	store := &MockStore{
		MarkQualifiedFunc: func(ctx context.Context, leadID, crmDealURL string, enrichment map[string]interface{}) error {
			marked = leadID
			return nil
		},
	}
	r := newTestRouter(t, store, nil)

	payload := `{"leadId":"lead-7","status":"qualified","crmDealUrl":"https://crm.example.com/deals/1"}`
	w := doRequest(r, http.MethodPost, "/functions/v1/n8n-callback", payload,
		map[string]string{"x-signature": n8ncallback.Sign(testSecret, []byte(payload))})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "lead-7", body["leadId"])
	assert.Equal(t, "qualified", body["status"])
	assert.Equal(t, n8ncallback.MessageQualified, body["message"])
	assert.Equal(t, "lead-7", marked)
}

func TestN8NCallback_InvalidSignature(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)

	w := doRequest(r, http.MethodPost, "/functions/v1/n8n-callback",
		`{"leadId":"lead-7","status":"qualified"}`, map[string]string{"x-signature": "deadbeef"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestN8NCallback_LeadNotFound(t *testing.T) {
	store := &MockStore{
		UpdateStatusFunc: func(ctx context.Context, leadID string, status models.LeadStatus) error {
			return commonLeadNotFound(leadID)
		},
	}
	r := newTestRouter(t, store, nil)

	payload := `{"leadId":"missing","status":"disqualified"}`
	w := doRequest(r, http.MethodPost, "/functions/v1/n8n-callback", payload,
		map[string]string{"x-signature": n8ncallback.Sign(testSecret, []byte(payload))})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==========================
// AI and SPADE
// ==========================

func TestAIChat(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hello there"}}]}`))
	}))
	defer upstream.Close()

	cfg := llmproxy.LoadConfig()
	cfg.GenAIBaseURL = upstream.URL
	cfg.APIKey = "sk-test"
	r := newTestRouter(t, &MockStore{}, llmproxy.NewHandler(cfg, logger.NewTestLogger(t)))

	w := doRequest(r, http.MethodPost, "/functions/v1/ai-chat", `{"messages":[{"role":"user","content":"hi"}]}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Hello there", body["reply"])
}

func TestGenerateSOP_NotConfigured(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)
	w := doRequest(r, http.MethodPost, "/functions/v1/generate-sop", `{"title":"Opening"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, decode(t, w)["ok"])
}

func TestEvaluatePolicy(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)

	w := doRequest(r, http.MethodPost, "/functions/v1/spade/evaluate",
		`{"action":"delete_data","confidence":0.7,"reversible":false,"data":{"target":"contacts"}}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	decision := body["decision"].(map[string]interface{})
	assert.Equal(t, true, decision["needsConfirmation"])
	assert.Equal(t, false, decision["proceed"])
	assert.Equal(t, "Permanently delete contacts? This cannot be undone.", body["confirmationDetail"])
}

func TestEvaluatePolicy_OutOfRangeConfidence(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)
	w := doRequest(r, http.MethodPost, "/functions/v1/spade/evaluate", `{"action":"x","confidence":1.5}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetectIntent(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)

	w := doRequest(r, http.MethodPost, "/functions/v1/spade/intent", `{"text":"Please add a new lead for Acme"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["detected"])
	assert.Equal(t, "lead", body["intent"])
	assert.Len(t, body["plan"], 4)
}

// ==========================
// Probes and Middleware
// ==========================

func TestReady(t *testing.T) {
	store := &MockStore{}
	r := newTestRouter(t, store, nil)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/ready", "", nil).Code)

	store.PingFunc = func(ctx context.Context) error { return errors.New("down") }
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(r, http.MethodGet, "/ready", "", nil).Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)
	w := doRequest(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)

	w := doRequest(r, http.MethodOptions, "/functions/v1/lead-workflow", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "x-signature")
}

func TestRequestIDPropagated(t *testing.T) {
	r := newTestRouter(t, &MockStore{}, nil)
	w := doRequest(r, http.MethodGet, "/health", "", map[string]string{headerRequestID: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(headerRequestID))
}

func commonLeadNotFound(id string) error {
	return commonerrors.NewLeadNotFoundError(id)
}
