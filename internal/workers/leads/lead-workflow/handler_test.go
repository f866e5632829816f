package leadworkflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	commonerrors "econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/validation"
	"econest-automation/internal/leads"
	"econest-automation/internal/models"
	"econest-automation/internal/notify"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeIndexer struct {
	mu   sync.Mutex
	docs []leads.LeadDocument
	err  error
}

func (f *fakeIndexer) IndexLead(_ context.Context, doc leads.LeadDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return f.err
}

type chatCapture struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (c *chatCapture) server(t *testing.T, status int) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg notify.Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		c.mu.Lock()
		c.messages = append(c.messages, msg)
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, db *sql.DB, chatURL string, indexer leads.Indexer) *Handler {
	validator, err := validation.NewValidator()
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	return NewHandler(HandlerOptions{
		Config:    LoadConfig(),
		Store:     leads.NewPostgresStore(db),
		Indexer:   indexer,
		ChatOps:   notify.NewChatOps(chatURL, time.Second, log),
		Validator: validator,
		Logger:    log,
		Now:       func() time.Time { return fixedNow },
	})
}

func expectUpsert(mock sqlmock.Sqlmock, name, email, id string, inserted bool) {
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(sqlmock.AnyArg(), name, email, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(id, inserted))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_StandardRoute(t *testing.T) {
	db, mock := setupMockDB(t)
	chat := &chatCapture{}
	srv := chat.server(t, http.StatusOK)
	indexer := &fakeIndexer{}
	h := newTestHandler(t, db, srv.URL, indexer)

	expectUpsert(mock, "Bob Smith", "bob@gmail.com", "lead-std", true)
	mock.ExpectExec("UPDATE leads").
		WithArgs("lead-std", "nurture", 60, "standard").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(sqlmock.AnyArg(), "lead-std", "Follow up with Bob Smith", sqlmock.AnyArg(),
			fixedNow.Add(48*time.Hour), "normal", "open").
		WillReturnResult(sqlmock.NewResult(1, 1))

	out, err := h.Execute(context.Background(), &Input{
		Name: "Bob Smith", Email: "Bob@Gmail.com", Company: "Bob's Bikes",
	})

	require.NoError(t, err)
	assert.Equal(t, "lead-std", out.LeadID)
	assert.Equal(t, models.RouteStandard, out.Route)
	assert.Equal(t, 60, out.Score)
	assert.True(t, out.IsNew)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, chat.messages, 1)
	assert.Contains(t, chat.messages[0].Text, "route: standard")
	assert.Empty(t, chat.messages[0].Blocks)

	require.Len(t, indexer.docs, 1)
	assert.Equal(t, models.LeadStatusNurture, indexer.docs[0].Status)
}

func TestHandler_Execute_HighRoute(t *testing.T) {
	db, mock := setupMockDB(t)
	chat := &chatCapture{}
	srv := chat.server(t, http.StatusOK)
	h := newTestHandler(t, db, srv.URL, nil)

	expectUpsert(mock, "Jane Doe", "jane@acme-corp.com", "lead-hot", true)
	mock.ExpectExec("UPDATE leads").
		WithArgs("lead-hot", "qualified", 95, "high").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(sqlmock.AnyArg(), "lead-hot", "🔥 URGENT: Contact Jane Doe", sqlmock.AnyArg(),
			fixedNow.Add(4*time.Hour), "urgent", "open").
		WillReturnResult(sqlmock.NewResult(1, 1))

	out, err := h.Execute(context.Background(), &Input{
		Name: "Jane Doe", Email: "jane@acme-corp.com", Source: "Demo", Company: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RouteHigh, out.Route)
	assert.Equal(t, 95, out.Score)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, chat.messages, 1)
	require.Len(t, chat.messages[0].Blocks, 2)
	assert.Equal(t, "lead-hot", chat.messages[0].Blocks[1].Elements[0].Value)
}

func TestHandler_Execute_ScoreBoundary(t *testing.T) {
	tests := []struct {
		name   string
		input  Input
		score  int
		route  string
		status string
	}{
		{"exactly 70 is high", Input{Name: "A", Email: "a@acme-corp.com"}, 70, "high", "qualified"},
		{"65 is standard", Input{Name: "B", Email: "b@gmail.com", Source: "event"}, 65, "standard", "nurture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			h := newTestHandler(t, db, "", nil)

			expectUpsert(mock, tt.input.Name, strings.ToLower(tt.input.Email), "lead-b", true)
			mock.ExpectExec("UPDATE leads").
				WithArgs("lead-b", tt.status, tt.score, tt.route).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec("INSERT INTO tasks").WillReturnResult(sqlmock.NewResult(1, 1))

			out, err := h.Execute(context.Background(), &tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.score, out.Score)
			assert.Equal(t, models.Route(tt.route), out.Route)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_DedupeIsCaseInsensitive(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, "", nil)

	for i, email := range []string{"Jane@Acme-Corp.com", "jane@acme-corp.com"} {
		expectUpsert(mock, "Jane", "jane@acme-corp.com", "lead-1", i == 0)
		mock.ExpectExec("UPDATE leads").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO tasks").WillReturnResult(sqlmock.NewResult(1, 1))

		out, err := h.Execute(context.Background(), &Input{Name: "Jane", Email: email})
		require.NoError(t, err)
		assert.Equal(t, "lead-1", out.LeadID)
		assert.Equal(t, i == 0, out.IsNew)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"missing email", &Input{Name: "Jane"}},
		{"missing name", &Input{Email: "jane@acme.io"}},
		{"blank email", &Input{Name: "Jane", Email: "   "}},
		{"malformed email", &Input{Name: "Jane", Email: "not-an-email"}},
		{"nil input", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			h := newTestHandler(t, db, "", nil)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, commonerrors.ErrCodeValidationFailed, commonerrors.AsStandard(err).Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_SchemaLimits(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, "", nil)

	_, err := h.Execute(context.Background(), &Input{Name: strings.Repeat("x", 201), Email: "jane@acme.io"})
	assert.Equal(t, commonerrors.ErrCodeValidationFailed, commonerrors.AsStandard(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Failure Path Tests
// ==========================

func TestHandler_Execute_NotificationFailureIsSwallowed(t *testing.T) {
	db, mock := setupMockDB(t)
	chat := &chatCapture{}
	srv := chat.server(t, http.StatusInternalServerError)
	indexer := &fakeIndexer{err: errors.New("cluster red")}
	h := newTestHandler(t, db, srv.URL, indexer)

	expectUpsert(mock, "Bob", "bob@gmail.com", "lead-1", false)
	mock.ExpectExec("UPDATE leads").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tasks").WillReturnResult(sqlmock.NewResult(1, 1))

	out, err := h.Execute(context.Background(), &Input{Name: "Bob", Email: "bob@gmail.com"})
	require.NoError(t, err)
	assert.False(t, out.IsNew)
	assert.Len(t, chat.messages, 1)
}

func TestHandler_Execute_StoreFailureStopsPipeline(t *testing.T) {
	db, mock := setupMockDB(t)
	chat := &chatCapture{}
	srv := chat.server(t, http.StatusOK)
	h := newTestHandler(t, db, srv.URL, nil)

	expectUpsert(mock, "Bob", "bob@gmail.com", "lead-1", true)
	mock.ExpectExec("UPDATE leads").WillReturnError(errors.New("deadlock detected"))

	_, err := h.Execute(context.Background(), &Input{Name: "Bob", Email: "bob@gmail.com"})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeStoreFailure, commonerrors.AsStandard(err).Code)
	assert.Empty(t, chat.messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_TaskFailureLeavesPartialWrites(t *testing.T) {
	db, mock := setupMockDB(t)
	h := newTestHandler(t, db, "", nil)

	expectUpsert(mock, "Bob", "bob@gmail.com", "lead-1", true)
	mock.ExpectExec("UPDATE leads").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tasks").WillReturnError(errors.New("fk violation"))

	_, err := h.Execute(context.Background(), &Input{Name: "Bob", Email: "bob@gmail.com"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
