// internal/leads/postgres.go
package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"econest-automation/internal/common/errors"
	"econest-automation/internal/models"

	"github.com/google/uuid"
)

const upsertLeadQuery = `
	INSERT INTO leads (id, name, email, source, notes, company, status, score, created_at, updated_at)
	VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), 'new', 0, NOW(), NOW())
	ON CONFLICT (email) DO UPDATE SET
		name = EXCLUDED.name,
		notes = CASE
			WHEN EXCLUDED.notes IS NULL THEN leads.notes
			WHEN leads.notes IS NULL OR leads.notes = '' THEN EXCLUDED.notes
			ELSE leads.notes || E'\n' || EXCLUDED.notes
		END,
		company = COALESCE(EXCLUDED.company, leads.company),
		updated_at = NOW()
	RETURNING id, (xmax = 0) AS inserted`

// PostgresStore implements Store on the leads and tasks tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) UpsertLead(ctx context.Context, sub models.LeadSubmission) (string, bool, error) {
	var (
		id       string
		inserted bool
	)
	err := s.db.QueryRowContext(ctx, upsertLeadQuery,
		uuid.NewString(), sub.Name, NormalizeEmail(sub.Email), sub.Source, sub.Notes, sub.Company,
	).Scan(&id, &inserted)
	if err != nil {
		return "", false, errors.NewStoreFailureError("upsert lead", err)
	}
	return id, inserted, nil
}

func (s *PostgresStore) UpdateRouting(ctx context.Context, leadID string, status models.LeadStatus, score int, route models.Route) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads
		SET status = $2, score = $3, route = $4, updated_at = NOW()
		WHERE id = $1`, leadID, string(status), score, string(route))
	if err != nil {
		return errors.NewStoreFailureError("update lead routing", err)
	}
	return requireRow(res, leadID)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads
		SET status = $2, updated_at = NOW()
		WHERE id = $1`, leadID, string(status))
	if err != nil {
		return errors.NewStoreFailureError("update lead status", err)
	}
	return requireRow(res, leadID)
}

func (s *PostgresStore) MarkQualified(ctx context.Context, leadID, crmDealURL string, enrichment map[string]interface{}) error {
	if enrichment == nil {
		enrichment = map[string]interface{}{}
	}
	enrichmentJSON, err := json.Marshal(enrichment)
	if err != nil {
		return errors.NewValidationError(fmt.Sprintf("enrichment is not serializable: %v", err))
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE leads
		SET status = $2,
			crm_deal_url = COALESCE(NULLIF($3, ''), crm_deal_url),
			enrichment = COALESCE(enrichment, '{}'::jsonb) || $4::jsonb,
			updated_at = NOW()
		WHERE id = $1`, leadID, string(models.LeadStatusQualified), crmDealURL, string(enrichmentJSON))
	if err != nil {
		return errors.NewStoreFailureError("mark lead qualified", err)
	}
	return requireRow(res, leadID)
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = "open"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, lead_id, title, description, due_date, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		task.ID, task.LeadID, task.Title, task.Description, task.DueDate, string(task.Priority), task.Status)
	if err != nil {
		return "", errors.NewStoreFailureError("insert task", err)
	}
	return task.ID, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, leadID string) (*models.Lead, error) {
	var (
		lead       models.Lead
		status     string
		route      string
		enrichment []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(source, ''), COALESCE(notes, ''), COALESCE(company, ''),
			status, score, COALESCE(route, ''), COALESCE(crm_deal_url, ''), enrichment, created_at, updated_at
		FROM leads
		WHERE id = $1`, leadID,
	).Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Source, &lead.Notes, &lead.Company,
		&status, &lead.Score, &route, &lead.CRMDealURL, &enrichment, &lead.CreatedAt, &lead.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewLeadNotFoundError(leadID)
	}
	if err != nil {
		return nil, errors.NewStoreFailureError("get lead", err)
	}

	lead.Status = models.LeadStatus(status)
	lead.Route = models.Route(route)
	if len(enrichment) > 0 {
		if err := json.Unmarshal(enrichment, &lead.Enrichment); err != nil {
			return nil, errors.NewStoreFailureError("decode enrichment", err)
		}
	}
	return &lead, nil
}

func requireRow(res sql.Result, leadID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreFailureError("rows affected", err)
	}
	if n == 0 {
		return errors.NewLeadNotFoundError(leadID)
	}
	return nil
}
