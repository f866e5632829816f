// internal/leads/indexer.go
package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"econest-automation/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Indexer mirrors scored leads into Elasticsearch for dashboard search.
type Indexer interface {
	IndexLead(ctx context.Context, doc LeadDocument) error
}

// LeadDocument is the search projection of a lead.
type LeadDocument struct {
	LeadID    string            `json:"leadId"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Company   string            `json:"company,omitempty"`
	Source    string            `json:"source,omitempty"`
	Status    models.LeadStatus `json:"status"`
	Score     int               `json:"score"`
	Route     models.Route      `json:"route"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	if index == "" {
		index = "leads"
	}
	return &ESIndexer{client: client, index: index}
}

// IndexLead upserts the document under the lead id.
func (i *ESIndexer) IndexLead(ctx context.Context, doc LeadDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal lead document: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(doc.LeadID),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index error: %s", res.Status())
	}
	return nil
}
