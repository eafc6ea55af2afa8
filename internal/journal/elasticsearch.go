package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"submission-intake/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchRecorder indexes events for search and dashboards.
type ElasticsearchRecorder struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchRecorder(client *elasticsearch.Client, index string) *ElasticsearchRecorder {
	return &ElasticsearchRecorder{client: client, index: index}
}

func (r *ElasticsearchRecorder) Record(ctx context.Context, event *models.IntakeEvent) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode intake event: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(doc),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(event.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index intake event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index error: %s", res.Status())
	}
	return nil
}
