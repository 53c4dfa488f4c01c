// internal/common/database/elasticsearch.go
package database

import (
	"fmt"

	"github.com/AlphaGL/Finda-backend-sub000/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewElasticsearch creates a client for the optional catalog-index backend.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return es, nil
}
