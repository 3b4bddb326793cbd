package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/sdiallo/tably/internal/logging"
	"github.com/sdiallo/tably/internal/models"
)

const productIndex = "products"

// SearchService is the full-text menu search over the product catalog.
// The index is a disposable projection of the database; the catalog service
// reindexes on every product mutation.
type SearchService struct {
	ES *elasticsearch.Client
}

type SearchHit struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

func (s *SearchService) Search(ctx context.Context, query string, from, size int) (int64, []SearchHit, error) {
	if s == nil || s.ES == nil {
		return 0, nil, fmt.Errorf("search backend not configured")
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encoding search query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(productIndex),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("searching products: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string `json:"_id"`
				Source struct {
					Name   string   `json:"name"`
					Price  float64  `json:"price"`
					Images []string `json:"images"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, nil, fmt.Errorf("decoding search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hit := SearchHit{ID: h.ID, Name: h.Source.Name, Price: h.Source.Price}
		if len(h.Source.Images) > 0 {
			hit.Image = h.Source.Images[0]
		}
		hits = append(hits, hit)
	}
	return parsed.Hits.Total.Value, hits, nil
}

// Index writes one product document; best effort, failures are logged and
// never fail the catalog mutation that triggered them.
func (s *SearchService) Index(ctx context.Context, product *models.Product) {
	if s == nil || s.ES == nil {
		return
	}
	doc, err := json.Marshal(map[string]any{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"images":      product.Images,
		"category_id": product.CategoryID,
	})
	if err != nil {
		logging.FromContext(ctx).Error("marshaling product document", "error", err)
		return
	}

	res, err := s.ES.Index(productIndex, strings.NewReader(string(doc)),
		s.ES.Index.WithDocumentID(product.ID),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		logging.FromContext(ctx).Error("indexing product", "product_id", product.ID, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		logging.FromContext(ctx).Error("indexing product", "product_id", product.ID, "status", res.Status())
	}
}

// Remove deletes one product document; best effort like Index.
func (s *SearchService) Remove(ctx context.Context, productID string) {
	if s == nil || s.ES == nil {
		return
	}
	res, err := s.ES.Delete(productIndex, productID, s.ES.Delete.WithContext(ctx))
	if err != nil {
		logging.FromContext(ctx).Error("removing product from index", "product_id", productID, "error", err)
		return
	}
	res.Body.Close()
}
