package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/skillswap/backend/internal/config"
	"github.com/skillswap/backend/internal/models"
)

func NewClient(cfg *config.Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.Status())
	}
	return client, nil
}

// IndexProfile upserts one profile document. Callers treat failures as
// non-fatal; search lags behind the database rather than failing writes.
func IndexProfile(ctx context.Context, es *elasticsearch.Client, index string, p models.Profile) error {
	if es == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(p); err != nil {
		return err
	}

	res, err := es.Index(
		index,
		&buf,
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(p.UserID.String()),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index profile: %s", res.Status())
	}
	return nil
}

func Profiles(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Profile, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"username^2", "nickname^2", "learningSkills.name", "teachingSkills.name", "introduction"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search profiles: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Profile `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	profiles := make([]models.Profile, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		profiles[i] = hit.Source
	}
	return r.Hits.Total.Value, profiles, nil
}

// Paginate converts 1-based page/size query params into from/size.
func Paginate(page, size int) (int, int) {
	if size <= 0 || size > 100 {
		size = 20
	}
	if page <= 0 {
		page = 1
	}
	return (page - 1) * size, size
}
