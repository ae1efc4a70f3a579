package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxServices  = "stepai_services"
	idxVideos    = "stepai_videos"
	idxCurations = "stepai_curations"
)

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes.
// Returns a client that keeps probing in the background if the initial
// connection fails; callers fall back to Postgres while it is unhealthy.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	// Initial health check
	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		primaryKey string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxServices,
			primaryKey: "id",
			filterable: []string{"categoryId", "isActive", "id"},
			searchable: []string{"name", "summary"},
		},
		{
			uid:        idxVideos,
			primaryKey: "id",
			filterable: []string{"isActive", "id"},
			searchable: []string{"title"},
		},
		{
			uid:        idxCurations,
			primaryKey: "id",
			filterable: []string{"isActive", "id"},
			searchable: []string{"title", "subtitle"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: idx.primaryKey,
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries all three indexes (or a filtered subset) and merges results.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		kind Kind
	}{
		{idxServices, KindService},
		{idxVideos, KindVideo},
		{idxCurations, KindCuration},
	}

	for _, ti := range targetIndexes {
		if q.Kind != "" && q.Kind != ti.kind {
			continue
		}
		sr := &meili.SearchRequest{
			IndexUID: ti.uid,
			Query:    q.Text,
			Limit:    limit,
			Offset:   int64(q.Offset),
		}

		filters := []string{"isActive = true"}
		if q.CategoryID != 0 && ti.kind == KindService {
			filters = append(filters, fmt.Sprintf("categoryId = %d", q.CategoryID))
		}
		if len(q.ExcludeIDs) > 0 {
			ids := make([]string, len(q.ExcludeIDs))
			for i, id := range q.ExcludeIDs {
				ids[i] = strconv.FormatInt(id, 10)
			}
			filters = append(filters, fmt.Sprintf("id NOT IN [%s]", strings.Join(ids, ", ")))
		}
		sr.Filter = filters
		queries = append(queries, sr)
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		kind := indexToKind(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, kind))
		}
	}

	return results, total, nil
}

func indexToKind(uid string) Kind {
	switch uid {
	case idxServices:
		return KindService
	case idxVideos:
		return KindVideo
	case idxCurations:
		return KindCuration
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, kind Kind) Result {
	r := Result{Kind: kind}
	r.ID = decodeInt(hit, "id")

	switch kind {
	case KindService:
		r.Name = decodeString(hit, "name")
		r.Snippet = decodeString(hit, "summary")
		r.Image = decodeString(hit, "logoUrl")
		r.CategoryID = decodeInt(hit, "categoryId")
	case KindVideo:
		r.Name = decodeString(hit, "title")
		r.Image = decodeString(hit, "thumbnailUrl")
	case KindCuration:
		r.Name = decodeString(hit, "title")
		r.Snippet = decodeString(hit, "subtitle")
		r.Image = decodeString(hit, "coverImage")
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeInt(hit meili.Hit, key string) int64 {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

// IndexService adds or updates a service in the search index.
func (m *Meili) IndexService(rec ServiceRecord) error {
	_, err := m.client.Index(idxServices).AddDocuments([]ServiceRecord{rec}, nil)
	return err
}

// IndexVideo adds or updates a video in the search index.
func (m *Meili) IndexVideo(rec VideoRecord) error {
	_, err := m.client.Index(idxVideos).AddDocuments([]VideoRecord{rec}, nil)
	return err
}

// IndexCuration adds or updates a curation in the search index.
func (m *Meili) IndexCuration(rec CurationRecord) error {
	_, err := m.client.Index(idxCurations).AddDocuments([]CurationRecord{rec}, nil)
	return err
}

// DeleteService removes a service from the search index.
func (m *Meili) DeleteService(id int64) error {
	_, err := m.client.Index(idxServices).DeleteDocument(strconv.FormatInt(id, 10), nil)
	return err
}

// IndexServices bulk-indexes services.
func (m *Meili) IndexServices(records []ServiceRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxServices).AddDocuments(records, nil)
	return err
}

// IndexVideos bulk-indexes videos.
func (m *Meili) IndexVideos(records []VideoRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxVideos).AddDocuments(records, nil)
	return err
}

// IndexCurations bulk-indexes curations.
func (m *Meili) IndexCurations(records []CurationRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxCurations).AddDocuments(records, nil)
	return err
}
