package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to
// the Postgres searcher.
type Service struct {
	meili *Meili
	pg    *PG
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pg *PG) *Service {
	return &Service{meili: meili, pg: pg}
}

// Search tries Meilisearch if healthy, otherwise falls back to Postgres.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	results, total, err := s.pg.Search(q)
	if err != nil {
		log.Printf("search: postgres error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexService indexes a service (fire-and-forget to Meilisearch).
func (s *Service) IndexService(rec ServiceRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexService(rec); err != nil {
			log.Printf("search: index service %d: %v", rec.ID, err)
		}
	}()
}

// IndexVideo indexes a video (fire-and-forget to Meilisearch).
func (s *Service) IndexVideo(rec VideoRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexVideo(rec); err != nil {
			log.Printf("search: index video %d: %v", rec.ID, err)
		}
	}()
}

// IndexCuration indexes a curation (fire-and-forget to Meilisearch).
func (s *Service) IndexCuration(rec CurationRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexCuration(rec); err != nil {
			log.Printf("search: index curation %d: %v", rec.ID, err)
		}
	}()
}

// DeleteService removes a service from the search index (fire-and-forget).
func (s *Service) DeleteService(id int64) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteService(id); err != nil {
			log.Printf("search: delete service %d: %v", id, err)
		}
	}()
}

// ReindexAllFromPG reindexes all catalog entities from PostgreSQL into
// Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pg == nil {
		return
	}
	services, videos, curations, err := s.pg.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexServices(services); err != nil {
		log.Printf("search: reindex services: %v", err)
	}
	if err := s.meili.IndexVideos(videos); err != nil {
		log.Printf("search: reindex videos: %v", err)
	}
	if err := s.meili.IndexCurations(curations); err != nil {
		log.Printf("search: reindex curations: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
