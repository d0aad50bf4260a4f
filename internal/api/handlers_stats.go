package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	opts := s.enhancer.Options()
	cached := 0
	if s.cache != nil {
		cached = s.cache.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth":  s.orchestrator.QueueDepth(),
		"jobs":         s.orchestrator.JobCount(),
		"workers":      s.cfg.WorkerCount,
		"conversions":  s.orchestrator.Converter().Stats().Snapshot(),
		"cached_pages": cached,
		"page": map[string]any{
			"site_host":     opts.SiteHost,
			"mark_external": opts.MarkExternal,
			"toc":           opts.TableOfContents,
			"selector":      opts.Outline.Selector,
			"min_headings":  opts.Outline.MinHeadings,
			"id_prefix":     opts.Outline.IDPrefix,
			"smooth_scroll": opts.Assets.SmoothScroll,
			"progress_bar":  opts.Assets.ProgressBar,
			"analytics":     opts.Assets.Analytics,
			"analytics_id":  opts.Assets.AnalyticsID != "",
		},
	})
}
