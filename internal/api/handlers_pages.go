package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/pagekit/internal/enhance"
	"github.com/dgallion1/pagekit/internal/outline"
	"github.com/dgallion1/pagekit/internal/pipeline"
)

// readBody reads a raw request body, bounded by the upload limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	if len(data) == 0 {
		jsonError(w, "empty body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

// writePage sends enhanced markup with a summary in response headers.
func writePage(w http.ResponseWriter, html []byte, entries, externalLinks int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Pagekit-Outline-Entries", strconv.Itoa(entries))
	w.Header().Set("X-Pagekit-External-Links", strconv.Itoa(externalLinks))
	w.Write(html)
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	res, hit, err := s.enhance(data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if s.cache != nil {
		if hit {
			w.Header().Set("X-Pagekit-Cache", "hit")
		} else {
			w.Header().Set("X-Pagekit-Cache", "miss")
		}
	}
	writePage(w, res.HTML, len(res.Outline), res.ExternalLinks)
}

// enhance processes a page, reusing the result for a body seen recently.
// Cached results are shared and must not be modified.
func (s *Server) enhance(data []byte) (res *enhance.Result, hit bool, err error) {
	var key string
	if s.cache != nil {
		key = pipeline.ContentHashHex(data)
		if res, ok := s.cache.Get(key); ok {
			return res, true, nil
		}
	}
	res, err = s.enhancer.Process(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		s.cache.Add(key, res)
	}
	return res, false, nil
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	entries, err := s.enhancer.Outline(bytes.NewReader(data))
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if entries == nil {
		entries = []outline.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"entries": entries})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	src, status, err := s.readUpload(headers[0])
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	res, html, err := s.orchestrator.Converter().Convert(src.Name, src.Data, nil)
	if err != nil {
		s.log.Warn("convert failed", "file", src.Name, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", res.Output))
	writePage(w, html, len(res.Outline), res.ExternalLinks)
}
