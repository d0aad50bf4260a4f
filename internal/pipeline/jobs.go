package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/pagekit/internal/outline"
	"github.com/google/uuid"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusRendering JobStatus = "rendering"
	StatusEnhancing JobStatus = "enhancing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// SourceFile is one uploaded article source.
type SourceFile struct {
	Name string
	Data []byte
}

// FileResult is the outcome for one source file.
type FileResult struct {
	Name          string          `json:"name"`
	Output        string          `json:"output,omitempty"` // Output file name, "<slug>.html".
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	Date          string          `json:"date,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	ContentHash   string          `json:"content_hash,omitempty"`
	Outline       []outline.Entry `json:"outline,omitempty"`
	ExternalLinks int             `json:"external_links"`
	Error         string          `json:"error,omitempty"`

	html []byte
}

// Job tracks the state of a batch of page conversions.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	files   []SourceFile
	results []*FileResult
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalFiles     int      `json:"total_files"`
	FilesProcessed int      `json:"files_processed"`
	FilesFailed    int      `json:"files_failed"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for files.
func NewJob(files []SourceFile) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  Progress{TotalFiles: len(files)},
		CreatedAt: now,
		UpdatedAt: now,
		files:     files,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Delete removes a job.
func (s *JobStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.lastUpdate()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) lastUpdate() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.Status {
	case StatusCompleted, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddResult records the outcome of one file.
func (j *Job) AddResult(r *FileResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, r)
	j.Progress.FilesProcessed++
	if r.Error != "" {
		j.Progress.FilesFailed++
	}
	j.UpdatedAt = time.Now()
}

// Files returns the job's source files.
func (j *Job) Files() []SourceFile {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.files
}

// releaseFiles drops source bytes once they are no longer needed.
func (j *Job) releaseFiles() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.files = nil
}

// Output returns the enhanced page for an output or source file name.
func (j *Job) Output(name string) ([]byte, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, r := range j.results {
		if r.Error == "" && (r.Output == name || r.Name == name) {
			return r.html, true
		}
	}
	return nil, false
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string       `json:"job_id"`
	Status   JobStatus    `json:"status"`
	Phase    string       `json:"phase"`
	Progress Progress     `json:"progress"`
	Files    []FileResult `json:"files"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	files := make([]FileResult, 0, len(j.results))
	for _, r := range j.results {
		cp := *r
		cp.html = nil
		files = append(files, cp)
	}
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalFiles:     j.Progress.TotalFiles,
			FilesProcessed: j.Progress.FilesProcessed,
			FilesFailed:    j.Progress.FilesFailed,
			Errors:         errs,
		},
		Files: files,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
