package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusImporting JobStatus = "importing"
	StatusRendering JobStatus = "rendering"
	StatusExporting JobStatus = "exporting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Kind names the conversion a job performs.
type Kind string

const (
	KindDOCXToHTML     Kind = "docx-to-html"
	KindHTMLToDOCX     Kind = "html-to-docx"
	KindDOCXToMarkdown Kind = "docx-to-markdown"
	KindMarkdownToDOCX Kind = "markdown-to-docx"
	KindDOCXToText     Kind = "docx-to-text"
	KindAnyToDOCX      Kind = "any-to-docx"
)

// Kinds lists every supported conversion.
var Kinds = []Kind{
	KindDOCXToHTML, KindHTMLToDOCX, KindDOCXToMarkdown,
	KindMarkdownToDOCX, KindDOCXToText, KindAnyToDOCX,
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Result content types.
const (
	ContentTypeHTML     = "text/html; charset=utf-8"
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeText     = "text/plain; charset=utf-8"
	ContentTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// producesDOCX reports whether the job's result is a package.
func (k Kind) producesDOCX() bool {
	switch k {
	case KindHTMLToDOCX, KindMarkdownToDOCX, KindAnyToDOCX:
		return true
	}
	return false
}

// ErrNotFinished is returned by Result while the job is still running.
var ErrNotFinished = errors.New("job has not finished")

// Job tracks the state of a single conversion.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id,omitempty"`

	Kind     Kind      `json:"kind"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	// Paged selects host-side pagination for HTML results.
	Paged bool `json:"paged"`
	// Save stores package results in the document store under DocID.
	Save bool `json:"save"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData    []byte
	result      []byte
	contentType string
	warnings    []string
	errors      []string
	err         error
}

// NewJob builds a queued job holding data.
func NewJob(kind Kind, filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
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
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error message without changing the status.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the input bytes.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// SetDocID records the stored document id.
func (j *Job) SetDocID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DocID = id
}

// Complete stores the result and warnings and marks the job completed in
// one step, so pollers never see a completed job without its result.
func (j *Job) Complete(result []byte, contentType string, warnings []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = result
	j.contentType = contentType
	j.warnings = warnings
	j.fileData = nil
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed during phase.
func (j *Job) Fail(phase string, err error, warnings []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.err = err
	j.errors = append(j.errors, err.Error())
	j.warnings = warnings
	j.fileData = nil
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Err returns the error that failed the job, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Result returns the converted bytes and their content type.
func (j *Job) Result() ([]byte, string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.Status {
	case StatusCompleted:
		return j.result, j.contentType, nil
	case StatusFailed:
		return nil, "", j.err
	}
	return nil, "", ErrNotFinished
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id,omitempty"`
	Kind        Kind      `json:"kind"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	ResultBytes int       `json:"result_bytes"`
	Warnings    []string  `json:"warnings"`
	Errors      []string  `json:"errors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Kind:        j.Kind,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		ContentHash: j.ContentHash,
		ContentType: j.contentType,
		ResultBytes: len(j.result),
		Warnings:    nonNil(j.warnings),
		Errors:      nonNil(j.errors),
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
