package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docxedit/internal/parser"
	"github.com/dgallion1/docxedit/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleSubmitJob queues a conversion of an uploaded file.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if filename == "" {
		jsonError(w, "filename is required", http.StatusBadRequest)
		return
	}

	kind, ok := pipeline.ParseKind(r.FormValue("kind"))
	if !ok {
		if r.FormValue("kind") != "" {
			jsonError(w, "unknown kind: "+r.FormValue("kind"), http.StatusBadRequest)
			return
		}
		kind = defaultKind(filename)
	}
	if kind == pipeline.KindAnyToDOCX && !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(kind, filename, data)
	job.Title = r.FormValue("title")
	job.Paged = r.FormValue("mode") == "paged"
	job.Save, _ = strconv.ParseBool(r.FormValue("save"))
	job.DocID = r.FormValue("doc_id")

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"kind":     job.Kind,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

// defaultKind picks a conversion from the upload's extension.
func defaultKind(filename string) pipeline.Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return pipeline.KindDOCXToHTML
	case ".html", ".htm":
		return pipeline.KindHTMLToDOCX
	case ".md", ".markdown":
		return pipeline.KindMarkdownToDOCX
	}
	return pipeline.KindAnyToDOCX
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	data, contentType, err := job.Result()
	if errors.Is(err, pipeline.ErrNotFinished) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  err.Error(),
			"status": job.Snapshot().Status,
		})
		return
	}
	if err != nil {
		engineError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
