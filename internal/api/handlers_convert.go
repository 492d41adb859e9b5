package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docx"
	"github.com/dgallion1/docxedit/internal/parser"
	"github.com/dgallion1/docxedit/internal/pipeline"
	"github.com/dgallion1/docxedit/internal/render"
	"github.com/go-chi/chi/v5/middleware"
)

// readUpload returns the request payload: the "file" part of a multipart
// form, or the raw body otherwise.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	// Limit total request size, with 1MB extra for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var src io.Reader = r.Body
	filename := r.URL.Query().Get("filename")
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return nil, "", false
		}
		defer r.MultipartForm.RemoveAll()
		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return nil, "", false
		}
		defer file.Close()
		src = file
		filename = header.Filename
	}

	data, err := io.ReadAll(io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			jsonError(w, "failed to read upload", http.StatusBadRequest)
		}
		return nil, "", false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	if len(data) == 0 {
		jsonError(w, "empty upload", http.StatusBadRequest)
		return nil, "", false
	}
	if filename != "" {
		filename = sanitizeFilename(filename)
	}
	return data, filename, true
}

// convert runs req on the request goroutine and writes the result.
func (s *Server) convert(w http.ResponseWriter, r *http.Request, req pipeline.Request) {
	log := s.log.With("request_id", middleware.GetReqID(r.Context()), "kind", req.Kind)
	var warnings diag.Collector
	sink := diag.Tee(warnings.Sink(), diag.SlogSink(log))

	out, contentType, err := s.converter.Convert(r.Context(), req, sink, nil)
	if err != nil {
		log.Error("conversion failed", "error", err)
		engineError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Warning-Count", strconv.Itoa(len(warnings.Warnings())))
	if contentType == pipeline.ContentTypeDOCX {
		name := req.Title
		if name == "" {
			name = parser.TitleFromFilename(req.Filename)
		}
		if name == "" || name == "." {
			name = "document"
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".docx"))
	}
	w.Write(out)
}

// handleRender converts an uploaded package to HTML, or to Markdown or
// plain text with ?format=.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, ok := render.ParseMode(q.Get("mode"))
	if !ok {
		jsonError(w, "mode must be flow or paged", http.StatusBadRequest)
		return
	}
	kind := pipeline.KindDOCXToHTML
	switch q.Get("format") {
	case "", "html":
	case "markdown", "md":
		kind = pipeline.KindDOCXToMarkdown
	case "text", "txt":
		kind = pipeline.KindDOCXToText
	default:
		jsonError(w, "format must be html, markdown or text", http.StatusBadRequest)
		return
	}

	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.convert(w, r, pipeline.Request{
		Kind:     kind,
		Filename: filename,
		Title:    q.Get("title"),
		Paged:    mode == render.ModePaged,
		Data:     data,
	})
}

// handleExport converts HTML, or Markdown, to a package.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	kind := pipeline.KindHTMLToDOCX
	if isMarkdown(r, filename) {
		kind = pipeline.KindMarkdownToDOCX
	}
	s.convert(w, r, pipeline.Request{
		Kind:     kind,
		Filename: filename,
		Title:    r.URL.Query().Get("title"),
		Data:     data,
	})
}

func isMarkdown(r *http.Request, filename string) bool {
	switch r.URL.Query().Get("format") {
	case "markdown", "md":
		return true
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/markdown") {
		return true
	}
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// handleProbe reports whether an uploaded package opens, using the
// independent reader.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	res, err := docx.Probe(data)
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
