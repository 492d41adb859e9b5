package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docx"
	"github.com/dgallion1/docxedit/internal/markup"
	"github.com/dgallion1/docxedit/internal/pipeline"
	"github.com/dgallion1/docxedit/internal/render"
	"github.com/dgallion1/docxedit/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// handleListDocuments lists the stored documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List()
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) readStored(id string) ([]byte, error) {
	rc, err := s.store.OpenRead(id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, diag.IO("read document", err)
	}
	return data, nil
}

// handleDownloadDocument returns the stored package bytes.
func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	data, err := s.readStored(chi.URLParam(r, "docID"))
	if err != nil {
		engineError(w, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypeDOCX)
	w.Write(data)
}

// handleDocumentHTML renders a stored document for editing.
func (s *Server) handleDocumentHTML(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	mode, ok := render.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		jsonError(w, "mode must be flow or paged", http.StatusBadRequest)
		return
	}
	data, err := s.readStored(docID)
	if err != nil {
		engineError(w, err)
		return
	}
	s.convert(w, r, pipeline.Request{
		Kind:     pipeline.KindDOCXToHTML,
		Filename: docID,
		Paged:    mode == render.ModePaged,
		Data:     data,
	})
}

// handlePutDocument replaces a stored document with edited markup.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	s.saveMarkup(w, r, chi.URLParam(r, "docID"), http.StatusOK)
}

// handleCreateDocument stores markup as a new document.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	s.saveMarkup(w, r, store.NewID(), http.StatusCreated)
}

// saveMarkup imports the request body and exports it into the store. The
// destination is reserved first, so a concurrent save of the same id fails
// fast with 409 and the existing package stays intact on any error.
func (s *Server) saveMarkup(w http.ResponseWriter, r *http.Request, docID string, status int) {
	log := s.log.With("request_id", middleware.GetReqID(r.Context()), "doc_id", docID)
	sw, err := s.store.OpenWrite(docID)
	if err != nil {
		engineError(w, err)
		return
	}
	defer sw.Abort()

	var warnings diag.Collector
	sink := diag.Tee(warnings.Sink(), diag.SlogSink(log))
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	doc, err := markup.Import(r.Context(), body, markup.Options{Sanitize: s.cfg.SanitizeMarkup, Sink: sink})
	if err != nil {
		engineError(w, err)
		return
	}
	opts := docx.ExportOptions{KeepPage: true, Title: r.URL.Query().Get("title"), Sink: sink}
	if err := docx.Export(r.Context(), doc, sw, opts); err != nil {
		log.Error("export failed", "error", err)
		engineError(w, err)
		return
	}
	if err := sw.Close(); err != nil {
		log.Error("commit failed", "error", err)
		engineError(w, diag.IO("commit document", err))
		return
	}
	info, err := s.store.Stat(sw.ID())
	if err != nil {
		engineError(w, err)
		return
	}
	w.Header().Set("X-Warning-Count", strconv.Itoa(len(warnings.Warnings())))
	writeJSON(w, status, map[string]any{
		"document": info,
		"warnings": warnings.Strings(),
	})
}

// handleDeleteDocument removes a stored document.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Remove(chi.URLParam(r, "docID")); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
