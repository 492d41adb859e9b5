package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docxedit/internal/config"
	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/docx"
	"github.com/dgallion1/docxedit/internal/markup"
	"github.com/dgallion1/docxedit/internal/parser"
	"github.com/dgallion1/docxedit/internal/render"
	"github.com/dgallion1/docxedit/internal/store"
)

// Settings are the engine options shared by every job a worker runs.
type Settings struct {
	Render         render.Options
	SanitizeMarkup bool
}

// SettingsFromConfig derives engine settings from the service config.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		Render: render.Options{
			MaxElementsPerPage: cfg.MaxElementsPerPage,
			PageHeightPx:       cfg.PageHeightPx,
			OverflowMarginPx:   cfg.OverflowMarginPx,
		},
		SanitizeMarkup: cfg.SanitizeMarkup,
	}
}

// Worker processes a single conversion job.
type Worker struct {
	store    *store.Store
	log      *slog.Logger
	settings Settings
}

func NewWorker(st *store.Store, log *slog.Logger, settings Settings) *Worker {
	return &Worker{store: st, log: log, settings: settings}
}

// Request is one conversion, detached from job bookkeeping.
type Request struct {
	Kind     Kind
	Filename string
	Title    string
	Paged    bool
	Data     []byte
}

// Process runs the conversion for a job and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind, "filename", job.Filename)
	var warnings diag.Collector
	sink := diag.Tee(warnings.Sink(), diag.SlogSink(log))

	data := job.FileData()
	job.SetContentHash(ContentHashHex(data))

	req := Request{Kind: job.Kind, Filename: job.Filename, Title: job.Title, Paged: job.Paged, Data: data}
	phase := "importing"
	out, contentType, err := w.Convert(ctx, req, sink, func(s JobStatus, p string) {
		phase = p
		job.SetStatus(s, p)
	})
	if err != nil {
		log.Error("conversion failed", "phase", phase, "error", err)
		job.Fail(phase, err, warnings.Strings())
		return
	}

	if job.Save && job.Kind.producesDOCX() {
		docID, err := w.save(ctx, log, job, out)
		if err != nil {
			log.Error("save failed", "error", err)
			job.Fail("saving", err, warnings.Strings())
			return
		}
		job.SetDocID(docID)
	}

	log.Info("conversion complete", "bytes", len(out), "warnings", len(warnings.Warnings()))
	job.Complete(out, contentType, warnings.Strings())
}

// Convert performs req synchronously. progress, when non-nil, is told each
// phase as it starts.
func (w *Worker) Convert(ctx context.Context, req Request, sink diag.Sink, progress func(JobStatus, string)) ([]byte, string, error) {
	step := func(s JobStatus, phase string) {
		if progress != nil {
			progress(s, phase)
		}
	}

	step(StatusImporting, "importing")
	doc, err := w.load(ctx, req, sink)
	if err != nil {
		return nil, "", err
	}
	title := req.Title
	if title == "" {
		title = parser.TitleFromFilename(req.Filename)
	}

	switch req.Kind {
	case KindDOCXToHTML:
		step(StatusRendering, "rendering")
		opts := w.settings.Render
		opts.Title = title
		opts.Sink = sink
		if req.Paged {
			opts.Mode = render.ModePaged
		} else {
			opts.Script = true
		}
		out, err := render.Render(doc, opts)
		if err != nil {
			return nil, "", err
		}
		return out.HTML, ContentTypeHTML, nil
	case KindDOCXToMarkdown:
		step(StatusRendering, "rendering")
		md, err := render.Markdown(doc)
		if err != nil {
			return nil, "", err
		}
		return []byte(md), ContentTypeMarkdown, nil
	case KindDOCXToText:
		step(StatusRendering, "rendering")
		return []byte(docx.PlainText(doc)), ContentTypeText, nil
	default:
		step(StatusExporting, "exporting")
		data, err := docx.ExportBytes(ctx, doc, docx.ExportOptions{KeepPage: true, Title: title, Sink: sink})
		if err != nil {
			return nil, "", err
		}
		return data, ContentTypeDOCX, nil
	}
}

func (w *Worker) load(ctx context.Context, req Request, sink diag.Sink) (*docmodel.Document, error) {
	mopts := markup.Options{Sanitize: w.settings.SanitizeMarkup, Sink: sink}
	switch req.Kind {
	case KindDOCXToHTML, KindDOCXToMarkdown, KindDOCXToText:
		return docx.ImportBytes(ctx, req.Data, docx.ImportOptions{Sink: sink})
	case KindHTMLToDOCX:
		return markup.Import(ctx, bytes.NewReader(req.Data), mopts)
	case KindMarkdownToDOCX:
		return markup.ImportMarkdown(ctx, req.Data, mopts)
	case KindAnyToDOCX:
		p, err := parser.ForFile(req.Filename)
		if err != nil {
			return nil, diag.Format("select parser", err)
		}
		if hp, ok := p.(*parser.HTMLParser); ok {
			hp.Sanitize = w.settings.SanitizeMarkup
		}
		return p.Parse(ctx, bytes.NewReader(req.Data), req.Filename, sink)
	}
	return nil, fmt.Errorf("unknown job kind %q", req.Kind)
}

// save writes a package result to the store. Identical input maps to the
// same id, so an existing document is left as is.
func (w *Worker) save(ctx context.Context, log *slog.Logger, job *Job, data []byte) (string, error) {
	if w.store == nil {
		return "", errors.New("no document store configured")
	}
	job.mu.Lock()
	docID, hash := job.DocID, job.ContentHash
	job.mu.Unlock()

	overwrite := docID != ""
	if docID == "" {
		docID = hash[:16]
	}
	docID, err := store.CleanID(docID)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := w.store.Stat(docID); err == nil {
			log.Info("duplicate document, skipping write", "doc_id", docID)
			return docID, nil
		}
	}

	var sw *store.Writer
	for attempt := range MaxRetries {
		sw, err = w.store.OpenWrite(docID)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("document busy", "doc_id", docID, "attempt", attempt)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if _, err := sw.Write(data); err != nil {
		sw.Abort()
		return "", diag.IO("write document", err)
	}
	if err := sw.Close(); err != nil {
		return "", diag.IO("commit document", err)
	}
	return docID, nil
}
