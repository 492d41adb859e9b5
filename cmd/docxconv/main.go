// Command docxconv converts between word-processing packages, HTML,
// Markdown and plain text from the command line.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/docx"
	"github.com/dgallion1/docxedit/internal/markup"
	"github.com/dgallion1/docxedit/internal/parser"
	"github.com/dgallion1/docxedit/internal/render"
)

// Globals are flags shared by every command.
type Globals struct {
	Verbose bool `short:"v" help:"Log partial-content warnings to stderr"`
}

func (g *Globals) sink() diag.Sink {
	if !g.Verbose {
		return nil
	}
	return diag.SlogSink(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// CLI defines the command-line interface for docxconv.
type CLI struct {
	Globals

	Render   RenderCmd   `cmd:"" help:"Render a package as HTML"`
	Export   ExportCmd   `cmd:"" help:"Build a package from HTML or Markdown"`
	Text     TextCmd     `cmd:"" help:"Print the plain text of a package"`
	Markdown MarkdownCmd `cmd:"" help:"Print a package as Markdown"`
	Probe    ProbeCmd    `cmd:"" help:"Check that a package opens and summarize it"`
	Convert  ConvertCmd  `cmd:"" help:"Build a package from any supported source file"`
}

// RenderCmd renders a package to HTML.
type RenderCmd struct {
	Path        string `arg:"" help:"Package to render" type:"existingfile"`
	Out         string `short:"o" help:"Output file (default stdout)" type:"path"`
	Paged       bool   `help:"Split pages on the host instead of in the browser"`
	Script      bool   `help:"Append the browser pagination script (flow mode)"`
	MaxElements int    `name:"max-elements" default:"40" help:"Blocks per page in paged mode"`
	Title       string `help:"Document title"`
}

func (c *RenderCmd) Run(ctx context.Context, g *Globals) error {
	doc, err := docx.ImportFile(ctx, c.Path, docx.ImportOptions{Sink: g.sink()})
	if err != nil {
		return err
	}
	opts := render.Options{
		MaxElementsPerPage: c.MaxElements,
		Script:             c.Script,
		Title:              c.Title,
		Sink:               g.sink(),
	}
	if opts.Title == "" {
		opts.Title = parser.TitleFromFilename(c.Path)
	}
	if c.Paged {
		opts.Mode = render.ModePaged
	}
	out, err := render.Render(doc, opts)
	if err != nil {
		return err
	}
	return writeOutput(c.Out, out.HTML)
}

// ExportCmd builds a package from markup.
type ExportCmd struct {
	Path     string `arg:"" help:"HTML or Markdown source" type:"existingfile"`
	Out      string `short:"o" required:"" help:"Output package" type:"path"`
	Title    string `help:"Document title"`
	Sanitize bool   `help:"Strip markup outside the editing vocabulary first"`
}

func (c *ExportCmd) Run(ctx context.Context, g *Globals) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return diag.IO("read source", err)
	}
	opts := markup.Options{Sanitize: c.Sanitize, Sink: g.sink()}
	var doc *docmodel.Document
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".md", ".markdown":
		doc, err = markup.ImportMarkdown(ctx, data, opts)
	default:
		doc, err = markup.Import(ctx, bytes.NewReader(data), opts)
	}
	if err != nil {
		return err
	}
	return exportTo(ctx, doc, c.Out, c.Title, c.Path, g)
}

// ConvertCmd builds a package from any loader-supported file.
type ConvertCmd struct {
	Path  string `arg:"" help:"Source file (.txt .md .csv .html .docx)" type:"existingfile"`
	Out   string `short:"o" required:"" help:"Output package" type:"path"`
	Title string `help:"Document title"`
}

func (c *ConvertCmd) Run(ctx context.Context, g *Globals) error {
	p, err := parser.ForFile(c.Path)
	if err != nil {
		return err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return diag.IO("open source", err)
	}
	defer f.Close()
	doc, err := p.Parse(ctx, f, filepath.Base(c.Path), g.sink())
	if err != nil {
		return err
	}
	return exportTo(ctx, doc, c.Out, c.Title, c.Path, g)
}

func exportTo(ctx context.Context, doc *docmodel.Document, out, title, src string, g *Globals) error {
	if title == "" {
		title = parser.TitleFromFilename(src)
	}
	return docx.ExportFile(ctx, doc, out, docx.ExportOptions{KeepPage: true, Title: title, Sink: g.sink()})
}

// TextCmd prints plain text.
type TextCmd struct {
	Path string `arg:"" help:"Package to read" type:"existingfile"`
}

func (c *TextCmd) Run(ctx context.Context, g *Globals) error {
	doc, err := docx.ImportFile(ctx, c.Path, docx.ImportOptions{Sink: g.sink()})
	if err != nil {
		return err
	}
	fmt.Println(docx.PlainText(doc))
	return nil
}

// MarkdownCmd prints Markdown.
type MarkdownCmd struct {
	Path string `arg:"" help:"Package to read" type:"existingfile"`
	Out  string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *MarkdownCmd) Run(ctx context.Context, g *Globals) error {
	doc, err := docx.ImportFile(ctx, c.Path, docx.ImportOptions{Sink: g.sink()})
	if err != nil {
		return err
	}
	md, err := render.Markdown(doc)
	if err != nil {
		return err
	}
	return writeOutput(c.Out, []byte(md+"\n"))
}

// ProbeCmd summarizes a package with the independent reader.
type ProbeCmd struct {
	Path string `arg:"" help:"Package to check" type:"existingfile"`
}

func (c *ProbeCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return diag.IO("read package", err)
	}
	res, err := docx.Probe(data)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diag.IO("write output", err)
	}
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("docxconv"),
		kong.Description("Convert word-processing packages to and from editable HTML"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}
