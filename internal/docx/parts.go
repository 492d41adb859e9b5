// Package docx reads and writes OOXML word-processing packages to and from
// the document model.
package docx

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsCT  = "http://schemas.openxmlformats.org/package/2006/content-types"

	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relNumbering      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relSettings       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relHeader         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relFooter         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"

	defaultMainPart = "word/document.xml"
)

// relationship is one entry of a part's .rels file.
type relationship struct {
	ID       string
	Type     string
	Target   string // resolved package path
	External bool
}

// pkg is a read-only view of the zip container scoped to one import.
type pkg struct {
	files map[string]*zip.File
}

func openPackage(r io.ReaderAt, size int64) (*pkg, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	p := &pkg{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}
	return p, nil
}

func (p *pkg) has(name string) bool {
	_, ok := p.files[name]
	return ok
}

func (p *pkg) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("part %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %q: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %q: %w", name, err)
	}
	return data, nil
}

func (p *pkg) xml(name string) (*etree.Document, error) {
	data, err := p.read(name)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse xml %s: %w", name, err)
	}
	return doc, nil
}

// relsPath returns the relationships part for a part, e.g.
// word/document.xml -> word/_rels/document.xml.rels.
func relsPath(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// rels parses the relationships of part. A missing .rels file is not an
// error; it yields an empty map.
func (p *pkg) rels(part string) (map[string]relationship, error) {
	out := make(map[string]relationship)
	name := relsPath(part)
	if !p.has(name) {
		return out, nil
	}
	doc, err := p.xml(name)
	if err != nil {
		return out, err
	}
	root := doc.Root()
	if root == nil {
		return out, nil
	}
	base := path.Dir(part)
	for _, el := range root.ChildElements() {
		if el.Tag != "Relationship" {
			continue
		}
		rel := relationship{
			ID:       el.SelectAttrValue("Id", ""),
			Type:     el.SelectAttrValue("Type", ""),
			External: strings.EqualFold(el.SelectAttrValue("TargetMode", ""), "External"),
		}
		target := el.SelectAttrValue("Target", "")
		switch {
		case rel.External:
			rel.Target = target
		case strings.HasPrefix(target, "/"):
			rel.Target = strings.TrimPrefix(target, "/")
		default:
			rel.Target = path.Clean(path.Join(base, target))
		}
		if rel.ID != "" {
			out[rel.ID] = rel
		}
	}
	return out, nil
}

// mainPart finds the main document part via the package relationships.
func (p *pkg) mainPart() string {
	rels, err := p.rels("")
	if err == nil {
		for _, rel := range rels {
			if rel.Type == relOfficeDocument && !rel.External {
				return rel.Target
			}
		}
	}
	return defaultMainPart
}

// firstTarget returns the target of the first relationship of typ.
func firstTarget(rels map[string]relationship, typ string) string {
	for _, rel := range rels {
		if rel.Type == typ && !rel.External {
			return rel.Target
		}
	}
	return ""
}

// attr reads a w:-style attribute by local name.
func attr(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(key, "")
}

// child returns the first direct child with the given local name.
func child(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	return el.SelectElement(tag)
}

// intAttr parses an integer attribute; ok is false when absent or invalid.
func intAttr(el *etree.Element, key string) (int, bool) {
	v := attr(el, key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Some writers emit fractional twips.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, false
		}
		return int(f), true
	}
	return n, true
}

// onOff interprets a toggle property: present without w:val means on.
func onOff(el *etree.Element) bool {
	if el == nil {
		return false
	}
	switch strings.ToLower(attr(el, "val")) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}
