package docx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/beevik/etree"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

// Default picture size when neither the package nor the image bytes say.
const (
	defaultPictureWidthPx  = 200
	defaultPictureHeightPx = 150
)

// runPictures decodes the pictures embedded in run r. A picture that cannot
// be resolved is reported and skipped.
func (im *importer) runPictures(r *etree.Element, pc partContext) []*docmodel.Image {
	var out []*docmodel.Image
	im.collectPictures(r, pc, &out, 0)
	return out
}

func (im *importer) collectPictures(el *etree.Element, pc partContext, out *[]*docmodel.Image, depth int) {
	if depth > docmodel.MaxDepth {
		return
	}
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "drawing":
			blip := findFirst(c, "blip")
			if blip == nil {
				continue
			}
			id := blip.SelectAttrValue("r:embed", attr(blip, "embed"))
			var cx, cy int64
			if ext := findFirst(c, "extent"); ext != nil {
				w, _ := intAttr(ext, "cx")
				h, _ := intAttr(ext, "cy")
				cx, cy = int64(w), int64(h)
			}
			if img := im.picture(id, cx, cy, pc); img != nil {
				*out = append(*out, img)
			}
		case "pict", "object":
			data := findFirst(c, "imagedata")
			if data == nil {
				continue
			}
			id := data.SelectAttrValue("r:id", attr(data, "id"))
			if img := im.picture(id, 0, 0, pc); img != nil {
				*out = append(*out, img)
			}
		case "AlternateContent":
			// Prefer the first choice; fall back only when it has no picture.
			branch := child(c, "Choice")
			if branch == nil || !hasPicture(branch) {
				branch = child(c, "Fallback")
			}
			if branch != nil {
				im.collectPictures(branch, pc, out, depth+1)
			}
		}
	}
}

// picture loads the image part behind relationship id.
func (im *importer) picture(id string, cx, cy int64, pc partContext) *docmodel.Image {
	element := "picture " + id
	if id == "" {
		im.warn(element, errors.New("missing relationship id"))
		return nil
	}
	rel, ok := pc.rels[id]
	if !ok {
		im.warn(element, fmt.Errorf("relationship not found in %s", pc.name))
		return nil
	}
	if rel.External {
		im.warn(element, fmt.Errorf("linked picture %s is not embedded", rel.Target))
		return nil
	}
	data, err := im.pkg.read(rel.Target)
	if err != nil {
		im.warn(element, err)
		return nil
	}
	if len(data) == 0 {
		im.warn(element, fmt.Errorf("part %s is empty", rel.Target))
		return nil
	}

	img := &docmodel.Image{Data: data, Format: formatFromExt(rel.Target), WidthEMU: cx, HeightEMU: cy}
	if img.WidthEMU <= 0 || img.HeightEMU <= 0 || img.Format == "" {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		switch {
		case err == nil:
			if img.Format == "" {
				img.Format = format
			}
			if img.WidthEMU <= 0 || img.HeightEMU <= 0 {
				img.WidthEMU = units.PixelsToEMU(float64(cfg.Width))
				img.HeightEMU = units.PixelsToEMU(float64(cfg.Height))
			}
		case img.WidthEMU <= 0 || img.HeightEMU <= 0:
			img.WidthEMU = units.PixelsToEMU(defaultPictureWidthPx)
			img.HeightEMU = units.PixelsToEMU(defaultPictureHeightPx)
		}
	}
	if img.Format == "" {
		img.Format = "png"
	}
	return img
}

// formatFromExt maps a part name's extension to an image format name, or
// "" when the extension is not recognized.
func formatFromExt(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "png":
		return "png"
	case "jpg", "jpeg", "jpe":
		return "jpeg"
	case "gif":
		return "gif"
	case "bmp", "dib":
		return "bmp"
	case "tif", "tiff":
		return "tiff"
	case "webp":
		return "webp"
	case "emf":
		return "emf"
	case "wmf":
		return "wmf"
	case "svg":
		return "svg"
	}
	return ""
}
