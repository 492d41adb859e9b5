package markup

import (
	"encoding/base64"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

// Pixel size used when an <img> declares no usable width or height.
const (
	defaultImageWidthPx  = 200
	defaultImageHeightPx = 150
)

var (
	errNotDataURI   = errors.New("image source is not a data URI")
	errEmptyPayload = errors.New("image data is empty")
)

// decodeDataURI decodes an image data URI. The MIME subtype selects the
// picture format; unknown subtypes are stored as png.
func decodeDataURI(src string) (*docmodel.Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(src), "data:")
	if !ok {
		return nil, errNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errNotDataURI
	}
	params := strings.Split(strings.ToLower(meta), ";")
	mime := strings.TrimSpace(params[0])
	if !strings.HasPrefix(mime, "image/") {
		return nil, errNotDataURI
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.TrimSpace(p) == "base64" {
			isBase64 = true
		}
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = decodeBase64(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyPayload
	}
	return &docmodel.Image{Data: data, Format: formatForMIME(mime)}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	return data, nil
}

func formatForMIME(mime string) string {
	switch strings.TrimPrefix(mime, "image/") {
	case "jpeg", "jpg", "pjpeg":
		return "jpeg"
	case "gif":
		return "gif"
	case "bmp", "x-ms-bmp":
		return "bmp"
	case "tiff", "tif":
		return "tiff"
	default:
		return "png"
	}
}

// pixelAttr parses a width or height attribute such as "100" or "100px".
func pixelAttr(v string, def int) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return float64(def)
	}
	return f
}

func sizeImage(img *docmodel.Image, width, height string) {
	img.WidthEMU = units.PixelsToEMU(pixelAttr(width, defaultImageWidthPx))
	img.HeightEMU = units.PixelsToEMU(pixelAttr(height, defaultImageHeightPx))
}
