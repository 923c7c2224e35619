package ingest

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
)

// Attribution is the credit information embedded in an image file.
type Attribution struct {
	Artist    string `json:"artist,omitempty"`
	Copyright string `json:"copyright,omitempty"`
	Credit    string `json:"credit,omitempty"`
	License   string `json:"license,omitempty"`
}

// String joins the non-empty fields with "; ".
func (a Attribution) String() string {
	var parts []string
	for _, s := range []string{a.Artist, a.Copyright, a.Credit, a.License} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

var attributionTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {"Artist": true, "Copyright": true},
	imagemeta.IPTC: {"Byline": true, "CopyrightNotice": true, "Credit": true},
	imagemeta.XMP:  {"Creator": true, "Rights": true, "License": true, "WebStatement": true},
}

var metaFormats = map[string]imagemeta.ImageFormat{
	"jpeg": imagemeta.JPEG,
	"png":  imagemeta.PNG,
	"webp": imagemeta.WebP,
}

// ReadAttribution extracts EXIF/IPTC/XMP credit fields from raw image bytes.
// format is the decoder's format name. Unsupported formats and unreadable
// metadata yield a zero Attribution.
func ReadAttribution(data []byte, format string) Attribution {
	var a Attribution
	imageFormat, ok := metaFormats[format]
	if !ok || len(data) == 0 {
		return a
	}

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: imageFormat,
		Sources:     imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return attributionTags[ti.Source][ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s := tagValueString(ti.Value)
			if s == "" {
				return nil
			}
			switch ti.Tag {
			case "Artist", "Byline", "Creator":
				setOnce(&a.Artist, s)
			case "Copyright", "CopyrightNotice", "Rights":
				setOnce(&a.Copyright, s)
			case "Credit":
				setOnce(&a.Credit, s)
			case "License", "WebStatement":
				setOnce(&a.License, s)
			}
			return nil
		},
	})
	if err != nil {
		return Attribution{}
	}
	return a
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

// tagValueString extracts a string from a tag value. XMP values may be a
// string or a list.
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
