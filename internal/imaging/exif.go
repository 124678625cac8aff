package imaging

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ExtractCredit returns the EXIF Artist, or Copyright when no artist is set.
func ExtractCredit(data []byte) string {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	for _, field := range []exif.FieldName{exif.Artist, exif.Copyright} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(strings.Trim(s, "\x00")); s != "" {
			return s
		}
	}
	return ""
}
