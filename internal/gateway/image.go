package gateway

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// DataURL encodes an image as the base64 data URL the classifier expects.
func DataURL(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
