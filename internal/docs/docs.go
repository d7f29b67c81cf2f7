// Package docs serves the OpenAPI description of the JSON API and a
// browsable reference page for it.
package docs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
)

//go:embed openapi.yaml
var specYAML []byte

var specETag = func() string {
	sum := sha256.Sum256(specYAML)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

const (
	specPath   = "/api/docs/openapi.yaml"
	scalarCDN  = "https://cdn.jsdelivr.net"
	scalarPage = `<!DOCTYPE html>
<html lang="en"><head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Vixel API Reference</title>
</head><body>
  <script id="api-reference" data-url="` + specPath + `"></script>
  <script src="` + scalarCDN + `/npm/@scalar/api-reference"></script>
</body></html>`
)

func HandleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", specETag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.Header.Get("If-None-Match") == specETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(specYAML)
}

// HandleDocs serves the Scalar reference page. Scalar injects inline scripts
// and styles, so this page swaps the nonce policy for one scoped to its CDN.
func HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy",
		"default-src 'self'; "+
			"script-src 'self' "+scalarCDN+" 'unsafe-inline'; "+
			"style-src 'self' "+scalarCDN+" 'unsafe-inline'; "+
			"font-src 'self' "+scalarCDN+" data:; "+
			"img-src 'self' data: https://i.ytimg.com; connect-src 'self'; frame-ancestors 'self';")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(scalarPage))
}
