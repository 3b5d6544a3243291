package httpx

import (
	"fmt"
	"net/http"
)

// AbsoluteURL builds an absolute link to a path on the host serving the
// request.
func AbsoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, path)
}
