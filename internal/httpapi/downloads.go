package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// handleDownload resolves an opaque asset token and streams the object.
// Every failure mode on this path reads as 404: tampered tokens are never
// partially decoded into a usable id.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	download, err := s.downloads.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer download.Content.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Media.Name))
	if download.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(download.Size, 10))
	}
	_, _ = io.Copy(w, download.Content)
}
