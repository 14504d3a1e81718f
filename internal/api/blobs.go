package api

import (
	"io"
	"net/http"

	"github.com/erazemk/shramba/internal/blob"
)

// BlobsHandler serves stored blobs to clients holding a valid signed URL.
type BlobsHandler struct {
	Store  blob.Store
	Signer *blob.URLSigner
}

// Get handles GET /blobs/{bucket}/{path}. The token query parameter must be
// a signed URL token bound to exactly this reference.
func (h *BlobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := blob.Ref{
		Bucket: r.PathValue("bucket"),
		Path:   r.PathValue("path"),
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		jsonError(w, http.StatusUnauthorized, "missing token")
		return
	}
	if err := h.Signer.Verify(token, ref); err != nil {
		jsonError(w, http.StatusForbidden, "invalid or expired token")
		return
	}

	rc, err := h.Store.Open(r.Context(), ref)
	if err != nil {
		jsonError(w, http.StatusNotFound, "blob not found")
		return
	}
	defer rc.Close()

	// Sniff the content type from the first bytes.
	head := make([]byte, 512)
	n, _ := io.ReadFull(rc, head)
	head = head[:n]

	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(head)
	io.Copy(w, rc)
}
