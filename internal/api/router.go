package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/shramba/internal/blob"
	"github.com/erazemk/shramba/internal/item"
)

// NewRouter creates the router with all endpoints registered.
func NewRouter(db *sql.DB, blobs blob.Store, signer *blob.URLSigner) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{
		DB:      db,
		Service: &item.Service{DB: db, Blobs: blobs},
		Signer:  signer,
	}
	blobsHandler := &BlobsHandler{Store: blobs, Signer: signer}

	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/counts", itemsHandler.Counts)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("PATCH /api/items/{id}", itemsHandler.Update)
	mux.HandleFunc("PUT /api/items/{id}/image", itemsHandler.UploadImage)
	mux.HandleFunc("POST /api/items/{id}/ate", itemsHandler.Ate)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)

	mux.HandleFunc("GET /blobs/{bucket}/{path}", blobsHandler.Get)

	return mux
}
