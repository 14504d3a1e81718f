package api

import (
	"database/sql"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/shramba/internal/blob"
	"github.com/erazemk/shramba/internal/expiry"
	"github.com/erazemk/shramba/internal/item"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/search"
	"github.com/erazemk/shramba/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	DB      *sql.DB
	Service *item.Service
	Signer  *blob.URLSigner
}

// itemView is an item as rendered to clients, with the expiration state
// computed at request time. Urgency, remaining seconds, countdown label and
// color all derive from the same instant, so they can never disagree.
type itemView struct {
	model.Item
	Urgency          string `json:"urgency,omitempty"`
	RemainingSeconds *int64 `json:"remaining_seconds,omitempty"`
	Countdown        string `json:"countdown,omitempty"`
	Color            string `json:"color,omitempty"`
	ImageURL         string `json:"image_url,omitempty"`
}

func (h *ItemsHandler) view(it model.Item, now time.Time) itemView {
	v := itemView{Item: it}

	if it.ExpiredAt != nil {
		v.Urgency = string(expiry.Classify(*it.ExpiredAt, now))
		remaining := it.ExpiredAt.Unix() - now.Unix()
		v.RemainingSeconds = &remaining
		v.Countdown = expiry.Label(remaining)
		v.Color = expiry.Color(remaining)
	}

	if it.HasAttachment() {
		ref := blob.Ref{Bucket: it.Bucket, Path: it.Path}
		if url, err := h.Signer.SignedURL(ref, blob.DefaultTTL); err == nil {
			v.ImageURL = url
		}
	}

	return v
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := q.Get("category")
	if category != "" && !model.ValidCategory(category) {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	offset, err := parseIntParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		jsonError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := parseIntParam(q.Get("limit"), search.DefaultPageSize)
	if err != nil || limit <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, store.Filter{
		Category: category,
		Keyword:  q.Get("keyword"),
	}, offset, limit)
	if err != nil {
		lifecycleError(w, err, "failed to list items")
		return
	}

	now := time.Now()
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, h.view(it, now))
	}
	jsonResponse(w, http.StatusOK, views)
}

// Counts handles GET /api/items/counts. All five counts are taken at the
// same instant so the four buckets always sum to the total.
func (h *ItemsHandler) Counts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := q.Get("category")
	if category != "" && !model.ValidCategory(category) {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	now := time.Now()
	counts := make(map[string]int, len(expiry.Buckets)+1)
	for _, bucket := range expiry.Buckets {
		n, err := store.CountItems(r.Context(), h.DB, store.Filter{
			Category: category,
			Keyword:  q.Get("keyword"),
			Bucket:   bucket,
			Now:      now,
		})
		if err != nil {
			lifecycleError(w, err, "failed to count items")
			return
		}
		counts[string(bucket)] = n
	}

	total, err := store.CountItems(r.Context(), h.DB, store.Filter{
		Category: category,
		Keyword:  q.Get("keyword"),
	})
	if err != nil {
		lifecycleError(w, err, "failed to count items")
		return
	}
	counts["total"] = total

	jsonResponse(w, http.StatusOK, counts)
}

// Create handles POST /api/items (multipart form with an optional image).
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	in := item.CreateInput{
		Name:        r.FormValue("name"),
		Category:    r.FormValue("category"),
		Location:    r.FormValue("location"),
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
		Note:        r.FormValue("note"),
	}

	if v := r.FormValue("expired_at"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid expired_at")
			return
		}
		in.ExpiredAt = &t
	}

	img, err := formImage(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	in.Image = img

	created, err := h.Service.Create(r.Context(), in)
	if err != nil {
		lifecycleError(w, err, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, h.view(*created, time.Now()))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	it, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		lifecycleError(w, err, "failed to get item")
		return
	}
	if it == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, h.view(*it, time.Now()))
}

type updateItemRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	Note        *string `json:"note"`
	ExpiredAt   *string `json:"expired_at"`
}

// Update handles PATCH /api/items/{id}. Only the fields present in the
// body are changed.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := item.UpdateInput{
		Name:        req.Name,
		Location:    req.Location,
		Type:        req.Type,
		Description: req.Description,
		Note:        req.Note,
	}
	if req.ExpiredAt != nil {
		t, err := parseDate(*req.ExpiredAt)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid expired_at")
			return
		}
		in.ExpiredAt = &t
	}

	updated, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		lifecycleError(w, err, "failed to update item")
		return
	}

	jsonResponse(w, http.StatusOK, h.view(*updated, time.Now()))
}

// UploadImage handles PUT /api/items/{id}/image, replacing the item's
// attachment.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	img, err := formImage(r)
	if err != nil || img == nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}

	updated, err := h.Service.Update(r.Context(), id, item.UpdateInput{Image: img})
	if err != nil {
		lifecycleError(w, err, "failed to replace image")
		return
	}

	jsonResponse(w, http.StatusOK, h.view(*updated, time.Now()))
}

// Ate handles POST /api/items/{id}/ate.
func (h *ItemsHandler) Ate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Service.MarkAte(r.Context(), id); err != nil {
		lifecycleError(w, err, "failed to mark item as eaten")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item marked as eaten"})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		lifecycleError(w, err, "failed to delete item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// formImage extracts the optional "image" file from a multipart form.
// Returns nil when no file was sent.
func formImage(r *http.Request) (*item.Image, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &item.Image{Filename: header.Filename, Data: data}, nil
}

// parseDate accepts a plain calendar date or a full timestamp. The time
// component is discarded later when the expiration is normalized to end of
// day.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseIntParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}
