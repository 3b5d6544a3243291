package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"libraryapi/internal/dates"
	"libraryapi/internal/httpx"
	"libraryapi/internal/listing"
	"libraryapi/internal/pagination"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Response is the read shape of a book. The author appears as a denormalized
// name/link pair; the write shape takes a bare author id instead.
type Response struct {
	ID              int64      `json:"id"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	AuthorName      *string    `json:"author_name"`
	AuthorURL       *string    `json:"author_url"`
	PublicationDate dates.Date `json:"publication_date"`
	Year            int        `json:"year"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Input is the write payload. The author reference is mandatory on write
// even though the column is nullable on read.
type Input struct {
	Title           string     `json:"title" validate:"required,max=100"`
	Author          *int64     `json:"author" validate:"required"`
	PublicationDate dates.Date `json:"publication_date" validate:"required"`
}

type patchInput struct {
	Title           *string     `json:"title" validate:"omitempty,max=100"`
	Author          *int64      `json:"author"`
	PublicationDate *dates.Date `json:"publication_date"`
}

func toResponse(r *http.Request, b Book) Response {
	resp := Response{
		ID:              b.ID,
		URL:             httpx.AbsoluteURL(r, fmt.Sprintf("/books/%d", b.ID)),
		Title:           b.Title,
		AuthorName:      b.AuthorName,
		PublicationDate: b.PublicationDate,
		Year:            b.PublicationDate.Year(),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.AuthorID != nil {
		authorURL := httpx.AbsoluteURL(r, fmt.Sprintf("/authors/%d", *b.AuthorID))
		resp.AuthorURL = &authorURL
	}
	return resp
}

// List handles GET /books
// @Summary List books
// @Tags books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)"
// @Param ordering query string false "Order by title, author or publication_date, leading - for descending"
// @Param search query string false "Substring search over title and author name"
// @Param title query string false "Exact filter"
// @Param author query int false "Exact filter by author id"
// @Param publication_date query string false "Exact filter (YYYY-MM-DD)"
// @Success 200 {object} pagination.Page
// @Failure 404 {object} httpx.DetailResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	crit := listing.Parse(r.URL.Query(), ListSpec)
	params := pagination.ParseParams(r.URL.Query())

	books, total, err := h.service.List(r.Context(), crit, params.Limit(), params.Offset())
	if err != nil {
		httpx.Detail(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	results := make([]Response, 0, len(books))
	for _, b := range books {
		results = append(results, toResponse(r, b))
	}

	page, err := pagination.NewPage(r, params, total, results)
	if err != nil {
		httpx.Detail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// Retrieve handles GET /books/{id}
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.DetailResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(r, b))
}

// Create handles POST /books
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} Response
// @Failure 400 {object} httpx.DetailResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}

	b := Book{
		Title:           input.Title,
		AuthorID:        input.Author,
		PublicationDate: input.PublicationDate,
	}
	if err := h.service.Create(r.Context(), &b); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSONCreated(w, toResponse(r, b))
}

// Update handles PUT /books/{id}
// @Summary Replace a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} Response
// @Failure 400 {object} httpx.DetailResponse
// @Failure 404 {object} httpx.DetailResponse
// @Router /books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}

	b := Book{
		ID:              id,
		Title:           input.Title,
		AuthorID:        input.Author,
		PublicationDate: input.PublicationDate,
	}
	if err := h.service.Update(r.Context(), &b); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(r, b))
}

// PartialUpdate handles PATCH /books/{id}
// @Summary Partially update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} Response
// @Failure 400 {object} httpx.DetailResponse
// @Failure 404 {object} httpx.DetailResponse
// @Router /books/{id} [patch]
func (h *HTTPHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}

	b, err := h.service.Patch(r.Context(), id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(r, b))
}

// Destroy handles DELETE /books/{id}
// @Summary Delete a book
// @Tags books
// @Param id path int true "Book ID"
// @Success 204
// @Failure 404 {object} httpx.DetailResponse
// @Router /books/{id} [delete]
func (h *HTTPHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.NotFound(w)
		return 0, false
	}
	return id, true
}

// decodePatch reads a partial-update body field by field. An absent field is
// unchanged, but an explicit null is rejected: none of the book columns
// accept null on write, the nullable author column included.
func decodePatch(w http.ResponseWriter, r *http.Request) (Patch, bool) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httpx.Detail(w, http.StatusBadRequest, "Malformed request body.")
		return Patch{}, false
	}

	var input patchInput
	for _, f := range []struct {
		name string
		dst  any
	}{
		{"title", &input.Title},
		{"author", &input.Author},
		{"publication_date", &input.PublicationDate},
	} {
		raw, ok := fields[f.name]
		if !ok {
			continue
		}
		if string(raw) == "null" {
			httpx.ValidationFailed(w, []httpx.FieldError{
				{Field: f.name, Message: f.name + " may not be null"},
			})
			return Patch{}, false
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			httpx.Detail(w, http.StatusBadRequest, "Malformed request body.")
			return Patch{}, false
		}
	}

	if errs := httpx.ValidateStruct(input); errs != nil {
		httpx.ValidationFailed(w, errs)
		return Patch{}, false
	}
	return Patch{
		Title:           input.Title,
		AuthorID:        input.Author,
		PublicationDate: input.PublicationDate,
	}, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Detail(w, http.StatusBadRequest, "Malformed request body.")
		return Input{}, false
	}
	if errs := httpx.ValidateStruct(input); errs != nil {
		httpx.ValidationFailed(w, errs)
		return Input{}, false
	}
	return input, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.NotFound(w)
	case errors.Is(err, ErrAuthorNotFound):
		httpx.ValidationFailed(w, []httpx.FieldError{
			{Field: "author", Message: "author must reference an existing author"},
		})
	default:
		httpx.Detail(w, http.StatusInternalServerError, "A server error occurred.")
	}
}
