package author

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

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

// Response is the wire representation of an author.
type Response struct {
	ID          int64       `json:"id"`
	URL         string      `json:"url"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Citizenship string      `json:"citizenship"`
	DateOfBirth *dates.Date `json:"date_of_birth"`
	DateOfDeath *dates.Date `json:"date_of_death"`
}

// Input is the write payload for create and full update.
type Input struct {
	FirstName   string      `json:"first_name" validate:"required,max=100"`
	LastName    string      `json:"last_name" validate:"required,max=100"`
	Citizenship string      `json:"citizenship" validate:"required,max=100"`
	DateOfBirth *dates.Date `json:"date_of_birth"`
	DateOfDeath *dates.Date `json:"date_of_death"`
}

type patchInput struct {
	FirstName   *string     `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string     `json:"last_name" validate:"omitempty,max=100"`
	Citizenship *string     `json:"citizenship" validate:"omitempty,max=100"`
	DateOfBirth *dates.Date `json:"date_of_birth"`
	DateOfDeath *dates.Date `json:"date_of_death"`
}

func toResponse(r *http.Request, a Author) Response {
	return Response{
		ID:          a.ID,
		URL:         httpx.AbsoluteURL(r, fmt.Sprintf("/authors/%d", a.ID)),
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Citizenship: a.Citizenship,
		DateOfBirth: a.DateOfBirth,
		DateOfDeath: a.DateOfDeath,
	}
}

// List handles GET /authors
// @Summary List authors
// @Tags authors
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)"
// @Param ordering query string false "Order by first_name or last_name, leading - for descending"
// @Param search query string false "Substring search over first and last name"
// @Param first_name query string false "Exact filter"
// @Param last_name query string false "Exact filter"
// @Param citizenship query string false "Exact filter"
// @Success 200 {object} pagination.Page
// @Failure 404 {object} httpx.DetailResponse
// @Router /authors [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	crit := listing.Parse(r.URL.Query(), ListSpec)
	params := pagination.ParseParams(r.URL.Query())

	authors, total, err := h.service.List(r.Context(), crit, params.Limit(), params.Offset())
	if err != nil {
		httpx.Detail(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	results := make([]Response, 0, len(authors))
	for _, a := range authors {
		results = append(results, toResponse(r, a))
	}

	page, err := pagination.NewPage(r, params, total, results)
	if err != nil {
		httpx.Detail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// Retrieve handles GET /authors/{id}
// @Summary Get an author
// @Tags authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.DetailResponse
// @Router /authors/{id} [get]
func (h *HTTPHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(r, a))
}

// Create handles POST /authors
// @Summary Create an author
// @Tags authors
// @Accept json
// @Produce json
// @Success 201 {object} Response
// @Failure 400 {object} httpx.DetailResponse
// @Router /authors [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}

	a := Author{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Citizenship: input.Citizenship,
		DateOfBirth: input.DateOfBirth,
		DateOfDeath: input.DateOfDeath,
	}
	if err := h.service.Create(r.Context(), &a); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSONCreated(w, toResponse(r, a))
}

// Update handles PUT /authors/{id}
// @Summary Replace an author
// @Tags authors
// @Accept json
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} Response
// @Failure 400 {object} httpx.DetailResponse
// @Failure 404 {object} httpx.DetailResponse
// @Router /authors/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}

	a := Author{
		ID:          id,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Citizenship: input.Citizenship,
		DateOfBirth: input.DateOfBirth,
		DateOfDeath: input.DateOfDeath,
	}
	if err := h.service.Update(r.Context(), &a); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(r, a))
}

// PartialUpdate handles PATCH /authors/{id}
// @Summary Partially update an author
// @Tags authors
// @Accept json
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} Response
// @Failure 400 {object} httpx.DetailResponse
// @Failure 404 {object} httpx.DetailResponse
// @Router /authors/{id} [patch]
func (h *HTTPHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input patchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Detail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if errs := httpx.ValidateStruct(input); errs != nil {
		httpx.ValidationFailed(w, errs)
		return
	}

	a, err := h.service.Patch(r.Context(), id, Patch{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Citizenship: input.Citizenship,
		DateOfBirth: input.DateOfBirth,
		DateOfDeath: input.DateOfDeath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(r, a))
}

// Destroy handles DELETE /authors/{id}
// @Summary Delete an author and its books
// @Tags authors
// @Param id path int true "Author ID"
// @Success 204
// @Failure 404 {object} httpx.DetailResponse
// @Router /authors/{id} [delete]
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
	if errors.Is(err, ErrNotFound) {
		httpx.NotFound(w)
		return
	}
	httpx.Detail(w, http.StatusInternalServerError, "A server error occurred.")
}
