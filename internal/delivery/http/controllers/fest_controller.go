package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"socio/internal/delivery/http/helpers"
	"socio/internal/delivery/http/middleware"
	"socio/internal/domain"
)

// CreateFestRequest is the request body for POST /api/fests. The fest image is
// uploaded by the client beforehand; the body carries its public URL.
type CreateFestRequest struct {
	Title            *string    `json:"fest_title"`
	OpeningDate      *time.Time `json:"opening_date"`
	ClosingDate      *time.Time `json:"closing_date"`
	Description      *string    `json:"description"`
	DepartmentAccess []string   `json:"department_access"`
	Category         *string    `json:"category"`
	ContactEmail     *string    `json:"contact_email"`
	ContactPhone     *string    `json:"contact_phone"`
	EventHeads       []string   `json:"event_heads"`
	FestImageURL     *string    `json:"fest_image_url"`
	OrganizingDept   *string    `json:"organizing_dept"`
}

// Validate implements Validator.
func (c CreateFestRequest) Validate() []string {
	var errs []string
	if c.Title == nil || strings.TrimSpace(*c.Title) == "" {
		errs = append(errs, "fest_title is required")
	}
	if c.OpeningDate != nil && c.ClosingDate != nil && c.ClosingDate.Before(*c.OpeningDate) {
		errs = append(errs, "closing_date must not be before opening_date")
	}
	return errs
}

func (c CreateFestRequest) toInput() *domain.FestInput {
	return &domain.FestInput{
		Title:            c.Title,
		OpeningDate:      c.OpeningDate,
		ClosingDate:      c.ClosingDate,
		Description:      c.Description,
		DepartmentAccess: c.DepartmentAccess,
		Category:         c.Category,
		ContactEmail:     c.ContactEmail,
		ContactPhone:     c.ContactPhone,
		EventHeads:       c.EventHeads,
		EventHeadsSet:    c.EventHeads != nil,
		FestImageURL:     c.FestImageURL,
		FestImageSet:     c.FestImageURL != nil,
		OrganizingDept:   c.OrganizingDept,
	}
}

// UpdateFestRequest is the request body for PUT /api/fests/{festID}. All
// fields optional; omitted fields are unchanged. Pointer slices distinguish
// "replace with this list" from "leave alone".
type UpdateFestRequest struct {
	Title            *string    `json:"fest_title"`
	OpeningDate      *time.Time `json:"opening_date"`
	ClosingDate      *time.Time `json:"closing_date"`
	Description      *string    `json:"description"`
	DepartmentAccess *[]string  `json:"department_access"`
	Category         *string    `json:"category"`
	ContactEmail     *string    `json:"contact_email"`
	ContactPhone     *string    `json:"contact_phone"`
	EventHeads       *[]string  `json:"event_heads"`
	FestImageURL     *string    `json:"fest_image_url"`
	OrganizingDept   *string    `json:"organizing_dept"`
}

// Validate implements Validator.
func (u UpdateFestRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "fest_title cannot be empty")
	}
	return errs
}

func (u UpdateFestRequest) toInput() *domain.FestInput {
	in := &domain.FestInput{
		Title:          u.Title,
		OpeningDate:    u.OpeningDate,
		ClosingDate:    u.ClosingDate,
		Description:    u.Description,
		Category:       u.Category,
		ContactEmail:   u.ContactEmail,
		ContactPhone:   u.ContactPhone,
		OrganizingDept: u.OrganizingDept,
	}
	if u.DepartmentAccess != nil {
		in.DepartmentAccess = *u.DepartmentAccess
	}
	if u.EventHeads != nil {
		in.EventHeads = *u.EventHeads
		in.EventHeadsSet = true
	}
	if u.FestImageURL != nil {
		in.FestImageURL = u.FestImageURL
		in.FestImageSet = true
	}
	return in
}

// FestSuccessResponse is the success response envelope for fest endpoints.
type FestSuccessResponse struct {
	Data  *domain.Fest      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetFestResponse is the data payload for GET /api/fests/{festID} (200).
type GetFestResponse struct {
	Fest   *domain.Fest    `json:"fest"`
	Events []*domain.Event `json:"events"`
}

// GetFestSuccessResponse is the success response envelope for GET /api/fests/{festID} (200).
type GetFestSuccessResponse struct {
	Data  GetFestResponse   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListFestsResponse is the data payload for GET /api/fests (200).
type ListFestsResponse struct {
	Items      []*domain.Fest         `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListFestsSuccessResponse is the success response envelope for GET /api/fests (200).
type ListFestsSuccessResponse struct {
	Data  ListFestsResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type FestController struct {
	Logger  *slog.Logger
	Service domain.FestService
}

func NewFestController(logger *slog.Logger, svc domain.FestService) *FestController {
	return &FestController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *FestController) writeFestError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "fest not found")
	case errors.Is(err, domain.ErrConflict):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// CreateFest godoc
// @Summary Create a new fest
// @Description Create a multi-event fest. The fest ID is a slug derived from the title. Only organisers can create fests. At most 5 event head emails are allowed.
// @Tags fests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateFestRequest true "Fest data"
// @Success 201 {object} controllers.FestSuccessResponse "data contains the created fest"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an organiser)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (title slug already taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /fests [post]
func (c *FestController) CreateFest(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateFestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	fest, err := c.Service.CreateFest(r.Context(), email, req.toInput())
	if err != nil {
		c.writeFestError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, fest)
}

// GetFest godoc
// @Summary Get a fest and its events
// @Description Returns the fest and all events belonging to it. Public endpoint.
// @Tags fests
// @Produce json
// @Param festID path string true "Fest ID (slug)"
// @Success 200 {object} controllers.GetFestSuccessResponse "data contains fest and events"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /fests/{festID} [get]
func (c *FestController) GetFest(w http.ResponseWriter, r *http.Request) {
	festID := r.PathValue("festID")
	if festID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing festID")
		return
	}
	fest, events, err := c.Service.GetFest(r.Context(), festID)
	if err != nil {
		c.writeFestError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, GetFestResponse{Fest: fest, Events: events})
}

// ListFests godoc
// @Summary List fests
// @Description Returns a paginated list of fests. Public endpoint.
// @Tags fests
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListFestsSuccessResponse "data contains items and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /fests [get]
func (c *FestController) ListFests(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	fests, total, err := c.Service.ListFests(r.Context(), params)
	if err != nil {
		c.writeFestError(w, r, err)
		return
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListFestsResponse{Items: fests, Pagination: meta})
}

// UpdateFest godoc
// @Summary Update a fest
// @Description Updates a fest. Only fields present in the body are written; a new title moves the fest to a new slug. Only the fest's creator can update.
// @Tags fests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param festID path string true "Fest ID (slug)"
// @Param body body UpdateFestRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.FestSuccessResponse "data contains the resulting fest"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (title slug already taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /fests/{festID} [put]
func (c *FestController) UpdateFest(w http.ResponseWriter, r *http.Request) {
	festID := r.PathValue("festID")
	if festID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing festID")
		return
	}
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateFestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	fest, _, err := c.Service.UpdateFest(r.Context(), festID, email, req.toInput())
	if err != nil {
		c.writeFestError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, fest)
}

// DeleteFest godoc
// @Summary Delete a fest and its events
// @Description Deletes a fest and cascades over all its events: their files, registrations, and rows, then the fest's image and row. Only the fest's creator can delete.
// @Tags fests
// @Produce json
// @Security BearerAuth
// @Param festID path string true "Fest ID (slug)"
// @Success 200 {object} controllers.StatusSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /fests/{festID} [delete]
func (c *FestController) DeleteFest(w http.ResponseWriter, r *http.Request) {
	festID := r.PathValue("festID")
	if festID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing festID")
		return
	}
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteFest(r.Context(), festID, email); err != nil {
		c.writeFestError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
