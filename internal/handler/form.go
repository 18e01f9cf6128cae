package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/gch/gch-api-go/internal/middleware"
	"github.com/gch/gch-api-go/internal/model"
	"github.com/gch/gch-api-go/internal/queue"
)

// FormStore is the submission persistence surface the form endpoints need.
// *repository.FormRepo satisfies it.
type FormStore interface {
	Create(ctx context.Context, s model.FormSubmission) (model.FormSubmission, error)
	ListAll(ctx context.Context) ([]model.FormSubmission, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.FormSubmission, error)
}

// FormHandler serves the marketing-site form endpoints.  Publish is invoked
// after a submission is stored; it may be nil (tests, broker disabled) and
// its errors never fail the request.
type FormHandler struct {
	Forms   FormStore
	Publish func(ctx context.Context, ev queue.FormSubmittedEvent) error
}

func NewFormHandler(f FormStore, publish func(ctx context.Context, ev queue.FormSubmittedEvent) error) *FormHandler {
	return &FormHandler{Forms: f, Publish: publish}
}

// ----- DTOs -----

type submitReq struct {
	FormType       string          `json:"form_type"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Message        string          `json:"message"`
	AdditionalData json.RawMessage `json:"additional_data"`
}

func (r submitReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FormType, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Length(0, 30)),
	)
}

type submissionPart struct {
	ID             uint64          `json:"id"`
	FormType       string          `json:"form_type"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	Message        string          `json:"message,omitempty"`
	AdditionalData json.RawMessage `json:"additional_data,omitempty"`
	UserID         *uint64         `json:"user_id"`
	SubmittedAt    time.Time       `json:"submitted_at"`
}

func toSubmissionPart(s model.FormSubmission) submissionPart {
	return submissionPart{
		ID:             s.ID,
		FormType:       s.FormType,
		Name:           s.Name,
		Email:          s.Email,
		Phone:          s.Phone,
		Message:        s.Message,
		AdditionalData: s.AdditionalData,
		UserID:         s.UserID,
		SubmittedAt:    s.SubmittedAt,
	}
}

func toSubmissionParts(in []model.FormSubmission) []submissionPart {
	out := make([]submissionPart, 0, len(in))
	for _, s := range in {
		out = append(out, toSubmissionPart(s))
	}
	return out
}

// Submit handles POST /forms/submit.  The endpoint is public: OptionalAuth
// runs before it, so a submission from a logged-in visitor is linked to the
// account while anonymous ones store a null user id.
func (h *FormHandler) Submit(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(req.AdditionalData) > 0 && !json.Valid(req.AdditionalData) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "additional_data must be valid JSON"})
	}

	sub := model.FormSubmission{
		FormType:       req.FormType,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Message:        req.Message,
		AdditionalData: req.AdditionalData,
	}
	if u, ok := middleware.CurrentUser(c); ok {
		uid := u.ID
		sub.UserID = &uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored, err := h.Forms.Create(ctx, sub)
	if err != nil {
		c.Logger().Errorf("form submit: insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	if h.Publish != nil {
		ev := queue.FormSubmittedEvent{
			SubmissionID: stored.ID,
			FormType:     stored.FormType,
			Name:         stored.Name,
			Email:        stored.Email,
			Phone:        stored.Phone,
			Message:      stored.Message,
			SubmittedAt:  stored.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if stored.UserID != nil {
			ev.UserID = *stored.UserID
		}
		// Fire and forget off the request goroutine; the publisher logs its
		// own failures and a broker outage must not fail the submission.
		go func() {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pubCancel()
			_ = h.Publish(pubCtx, ev)
		}()
	}

	return c.JSON(http.StatusCreated, toSubmissionPart(stored))
}

// ListAll handles GET /forms (admin only; RequireAuth + RequireAdmin run first).
func (h *FormHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subs, err := h.Forms.ListAll(ctx)
	if err != nil {
		c.Logger().Errorf("form list: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, toSubmissionParts(subs))
}

// ListMine handles GET /forms/my and returns the caller's own submissions.
func (h *FormHandler) ListMine(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subs, err := h.Forms.ListByUser(ctx, u.ID)
	if err != nil {
		c.Logger().Errorf("form list mine: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, toSubmissionParts(subs))
}
