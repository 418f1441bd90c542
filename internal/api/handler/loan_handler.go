package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
	"github.com/loanportal/portal-client/internal/core/service"
)

// SnapshotSource returns the last status sync result.
type SnapshotSource interface {
	Snapshot() service.SyncSnapshot
}

// LoanHandler exposes loan applications, notifications and the sync snapshot.
type LoanHandler struct {
	service ports.LoanService
	tracker SnapshotSource
}

func NewLoanHandler(service ports.LoanService, tracker SnapshotSource) *LoanHandler {
	return &LoanHandler{service: service, tracker: tracker}
}

// Submit handles POST /loans.
//
// @Summary      Submit a loan application
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        body  body      loanApplicationRequest  true  "Application; interestRate defaults to 8.5"
// @Success      201   {object}  domain.LoanApplication
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /loans [post]
func (h *LoanHandler) Submit(c echo.Context) error {
	var req loanApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	app, err := h.service.Submit(detached(c), domain.LoanApplicationRequest{
		LoanType:       req.LoanType,
		LoanAmount:     req.LoanAmount,
		InterestRate:   req.InterestRate,
		LoanTermMonths: req.LoanTermMonths,
		Purpose:        req.Purpose,
		Collateral:     req.Collateral,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, app)
}

// List handles GET /loans. Customers only see their own applications.
//
// @Summary      List loan applications
// @Tags         loans
// @Produce      json
// @Param        status    query     string  false  "Filter by status"
// @Param        loanType  query     string  false  "Filter by loan type"
// @Success      200       {array}   domain.LoanApplication
// @Failure      401       {object}  errorResponse
// @Router       /loans [get]
func (h *LoanHandler) List(c echo.Context) error {
	filter := ports.ApplicationFilter{
		Status:   c.QueryParam("status"),
		LoanType: c.QueryParam("loanType"),
	}
	if role, _ := c.Get("role").(string); role == domain.RoleCustomer {
		filter.UserID, _ = c.Get("user_id").(string)
	}

	apps, err := h.service.Applications(detached(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

// Notifications handles GET /notifications for the logged-in user.
//
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        read  query     bool    false  "Filter by read flag"
// @Param        type  query     string  false  "Filter by notification type"
// @Success      200   {array}   domain.Notification
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /notifications [get]
func (h *LoanHandler) Notifications(c echo.Context) error {
	filter := ports.NotificationFilter{Type: c.QueryParam("type")}
	filter.UserID, _ = c.Get("user_id").(string)
	if raw := c.QueryParam("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "read must be true or false")
		}
		filter.Read = &read
	}

	notes, err := h.service.Notifications(detached(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// MarkRead handles PUT /notifications/:id/read.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Param        id   path      string  true  "Notification id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /notifications/{id}/read [put]
func (h *LoanHandler) MarkRead(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "notification id is required")
	}
	if err := h.service.MarkNotificationRead(detached(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Sync handles GET /sync and returns the poller's last snapshot.
//
// @Summary      Last status sync
// @Tags         loans
// @Produce      json
// @Success      200  {object}  syncResponse
// @Router       /sync [get]
func (h *LoanHandler) Sync(c echo.Context) error {
	snap := h.tracker.Snapshot()
	resp := syncResponse{
		Applications:  snap.Applications,
		Notifications: snap.Notifications,
		Changes:       snap.Changes,
	}
	if resp.Applications == nil {
		resp.Applications = []domain.LoanApplication{}
	}
	if resp.Notifications == nil {
		resp.Notifications = []domain.Notification{}
	}
	if resp.Changes == nil {
		resp.Changes = []domain.StatusChange{}
	}
	if !snap.SyncedAt.IsZero() {
		resp.SyncedAt = &snap.SyncedAt
	}
	return c.JSON(http.StatusOK, resp)
}
