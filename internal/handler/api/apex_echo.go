package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"ApexPick/internal/domain/models"
	domsvc "ApexPick/internal/domain/service"
	xhttp "ApexPick/pkg/http"
	xlogger "ApexPick/pkg/logger"
)

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ApexEchoHandler serves profiles, derived stats and predictions.
type ApexEchoHandler struct {
	logger    *xlogger.Logger
	profiles  domsvc.ProfileAggregator
	deriver   domsvc.StatsDeriver
	predictor domsvc.Predictor
	checks    []HealthCheck
}

func NewApexEchoHandler(logger *xlogger.Logger, profiles domsvc.ProfileAggregator, deriver domsvc.StatsDeriver, predictor domsvc.Predictor, checks ...HealthCheck) *ApexEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ApexEchoHandler{
		logger:    logger,
		profiles:  profiles,
		deriver:   deriver,
		predictor: predictor,
		checks:    checks,
	}
}

func (h *ApexEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/profile", h.Profile)
	g.POST("/stats/derive", h.DeriveStats)
	g.POST("/predictions", h.Predict)
	g.POST("/predictions/slate", h.PredictSlate)
}

func (h *ApexEchoHandler) Profile(c echo.Context) error {
	req := &models.EntitySpec{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	profile, err := h.profiles.GetProfile(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "profile", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, profile)
}

func (h *ApexEchoHandler) DeriveStats(c echo.Context) error {
	req := &models.DeriveStatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.deriver.DeriveStats(req.Stats))
}

// Predict and PredictSlate leave validation to the pipeline, which
// normalizes side and liquidity casing first.
func (h *ApexEchoHandler) Predict(c echo.Context) error {
	req := &models.FixtureRequest{}
	if verr := xhttp.ReadRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	pred, err := h.predictor.Predict(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, pred)
}

func (h *ApexEchoHandler) PredictSlate(c echo.Context) error {
	req := &models.SlateRequest{}
	if verr := xhttp.ReadRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	preds, err := h.predictor.PredictSlate(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "predict slate", err)
	}
	return xhttp.SuccessResponse(c, preds)
}

// Health probes every dependency with a short deadline. Any failure turns
// the response into 503 with the failing names listed.
func (h *ApexEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	var failed []string
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			status[chk.Name] = err.Error()
			failed = append(failed, chk.Name)
			continue
		}
		status[chk.Name] = "ok"
	}
	if len(failed) > 0 {
		h.logger.Warn("health check failed", xlogger.String("failed", strings.Join(failed, ",")))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

// fail maps validation errors to 400 and everything else to 500.
func (h *ApexEchoHandler) fail(c echo.Context, op string, err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		appErr := xhttp.BadRequestError(ve.Reason).WithError(err)
		appErr.Field = ve.Field
		return xhttp.AppErrorResponse(c, appErr)
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("internal error").WithError(err))
}
