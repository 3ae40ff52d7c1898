package api

import (
	"errors"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"SeriesPulse/internal/domain/models"
	"SeriesPulse/internal/service/ratelimit"
	"SeriesPulse/internal/services/analytics"
	"SeriesPulse/internal/services/ingest"
	"SeriesPulse/internal/usecase"
	xhttp "SeriesPulse/pkg/http"
	applogger "SeriesPulse/pkg/logger"
)

// AnalysisEchoHandler serves the analysis API.
type AnalysisEchoHandler struct {
	logger  *applogger.Logger
	uc      *usecase.AnalysisUseCase
	limiter *ratelimit.Limiter
}

// NewAnalysisEchoHandler builds the handler. A nil limiter disables rate limiting.
func NewAnalysisEchoHandler(logger *applogger.Logger, uc *usecase.AnalysisUseCase, limiter *ratelimit.Limiter) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{logger: logger, uc: uc, limiter: limiter}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/statistics", h.Statistics)
	g.POST("/forecast", h.Forecast)
	g.POST("/insights", h.Insights, h.rateLimit)
	g.POST("/forecast/professional", h.ProfessionalForecast, h.rateLimit)
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze/csv", h.AnalyzeCSV)
}

// rateLimit guards the endpoints that spend collaborator quota.
func (h *AnalysisEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			return xhttp.AppErrorResponse(c, xhttp.RateLimitedError("too many collaborator requests"))
		}
		return next(c)
	}
}

func (h *AnalysisEchoHandler) Statistics(c echo.Context) error {
	req := &models.StatisticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, rep := ingest.FromPoints(req.Points)
	res, err := h.uc.Statistics(s, &rep)
	if err != nil {
		return h.fail(c, "statistics", err)
	}
	return xhttp.SuccessResponse(c, res.Rounded())
}

func (h *AnalysisEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, _ := ingest.FromPoints(req.Points)
	res, err := h.uc.Forecast(s, req.Steps)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Insights(c echo.Context) error {
	req := &models.InsightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, _ := ingest.FromPoints(req.Points)
	res, err := h.uc.Insights(c.Request().Context(), s)
	if err != nil {
		return h.collaboratorFailure(c, "insights", err, models.Failure[models.AIInsight](err))
	}
	return xhttp.SuccessResponse(c, models.Success(res))
}

func (h *AnalysisEchoHandler) ProfessionalForecast(c echo.Context) error {
	req := &models.ProfessionalForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, _ := ingest.FromPoints(req.Points)
	res, err := h.uc.ProfessionalForecast(c.Request().Context(), s, req.Horizon)
	if err != nil {
		return h.collaboratorFailure(c, "forecaster", err, models.Failure[models.ProfessionalForecast](err))
	}
	return xhttp.SuccessResponse(c, models.Success(res))
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, rep := ingest.FromPoints(req.Points)
	return h.analyze(c, usecase.AnalyzeParams{
		Series:       s,
		Ingest:       &rep,
		Steps:        req.Steps,
		AI:           req.AI,
		Professional: req.Professional,
	})
}

// AnalyzeCSV accepts the CSV either as the raw request body or as a multipart "file" field.
func (h *AnalysisEchoHandler) AnalyzeCSV(c echo.Context) error {
	req := &models.AnalyzeCSVRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	body, closeBody, err := csvBody(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("read upload: %v", err))
	}
	defer closeBody()

	s, rep, err := ingest.ParseCSV(body)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("parse csv: %v", err))
	}
	return h.analyze(c, usecase.AnalyzeParams{
		Series:       s,
		Ingest:       &rep,
		Steps:        req.Steps,
		AI:           req.AI,
		Professional: req.Professional,
	})
}

func (h *AnalysisEchoHandler) analyze(c echo.Context, p usecase.AnalyzeParams) error {
	if (p.AI || p.Professional) && h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.RateLimitedError("too many collaborator requests"))
	}
	res, err := h.uc.Analyze(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	return xhttp.SuccessResponse(c, res.Rounded())
}

func csvBody(c echo.Context) (io.Reader, func(), error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	}
	return c.Request().Body, func() {}, nil
}

func (h *AnalysisEchoHandler) fail(c echo.Context, op string, err error) error {
	if errors.Is(err, usecase.ErrTooManyPoints) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	h.logger.Error(op+" usecase error", applogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()))
}

func (h *AnalysisEchoHandler) collaboratorFailure(c echo.Context, fallback string, err error, data interface{}) error {
	switch {
	case errors.Is(err, usecase.ErrTooManyPoints):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	case errors.Is(err, usecase.ErrEmptySeries):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("no valid points in request"))
	}
	name := fallback
	var ce *analytics.CollaboratorError
	if errors.As(err, &ce) {
		name = ce.Collaborator
	}
	h.logger.Warn("collaborator failed", applogger.String("collaborator", name), applogger.Error(err))
	return xhttp.AppErrorWithData(c, xhttp.CollaboratorError(name, err), data)
}
