package api

import (
	"errors"
	"net/http"
	"time"

	models "CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	"CandleScope/internal/service/ratelimit"
	"CandleScope/internal/services/trend"
	"CandleScope/internal/usecase"
	xhttp "CandleScope/pkg/http"
	xlogger "CandleScope/pkg/logger"
	"CandleScope/pkg/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the analysis pipeline over HTTP. The bar store
// is optional; without it only the stateless /analyze endpoint works.
type AnalysisEchoHandler struct {
	logger    *xlogger.Logger
	analyzer  *usecase.Analyzer
	refresher *usecase.Refresher
	bars      domrepo.BarStore
	barsUC    *usecase.BarsUseCase
	rl        *ratelimit.Limiter
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, analyzer *usecase.Analyzer, refresher *usecase.Refresher, bars domrepo.BarStore) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{
		logger:    logger,
		analyzer:  analyzer,
		refresher: refresher,
		bars:      bars,
		barsUC:    usecase.NewBarsUseCase(bars),
		rl:        ratelimit.New(),
	}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api/v1")
	g.POST("/analyze", h.Analyze)
	g.GET("/analysis/:symbol", h.Analysis)
	g.GET("/bars/:symbol", h.Bars)
	g.GET("/summary/:symbol", h.Summary)
	g.POST("/import/:symbol", h.Import)
	g.GET("/report/:symbol", h.Report)
	g.POST("/refresh/:symbol", h.Refresh)
}

// Analyze runs the pipeline over bars supplied in the request body and
// returns the summary without touching storage.
func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "analyze", 10, 5) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	bars := make([]models.Bar, len(req.Bars))
	hasTrend := false
	for i, p := range req.Bars {
		bars[i] = p.Bar()
		if p.Trend != "" {
			hasTrend = true
		}
	}
	var trends []models.Trend
	if hasTrend {
		trends = make([]models.Trend, len(req.Bars))
		for i, p := range req.Bars {
			trends[i] = models.NormalizeTrend(p.Trend)
		}
	}

	source, err := trend.ParseSource(req.TrendFrom)
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_ONEOF", Field: "trend_from", Message: err.Error(),
		}})
	}

	tf := domrepo.NormalizeTimeframe(req.TF)
	an, err := h.analyzer.Analyze(c.Request().Context(), req.Symbol, tf, bars, trends, source)
	if err != nil {
		h.logger.Error("analyze error", xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, an.Summary)
}

// Analysis analyzes the latest stored bars of a symbol.
func (h *AnalysisEchoHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tf := domrepo.NormalizeTimeframe(req.TF)
	an, err := h.analyzer.AnalyzeStored(c.Request().Context(), req.Symbol, tf, req.N, req.Fresh)
	if err != nil {
		h.logger.Error("analysis error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, an.Summary)
}

// Bars returns a stored range in the same shape POST /analyze accepts.
func (h *AnalysisEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var from, to time.Time
	var err error
	if req.From != "" {
		if from, err = time.Parse(time.RFC3339, req.From); err != nil {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code: "ERR_FORMAT", Field: "from", Message: "from must be RFC3339",
			}})
		}
	}
	if req.To != "" {
		if to, err = time.Parse(time.RFC3339, req.To); err != nil {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code: "ERR_FORMAT", Field: "to", Message: "to must be RFC3339",
			}})
		}
	}

	res, err := h.barsUC.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("bars error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Import stores bars parsed from an uploaded CSV file.
func (h *AnalysisEchoHandler) Import(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required",
		}})
	}
	if !h.allow(c, "import", 4, 1) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "file", Message: "multipart field 'file' is required",
		}})
	}
	f, err := fh.Open()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("open upload: %v", err))
	}
	defer f.Close()

	res, err := h.analyzer.ImportCSV(c.Request().Context(), symbol, c.QueryParam("tf"), f)
	if err != nil {
		h.logger.Error("import error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return h.domainError(c, err)
	}
	return xhttp.CreatedResponse(c, res)
}

// Summary returns the latest persisted summary without recomputing.
func (h *AnalysisEchoHandler) Summary(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required",
		}})
	}
	tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))

	s, err := h.analyzer.LatestSummary(c.Request().Context(), symbol, tf)
	if err != nil {
		h.logger.Error("summary error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if s == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no summary for %s %s", symbol, tf))
	}
	return xhttp.SuccessResponse(c, s)
}

// Report renders the markdown report for stored history.
func (h *AnalysisEchoHandler) Report(c echo.Context) error {
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tf := domrepo.NormalizeTimeframe(req.TF)
	md, err := h.analyzer.Report(c.Request().Context(), req.Symbol, tf, req.N)
	if err != nil {
		h.logger.Error("report error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return h.domainError(c, err)
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// Refresh schedules a fresh analysis of stored history. Queued work answers
// 202; inline fallback answers 200 once done.
func (h *AnalysisEchoHandler) Refresh(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required",
		}})
	}
	tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))
	n := util.ParseIntDefault(c.QueryParam("n"), 0)

	jobID := uuid.NewString()
	queued, err := h.refresher.Request(c.Request().Context(), jobID, symbol, tf, n)
	if err != nil {
		h.logger.Error("refresh error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return h.domainError(c, err)
	}
	body := map[string]interface{}{
		"job_id": jobID,
		"symbol": symbol,
		"tf":     string(tf),
		"queued": queued,
	}
	if queued {
		return xhttp.DataResponse(c, http.StatusAccepted, body)
	}
	return xhttp.SuccessResponse(c, body)
}

// Health reports service liveness plus bar-store connectivity when storage
// is configured.
func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	out := map[string]string{"status": "ok"}
	if h.bars != nil {
		if err := h.bars.Health(c.Request().Context()); err != nil {
			out["status"] = "degraded"
			out["storage"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, out)
		}
		out["storage"] = "ok"
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *AnalysisEchoHandler) allow(c echo.Context, endpoint string, capacity, refillPerSec float64) bool {
	if h.rl == nil {
		return true
	}
	ok := h.rl.Allow(c.RealIP()+":"+endpoint, capacity, refillPerSec)
	if !ok {
		h.logger.Warn("rate limited",
			xlogger.String("endpoint", endpoint),
			xlogger.String("remote", c.RealIP()),
		)
	}
	return ok
}

// domainError answers 400 for bad input data and falls through to the app
// error mapping otherwise.
func (h *AnalysisEchoHandler) domainError(c echo.Context, err error) error {
	var missing *models.MissingColumnError
	var short *models.InsufficientHistoryError
	if errors.As(err, &missing) || errors.As(err, &short) {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_BAD_DATA", Message: err.Error(),
		}})
	}
	return xhttp.AppErrorResponse(c, err)
}
