package api

import (
	"time"

	"AlphaRefinery/internal/usecase"
	"AlphaRefinery/pkg/config"
	xhttp "AlphaRefinery/pkg/http"
	xlogger "AlphaRefinery/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RefineryHandler exposes the cleaned tables and the refine trigger over HTTP.
type RefineryHandler struct {
	logger  *xlogger.Logger
	cfg     *config.Config
	refiner *usecase.RefinerUseCase
	query   *usecase.QueryUseCase
}

func NewRefineryHandler(
	logger *xlogger.Logger,
	cfg *config.Config,
	refiner *usecase.RefinerUseCase,
	query *usecase.QueryUseCase,
) *RefineryHandler {
	return &RefineryHandler{logger: logger, cfg: cfg, refiner: refiner, query: query}
}

func (h *RefineryHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/:market/refined", h.Refined)
	g.GET("/:market/limitup", h.LimitUpBoard)
	g.GET("/:market/stats/:symbol", h.SymbolStats)
	g.GET("/:market/stocks", h.Stocks)
	g.POST("/refine/:market", h.Refine)
}

func (h *RefineryHandler) Health(c echo.Context) error {
	if err := h.query.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("warehouse unreachable"))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

type refinedRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"10000" validate:"gte=0,lte=100000"`
}

func (h *RefineryHandler) Refined(c echo.Context) error {
	req := &refinedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	to := xhttp.ParseTimeDefault(req.To, time.Now().UTC())
	from := xhttp.ParseTimeDefault(req.From, to.AddDate(-1, 0, 0))

	recs, err := h.query.GetRefined(c.Request().Context(), usecase.GetRefinedParams{
		Market: c.Param("market"),
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("refined query error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}

	rows := make([]refinedResponse, 0, len(recs))
	for i := range recs {
		rows = append(rows, toRefinedResponse(&recs[i]))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *RefineryHandler) LimitUpBoard(c echo.Context) error {
	var date time.Time
	if s := c.QueryParam("date"); s != "" {
		d, ok := xhttp.ParseTime(s)
		if !ok {
			return xhttp.BadRequestResponse(c, "invalid date")
		}
		date = d
	}

	day, entries, err := h.query.GetLimitUpBoard(c.Request().Context(), c.Param("market"), date)
	if err != nil {
		h.logger.Error("limit-up board error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"date":    day.Format("2006-01-02"),
		"entries": entries,
	})
}

func (h *RefineryHandler) SymbolStats(c echo.Context) error {
	stats, err := h.query.GetSymbolStats(c.Request().Context(), c.Param("market"), c.Param("symbol"))
	if err != nil {
		h.logger.Error("symbol stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, stats)
}

func (h *RefineryHandler) Stocks(c echo.Context) error {
	infos, err := h.query.ListStocks(c.Request().Context(), c.Param("market"))
	if err != nil {
		h.logger.Error("stock list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, infos, int64(len(infos)))
}

// Refine triggers a synchronous full refine of one configured market.
func (h *RefineryHandler) Refine(c echo.Context) error {
	id := c.Param("market")
	mcfg, ok := h.cfg.Market(id)
	if !ok {
		return xhttp.NotFoundResponse(c, "market not configured: "+id)
	}

	summary, err := h.refiner.RefineMarket(c.Request().Context(), mcfg)
	if err != nil {
		h.logger.Error("refine trigger failed",
			xlogger.String("market", id),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("refine %s: %v", id, err))
	}
	return xhttp.SuccessResponse(c, summary)
}
