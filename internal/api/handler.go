package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/flexledger/internal/domain/dto"
	"github.com/guttosm/flexledger/internal/service"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Handler provides HTTP handlers for the ledger, positions and journal endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate reads to the portfolio service and runs to the pipeline service
//   - Translate domain results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	portfolio service.PortfolioService
	pipeline  service.PipelineService
}

// NewHandler constructs a new Handler instance.
func NewHandler(portfolio service.PortfolioService, pipeline service.PipelineService) *Handler {
	return &Handler{portfolio: portfolio, pipeline: pipeline}
}

// GetPositions godoc
// @Summary      List position aggregates
// @Description  Returns position aggregates, most recently opened first
// @Tags         positions
// @Produce      json
// @Param        status  query     string  false  "open or closed"  example(open)
// @Param        symbol  query     string  false  "Ticker symbol"   example(AAPL)
// @Success      200     {array}   dto.PositionResponse
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500     {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/positions [get]
func (h *Handler) GetPositions(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))

	positions, err := h.portfolio.Positions(c.Request.Context(), c.Query("status"), symbol)
	if errors.Is(err, service.ErrInvalidStatus) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid status", err))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch positions", err))
		return
	}

	resp := make([]dto.PositionResponse, 0, len(positions))
	for _, p := range positions {
		resp = append(resp, dto.NewPositionResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// GetJournal godoc
// @Summary      List journal entries
// @Description  Returns the trade journal, newest first
// @Tags         journal
// @Produce      json
// @Param        limit  query     int  false  "Maximum rows (1-1000)"  example(50)
// @Success      200    {array}   dto.JournalResponse
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/journal [get]
func (h *Handler) GetJournal(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	rows, err := h.portfolio.Journal(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch journal", err))
		return
	}

	resp := make([]dto.JournalResponse, 0, len(rows))
	for _, j := range rows {
		resp = append(resp, dto.NewJournalResponse(j))
	}
	c.JSON(http.StatusOK, resp)
}

// GetLedger godoc
// @Summary      List ledger entries
// @Description  Returns the execution ledger, newest first. Unknown dates and times read "N/A".
// @Tags         ledger
// @Produce      json
// @Param        limit  query     int  false  "Maximum rows (1-1000)"  example(50)
// @Success      200    {array}   dto.LedgerEntryResponse
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/ledger [get]
func (h *Handler) GetLedger(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	entries, err := h.portfolio.Ledger(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch ledger", err))
		return
	}

	resp := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.NewLedgerEntryResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

// PostSync godoc
// @Summary      Trigger a sync and reconciliation run
// @Description  Fetches new executions, appends them to the ledger and reconciles positions
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  dto.RunResponse
// @Failure      409  {object}  dto.ErrorResponse  "Run already in progress"
// @Failure      500  {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/sync [post]
func (h *Handler) PostSync(c *gin.Context) {
	// the run must not be cut short by the request timeout or a client disconnect
	ctx := context.WithoutCancel(c.Request.Context())

	res, err := h.pipeline.Run(ctx)
	if errors.Is(err, service.ErrRunInProgress) {
		c.JSON(http.StatusConflict, dto.NewErrorResponse("a run is already in progress", err))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("run failed", err))
		return
	}
	c.JSON(http.StatusOK, newRunResponse(res))
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("limit must be an integer between 1 and 1000", err))
		return 0, false
	}
	return n, true
}

func newRunResponse(res service.RunResult) dto.RunResponse {
	out := dto.RunResponse{RunID: res.RunID}
	if s := res.Sync; s != nil {
		out.Fetched = s.TotalFetched()
		out.Appended = s.Append.Appended
		out.HighWaterMark = s.Append.HighWaterMark
	}
	if r := res.Reconcile; r != nil {
		out.FillsApplied = r.FillsApplied()
		out.PositionsOpened = r.Opened
		out.PositionsClosed = r.Closed
		out.OrphanCloses = r.Orphans
		out.StaleOpens = r.Stale
		out.ReconciledThrough = r.ReconciledThrough
	}
	return out
}
