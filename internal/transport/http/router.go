package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"papertrade/internal/engine"
	"papertrade/internal/report"
	"papertrade/internal/risk"
	"papertrade/internal/store/equity"
)

// Router maps the REST surface onto one engine instance. The snapshot store
// is optional; without it the report endpoints answer 404.
type Router struct {
	Engine    *engine.Engine
	Snapshots *equity.Store
}

func NewRouter(eng *engine.Engine, snapshots *equity.Store) *Router {
	return &Router{Engine: eng, Snapshots: snapshots}
}

// Register mounts all routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/orders", r.handlePlaceOrder)
	group.GET("/orders", r.handleListOrders)
	group.DELETE("/orders/:id", r.handleCancelOrder)
	group.GET("/positions", r.handleListPositions)
	group.GET("/trades", r.handleListTrades)
	group.GET("/portfolio", r.handlePortfolio)
	group.PUT("/portfolio", r.handleUpdatePortfolio)
	group.POST("/market-price/:symbol", r.handleMarketPrice)
	group.GET("/risk-metrics", r.handleRiskMetrics)
	group.GET("/performance", r.handlePerformance)
	group.POST("/reset", r.handleReset)
	group.GET("/report/equity", r.handleEquityReport)
	group.GET("/equity", r.handleEquitySeries)
}

func (r *Router) handlePlaceOrder(c *gin.Context) {
	var req engine.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := r.Engine.PlaceOrder(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (r *Router) handleListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, r.Engine.Orders())
}

func (r *Router) handleCancelOrder(c *gin.Context) {
	order, err := r.Engine.CancelOrder(c.Param("id"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (r *Router) handleListPositions(c *gin.Context) {
	c.JSON(http.StatusOK, r.Engine.Positions())
}

func (r *Router) handleListTrades(c *gin.Context) {
	c.JSON(http.StatusOK, r.Engine.Trades())
}

func (r *Router) handlePortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, r.Engine.PortfolioSummary())
}

type portfolioUpdateRequest struct {
	Balance  *float64 `json:"balance"`
	Leverage *float64 `json:"leverage"`
}

func (r *Router) handleUpdatePortfolio(c *gin.Context) {
	var req portfolioUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.Engine.AdjustPortfolio(req.Balance, req.Leverage)
	c.JSON(http.StatusOK, r.Engine.PortfolioSummary())
}

type marketPriceRequest struct {
	Price float64 `json:"price" binding:"required"`
}

func (r *Router) handleMarketPrice(c *gin.Context) {
	var req marketPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	symbol := c.Param("symbol")
	if err := r.Engine.UpdateMarketPrice(symbol, req.Price); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": req.Price})
}

func (r *Router) handleRiskMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, risk.Compute(r.Engine.Trades()))
}

func (r *Router) handlePerformance(c *gin.Context) {
	trades := r.Engine.Trades()
	c.JSON(http.StatusOK, gin.H{
		"portfolio":     r.Engine.PortfolioSummary(),
		"risk_metrics":  risk.Compute(trades),
		"trading_stats": risk.Summarize(trades),
	})
}

type resetRequest struct {
	InitialBalance float64 `json:"initial_balance"`
	Leverage       float64 `json:"leverage"`
}

func (r *Router) handleReset(c *gin.Context) {
	var req resetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	r.Engine.Reset(req.InitialBalance, req.Leverage)
	c.JSON(http.StatusOK, gin.H{"message": "portfolio reset", "portfolio": r.Engine.PortfolioSummary()})
}

func (r *Router) handleEquityReport(c *gin.Context) {
	snaps, ok := r.loadSnapshots(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderEquity(c.Writer, snaps); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	}
}

func (r *Router) handleEquitySeries(c *gin.Context) {
	snaps, ok := r.loadSnapshots(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snaps)
}

func (r *Router) loadSnapshots(c *gin.Context) ([]engine.Snapshot, bool) {
	if r.Snapshots == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot store not configured"})
		return nil, false
	}
	snaps, err := r.Snapshots.Range(c.Request.Context(), time.Time{}, time.Time{}, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return snaps, true
}
