package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/catalog"
	"github.com/Spok95/kitchen-quotes/internal/domain/comparison"
	"github.com/Spok95/kitchen-quotes/internal/domain/demand"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ActorResolver interface {
	Actor(ctx context.Context, userID int64) (access.Actor, error)
}

type ComparisonService interface {
	Matrix(ctx context.Context, actor access.Actor, sel comparison.Selection) (*comparison.Matrix, error)
	PriceList(ctx context.Context, actor access.Actor, teamID int64, period string) (*comparison.PriceList, error)
	PreviousPrice(ctx context.Context, actor access.Actor, q comparison.PreviousPriceQuery) (comparison.PreviousPrice, error)
}

type QuoteService interface {
	Get(ctx context.Context, actor access.Actor, id int64) (*quotes.Quotation, error)
	Negotiate(ctx context.Context, actor access.Actor, quotationID int64, prices []quotes.NegotiatedPrice) (*quotes.Quotation, error)
	Approve(ctx context.Context, actor access.Actor, req quotes.ApproveRequest) (*quotes.Quotation, error)
	ApproveSuppliers(ctx context.Context, actor access.Actor, req quotes.ApproveSuppliersRequest) ([]quotes.ApprovalResult, error)
	Cancel(ctx context.Context, actor access.Actor, quotationID int64) (*quotes.Quotation, error)
}

type DemandService interface {
	Set(ctx context.Context, actor access.Actor, teamID int64, req demand.SetRequest) ([]demand.Demand, error)
}

type CategoryLister interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

type RequestRecorder interface {
	Request(route string, code int)
}

type Deps struct {
	Log           *slog.Logger
	Actors        ActorResolver
	Comparison    ComparisonService
	Quotes        QuoteService
	Demands       DemandService
	Categories    CategoryLister
	Metrics       RequestRecorder
	JWTSecret     []byte
	CORSOrigins   []string
	ExposeMetrics bool
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(d.Log, d.Metrics))

	if len(d.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = d.CORSOrigins
		cfg.AllowCredentials = true
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", headerRequestID)
		cfg.ExposeHeaders = []string{"Content-Disposition", headerRequestID}
		r.Use(cors.New(cfg))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if d.ExposeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	h := &handlers{log: d.Log, comparison: d.Comparison, quotes: d.Quotes, demands: d.Demands, categories: d.Categories}
	api := r.Group("/api", authenticate(d.JWTSecret), loadActor(d.Actors, d.Log))
	{
		api.GET("/me/permissions", h.permissions)
		api.GET("/categories", h.listCategories)

		api.GET("/comparison", h.matrix)
		api.GET("/comparison/export", h.exportMatrix)
		api.GET("/price-list", h.priceList)
		api.GET("/price-list/export", h.exportPriceList)
		api.GET("/history/previous-price", h.previousPrice)

		api.GET("/quotations/:id", h.getQuotation)
		api.POST("/quotations/:id/negotiate", h.negotiate)
		api.POST("/quotations/:id/approve", h.approve)
		api.POST("/quotations/:id/cancel", h.cancel)
		api.POST("/quotations/approve-suppliers", h.approveSuppliers)

		api.PUT("/kitchens/:id/demands", h.setDemands)
	}
	return r
}
