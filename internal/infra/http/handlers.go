package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/comparison"
	"github.com/Spok95/kitchen-quotes/internal/domain/demand"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/Spok95/kitchen-quotes/internal/infra/export"
	"github.com/Spok95/kitchen-quotes/internal/validation"
	"github.com/gin-gonic/gin"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handlers struct {
	log        *slog.Logger
	comparison ComparisonService
	quotes     QuoteService
	demands    DemandService
	categories CategoryLister
}

func (h *handlers) permissions(c *gin.Context) {
	c.JSON(http.StatusOK, actorOf(c))
}

func (h *handlers) listCategories(c *gin.Context) {
	if err := actorOf(c).Require(access.CapViewQuotes); err != nil {
		respondError(c, h.log, err)
		return
	}
	cats, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	type item struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]item, 0, len(cats))
	for _, cat := range cats {
		out = append(out, item{ID: cat.ID, Name: cat.Name})
	}
	c.JSON(http.StatusOK, out)
}

func selectionOf(c *gin.Context) (comparison.Selection, error) {
	sel := comparison.Selection{
		Period: c.Query("period"),
		Region: strings.TrimSpace(c.Query("region")),
	}
	for _, cat := range strings.Split(c.Query("categories"), ",") {
		if cat = strings.TrimSpace(cat); cat != "" {
			sel.Categories = append(sel.Categories, cat)
		}
	}
	if raw := c.Query("team_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sel, validation.Single("team_id", "must be an integer")
		}
		sel.TeamID = id
	}
	return sel, nil
}

func (h *handlers) buildMatrix(c *gin.Context) (*comparison.Matrix, bool) {
	sel, err := selectionOf(c)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	m, err := h.comparison.Matrix(c.Request.Context(), actorOf(c), sel)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return m, true
}

func (h *handlers) matrix(c *gin.Context) {
	if m, ok := h.buildMatrix(c); ok {
		c.JSON(http.StatusOK, m)
	}
}

func (h *handlers) exportMatrix(c *gin.Context) {
	if err := actorOf(c).Require(access.CapExportData); err != nil {
		respondError(c, h.log, err)
		return
	}
	m, ok := h.buildMatrix(c)
	if !ok {
		return
	}
	data, err := export.MatrixWorkbook(m)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	attachment(c, fmt.Sprintf("comparison_%s.xlsx", m.Period), data)
}

func (h *handlers) buildPriceList(c *gin.Context) (*comparison.PriceList, bool) {
	teamID, err := strconv.ParseInt(c.Query("team_id"), 10, 64)
	if err != nil || teamID <= 0 {
		respondError(c, h.log, validation.Single("team_id", "must be a positive integer"))
		return nil, false
	}
	pl, err := h.comparison.PriceList(c.Request.Context(), actorOf(c), teamID, c.Query("period"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return pl, true
}

func (h *handlers) priceList(c *gin.Context) {
	if pl, ok := h.buildPriceList(c); ok {
		c.JSON(http.StatusOK, pl)
	}
}

func (h *handlers) exportPriceList(c *gin.Context) {
	if err := actorOf(c).Require(access.CapExportData); err != nil {
		respondError(c, h.log, err)
		return
	}
	pl, ok := h.buildPriceList(c)
	if !ok {
		return
	}
	data, err := export.PriceListWorkbook(pl)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	attachment(c, fmt.Sprintf("price_list_%d_%s.xlsx", pl.TeamID, pl.Period), data)
}

func (h *handlers) previousPrice(c *gin.Context) {
	q := comparison.PreviousPriceQuery{Period: c.Query("period"), Region: strings.TrimSpace(c.Query("region"))}
	ve := &validation.Errors{}
	for field, dst := range map[string]*int64{"product_id": &q.ProductID, "supplier_id": &q.SupplierID} {
		v, err := strconv.ParseInt(c.Query(field), 10, 64)
		if err != nil {
			ve.Add(field, "must be an integer")
			continue
		}
		*dst = v
	}
	if err := ve.Err(); err != nil {
		respondError(c, h.log, err)
		return
	}
	res, err := h.comparison.PreviousPrice(c.Request.Context(), actorOf(c), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func attachment(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxType, data)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.Single("id", "must be a positive integer")
	}
	return id, nil
}

func (h *handlers) getQuotation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	q, err := h.quotes.Get(c.Request.Context(), actorOf(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type negotiateBody struct {
	Items []quotes.NegotiatedPrice `json:"items"`
}

func (h *handlers) negotiate(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var body negotiateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.log, validation.Single("body", err.Error()))
		return
	}
	q, err := h.quotes.Negotiate(c.Request.Context(), actorOf(c), id, body.Items)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type approveBody struct {
	ItemIDs []int64 `json:"item_ids"`
}

func (h *handlers) approve(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var body approveBody
	// тело необязательно: без него утверждаются все позиции
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, h.log, validation.Single("body", err.Error()))
			return
		}
	}
	q, err := h.quotes.Approve(c.Request.Context(), actorOf(c), quotes.ApproveRequest{QuotationID: id, ItemIDs: body.ItemIDs})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *handlers) cancel(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	q, err := h.quotes.Cancel(c.Request.Context(), actorOf(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *handlers) approveSuppliers(c *gin.Context) {
	var req quotes.ApproveSuppliersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, validation.Single("body", err.Error()))
		return
	}
	res, err := h.quotes.ApproveSuppliers(c.Request.Context(), actorOf(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": res})
}

func (h *handlers) setDemands(c *gin.Context) {
	teamID, err := pathID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req demand.SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, validation.Single("body", err.Error()))
		return
	}
	res, err := h.demands.Set(c.Request.Context(), actorOf(c), teamID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res})
}
