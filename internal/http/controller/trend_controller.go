package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/repository"
	"github.com/outfity/trend-radar/internal/service"
)

type trendScraper interface {
	ScrapeSources(ctx context.Context, req service.ScrapeRequest) (*service.ScrapeReport, error)
}

type cleanupRunner interface {
	Run(ctx context.Context, dryRun bool) (*service.CleanupReport, error)
}

type trendDeleter interface {
	DeleteProductsWithEvents(ctx context.Context, products []*model.TrendProduct) (int64, error)
}

// TrendController handles HTTP requests for trend operations.
type TrendController struct {
	scraper trendScraper
	cleanup cleanupRunner
	repo    repository.Repository
	deleter trendDeleter
}

// NewTrendController creates a new TrendController.
func NewTrendController(scraper trendScraper, cleanup cleanupRunner, repo repository.Repository, deleter trendDeleter) *TrendController {
	return &TrendController{
		scraper: scraper,
		cleanup: cleanup,
		repo:    repo,
		deleter: deleter,
	}
}

// ScrapeRequest represents the request body for the scrape-only endpoint.
type ScrapeRequest struct {
	SourceID     string `json:"sourceId"`
	Brand        string `json:"brand"`
	CustomURL    string `json:"customUrl"`
	Segment      string `json:"segment"`
	SaveToTrends bool   `json:"saveToTrends"`
}

// ScrapeResponse represents the response body for the scrape-only endpoint.
type ScrapeResponse struct {
	Message       string                 `json:"message"`
	TotalItems    int                    `json:"totalItems"`
	SavedToTrends int                    `json:"savedToTrends"`
	Results       []service.SourceResult `json:"results"`
}

// ScrapeOnly handles the HTTP POST request that scrapes the selected sources
// and optionally persists the results.
func (tc *TrendController) ScrapeOnly(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := tc.scraper.ScrapeSources(c.Request.Context(), service.ScrapeRequest{
		SourceID:     req.SourceID,
		Brand:        req.Brand,
		CustomURL:    req.CustomURL,
		Segment:      req.Segment,
		SaveToTrends: req.SaveToTrends,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnknownSource) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to scrape sources"})
		return
	}

	c.JSON(http.StatusOK, ScrapeResponse{
		Message:       "scrape completed",
		TotalItems:    report.TotalItems,
		SavedToTrends: report.SavedToTrends,
		Results:       report.Results,
	})
}

// ListTrendsRequest represents the query parameters for listing trends.
type ListTrendsRequest struct {
	Zone    string `form:"zone"`
	Segment string `form:"segment"`
	Brand   string `form:"brand"`
	Limit   int32  `form:"limit"`
	Token   string `form:"token"`
}

// TrendResponse represents the response body for one trend product.
type TrendResponse struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Category           string   `json:"category,omitempty"`
	Material           string   `json:"material,omitempty"`
	AveragePrice       float64  `json:"averagePrice"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	Description        string   `json:"description,omitempty"`
	Segment            string   `json:"segment"`
	MarketZone         string   `json:"marketZone"`
	SourceURL          string   `json:"sourceUrl"`
	SourceBrand        string   `json:"sourceBrand"`
	TrendScore         int      `json:"trendScore"`
	TrendGrowthPercent *float64 `json:"trendGrowthPercent,omitempty"`
	TrendLabel         *string  `json:"trendLabel,omitempty"`
	Saturability       int      `json:"saturability"`
	DaysInRadar        int      `json:"daysInRadar"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
}

// ListTrendsResponse represents the response body for listing trends.
type ListTrendsResponse struct {
	Trends        []TrendResponse `json:"trends"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

// ListTrends handles the HTTP GET request for listing trend products with
// zone, segment and brand filters plus cursor pagination.
func (tc *TrendController) ListTrends(c *gin.Context) {
	var req ListTrendsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if req.Zone != "" {
		query.With(repository.MarketZoneField, req.Zone)
	}
	if req.Segment != "" {
		query.With(repository.SegmentField, req.Segment)
	}
	if req.Brand != "" {
		query.With(repository.SourceBrandField, req.Brand)
	}
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resources, err := tc.repo.List(c.Request.Context(), *query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list trends"})
		return
	}

	response := ListTrendsResponse{}
	var lastProduct *model.TrendProduct
	for _, resource := range resources {
		product, ok := resource.(*model.TrendProduct)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list trends"})
			return
		}
		response.Trends = append(response.Trends, toTrendResponse(product))
		lastProduct = product
	}

	if lastProduct != nil {
		paginator := repository.Paginator{
			LastID:        lastProduct.ID,
			LastCreatedAt: lastProduct.CreatedAt,
		}
		response.NextPageToken = paginator.Encode()
	}

	c.JSON(http.StatusOK, response)
}

// Cleanup handles the HTTP POST request that rescores the radar and removes
// low-score products. The dryRun query parameter reports without writing.
func (tc *TrendController) Cleanup(c *gin.Context) {
	dryRun := c.Query("dryRun") == "true"

	report, err := tc.cleanup.Run(c.Request.Context(), dryRun)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup run failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// DeleteTrend handles the HTTP DELETE request for removing one trend product.
// The deletion goes through the outbox so downstream consumers see it.
func (tc *TrendController) DeleteTrend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trend ID"})
		return
	}

	resource, err := tc.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trend not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete trend"})
		return
	}

	product, ok := resource.(*model.TrendProduct)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete trend"})
		return
	}

	if _, err := tc.deleter.DeleteProductsWithEvents(c.Request.Context(), []*model.TrendProduct{product}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete trend"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "trend deleted successfully"})
}

func toTrendResponse(product *model.TrendProduct) TrendResponse {
	return TrendResponse{
		ID:                 product.ID.String(),
		Name:               product.Name,
		Category:           product.Category,
		Material:           product.Material,
		AveragePrice:       product.AveragePrice,
		ImageURL:           product.ImageURL,
		Description:        product.Description,
		Segment:            string(product.Segment),
		MarketZone:         string(product.MarketZone),
		SourceURL:          product.SourceURL,
		SourceBrand:        product.SourceBrand,
		TrendScore:         product.TrendScore,
		TrendGrowthPercent: product.TrendGrowthPercent,
		TrendLabel:         product.TrendLabel,
		Saturability:       product.Saturability,
		DaysInRadar:        product.DaysInRadar,
		CreatedAt:          product.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:          product.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
