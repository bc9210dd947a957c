package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/aagamsoft/billing_backend/middlewares"
	"github.com/aagamsoft/billing_backend/models"
	"github.com/aagamsoft/billing_backend/models/reports"
	"github.com/aagamsoft/billing_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// statusForError maps engine failures onto specific, actionable responses.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid quantity inputs: per must be positive and case counts non-negative"
	case errors.Is(err, models.ErrInvalidDiscount):
		return http.StatusBadRequest, "discount percent must be between 0 and 100"
	case errors.Is(err, models.ErrInvalidParameter):
		return http.StatusBadRequest, "invalid parameter: check region, office and percentages"
	case errors.Is(err, models.ErrDuplicateDocumentNumber):
		return http.StatusConflict, "invoice number already exists for this office"
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound, "record not found"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := statusForError(err)
	c.JSON(status, gin.H{"error": msg})
}

func requireOffice(c *gin.Context) (string, bool) {
	officeCode, ok := utils.GetOfficeCodeFromContext(c.Request.Context())
	if !ok || officeCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "office header is required"})
		return "", false
	}
	return officeCode, true
}

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOffice(c); !ok {
			return
		}
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := models.CreateInvoice(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func updateInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
			return
		}
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := models.UpdateInvoice(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
			return
		}
		invoice, err := models.GetInvoice(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		officeCode, ok := requireOffice(c)
		if !ok {
			return
		}
		from, err := utils.ParseDate(c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		to, err := utils.ParseDate(c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		invoices, err := models.GetInvoices(c.Request.Context(), officeCode, from, to)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

type previewTotalsRequest struct {
	Region         models.Region             `json:"region" binding:"required"`
	GstPercent     decimal.Decimal           `json:"gst_percent" binding:"percent"`
	PackingPercent decimal.Decimal           `json:"packing_percent" binding:"percent"`
	Details        []models.NewInvoiceDetail `json:"details"`
}

// previewTotalsHandler recomputes the breakdown for a draft without saving
// anything; the screen calls it on every line edit or parameter change.
func previewTotalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req previewTotalsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		items := make([]models.LineItem, 0, len(req.Details))
		for _, d := range req.Details {
			items = append(items, models.LineItem{
				CaseCount:       d.CaseCount,
				PerCase:         d.PerCase,
				Rate:            d.Rate,
				Per:             d.Per,
				UnitType:        d.UnitType,
				DiscountPercent: d.DiscountPercent,
			})
		}
		totals, err := models.AggregateInvoiceTotals(items, req.Region, req.GstPercent, req.PackingPercent)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, totals.ToRecord())
	}
}

func nextInvoiceNumberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		officeCode, ok := requireOffice(c)
		if !ok {
			return
		}
		number, err := models.ProposeNextInvoiceNumber(c.Request.Context(), officeCode)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"office_code": officeCode, "invoice_number": number})
	}
}

func commissionStatementParams(c *gin.Context) (string, decimal.Decimal, time.Time, time.Time, bool) {
	agent := strings.TrimSpace(c.Query("agent"))
	if agent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent query parameter is required"})
		return "", decimal.Zero, time.Time{}, time.Time{}, false
	}
	rate, err := decimal.NewFromString(c.DefaultQuery("rate", "0"))
	if err != nil || rate.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission rate"})
		return "", decimal.Zero, time.Time{}, time.Time{}, false
	}
	from, err := utils.ParseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
		return "", decimal.Zero, time.Time{}, time.Time{}, false
	}
	to, err := utils.ParseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
		return "", decimal.Zero, time.Time{}, time.Time{}, false
	}
	return agent, rate, from, to, true
}

func commissionStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, rate, from, to, ok := commissionStatementParams(c)
		if !ok {
			return
		}
		statement, err := reports.GenerateCommissionStatement(c.Request.Context(), agent, rate, from, to)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, statement)
	}
}

func commissionStatementExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, rate, from, to, ok := commissionStatementParams(c)
		if !ok {
			return
		}
		statement, err := reports.GenerateCommissionStatement(c.Request.Context(), agent, rate, from, to)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=commission-%s.xlsx", statement.RunId))
		if err := reports.ExportCommissionStatementExcel(statement, c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	}
}

func nameFilter(c *gin.Context) *string {
	if q := strings.TrimSpace(c.Query("name")); q != "" {
		return &q
	}
	return nil
}

func listPartiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		parties, err := models.GetParties(c.Request.Context(), nameFilter(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, parties)
	}
}

func getPartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid party id"})
			return
		}
		party, err := models.GetParty(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, party)
	}
}

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := models.GetProducts(c.Request.Context(), nameFilter(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func listOfficesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Offices)
	}
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, ginErr := range c.Errors {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.Request.URL.Path,
				"correlation_id": cid,
			}).Error(ginErr.Error())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	utils.RegisterBindingValidations()

	// Start the HTTP server ASAP; until DB/Redis are ready we return 503 for
	// app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.UniqueSlice(splitAndTrim(allowedOrigins))
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("office", "clerk", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.OfficeMiddleware())
	r.Use(middlewares.ClerkMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/offices", listOfficesHandler())
	r.GET("/parties", listPartiesHandler())
	r.GET("/parties/:id", getPartyHandler())
	r.GET("/products", listProductsHandler())
	r.POST("/invoices", createInvoiceHandler())
	r.PUT("/invoices/:id", updateInvoiceHandler())
	r.GET("/invoices/:id", getInvoiceHandler())
	r.GET("/invoices", listInvoicesHandler())
	r.POST("/invoices/preview", previewTotalsHandler())
	r.GET("/invoices/next-number", nextInvoiceNumberHandler())
	r.GET("/reports/commission-statement", commissionStatementHandler())
	r.GET("/reports/commission-statement.xlsx", commissionStatementExcelHandler())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"port": port}).Fatal(err.Error())
		}
	}()

	// Connect dependencies after the listener is up.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()

	if err := config.GetDB().AutoMigrate(
		&models.Party{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceDetail{},
	); err != nil {
		config.LogError(logger, "main", "AutoMigrate", "schema migration", nil, err)
	}

	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.LogError(logger, "main", "Shutdown", "graceful shutdown", nil, err)
	}
}
