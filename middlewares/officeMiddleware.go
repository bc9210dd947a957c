package middlewares

import (
	"net/http"

	"github.com/aagamsoft/billing_backend/models"
	"github.com/aagamsoft/billing_backend/utils"
	"github.com/gin-gonic/gin"
)

// OfficeMiddleware resolves the issuing office for the request from the
// "office" header and attaches it to the request context. Unknown office
// codes are rejected here so the engine never sees them; the sequencer's
// first-office fallback stays a data-scan concern only.
func OfficeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		officeCode := c.GetHeader("office")
		if officeCode == "" {
			c.Next()
			return
		}
		if _, ok := models.OfficeByCode(officeCode); !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unrecognized office code"})
			return
		}
		c.Request = c.Request.WithContext(utils.SetOfficeCodeInContext(c.Request.Context(), officeCode))
		c.Next()
	}
}

// ClerkMiddleware records the acting clerk's name from the "clerk" header,
// used for audit fields only.
func ClerkMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if clerk := c.GetHeader("clerk"); clerk != "" {
			c.Request = c.Request.WithContext(utils.SetClerkNameInContext(c.Request.Context(), clerk))
		}
		c.Next()
	}
}
