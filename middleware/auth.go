package middleware

import (
	"net/http"
	"strings"

	"agendabot/utils"
	"agendabot/utils/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TenantAuthMiddleware requires a bearer token issued for the tenant in the
// :companyID path parameter.
func TenantAuthMiddleware(secret []byte, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := utils.ValidateTenantToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		companyID := c.Param("companyID")
		if claims.CompanyID != companyID {
			logger.Warn("token used for another tenant",
				zap.String("token_company_id", claims.CompanyID),
				zap.String("company_id", companyID),
				zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "token is not valid for this company",
				"error_code": string(apperr.KindTenantMismatch),
			})
			return
		}

		c.Set("companyID", claims.CompanyID)
		c.Next()
	}
}
