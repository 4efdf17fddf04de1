package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	action       domain.AuditAction
	resourceType string
}

// auditRoutes keys are "METHOD route-pattern".
var auditRoutes = map[string]auditRoute{
	"POST /api/v1/wallets":            {domain.AuditActionCreateWallet, "wallet"},
	"PATCH /api/v1/wallets/:id":       {domain.AuditActionRenameWallet, "wallet"},
	"DELETE /api/v1/wallets/:id":      {domain.AuditActionDeleteWallet, "wallet"},
	"POST /api/v1/transactions":       {domain.AuditActionCreateTransaction, "transaction"},
	"PATCH /api/v1/transactions/:id":  {domain.AuditActionUpdateTransaction, "transaction"},
	"DELETE /api/v1/transactions/:id": {domain.AuditActionDeleteTransaction, "transaction"},
}

// AuditLog creates an audit middleware that logs successful write operations.
// It maps HTTP methods and route patterns to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < http.StatusOK || c.Writer.Status() >= http.StatusMultipleChoices {
			return
		}

		route, ok := auditRoutes[c.Request.Method+" "+c.FullPath()]
		if !ok {
			return
		}

		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.GetString(CtxResourceID)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			Action:       route.action,
			ResourceType: route.resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}
