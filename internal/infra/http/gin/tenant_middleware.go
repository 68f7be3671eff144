package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	domaintenant "staybook/internal/domain/tenant"
)

// TenantResolver turns the X-Tenant slug header into a request-scoped tenant.
// Outside prod an empty header may fall back to DefaultSlug; unresolved or
// inactive tenants never reach a handler.
type TenantResolver struct {
	Tenants     domaintenant.Repository
	DefaultSlug string
	Env         string
}

func (r TenantResolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.GetHeader("X-Tenant")
		if slug == "" {
			if r.Env == "prod" || r.DefaultSlug == "" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Tenant header is required"})
				return
			}
			slug = r.DefaultSlug
		}
		ten, err := r.Tenants.BySlug(c.Request.Context(), slug)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown tenant"})
			return
		}
		if !ten.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant is inactive"})
			return
		}
		c.Request = c.Request.WithContext(domaintenant.ContextWithTenant(c.Request.Context(), ten))
		c.Next()
	}
}
