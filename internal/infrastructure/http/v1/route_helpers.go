package v1

import (
	"github.com/gin-gonic/gin"

	"corseg/internal/domain/auth"
	"corseg/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler is the route surface of a catalog handler.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// readRoles lets both operator and read-only users query; admins pass
// every role check.
func readRoles() gin.HandlerFunc {
	return middleware.RequireAnyRole(auth.RoleOperador, auth.RoleConsulta)
}

func writeRole() gin.HandlerFunc {
	return middleware.RequireRole(auth.RoleOperador)
}

// RegisterCatalogRoutes mounts the standard catalog CRUD under path.
func RegisterCatalogRoutes(rg *gin.RouterGroup, path string, h CatalogRouteHandler) {
	grp := rg.Group(path)

	read := readRoles()
	write := writeRole()

	grp.GET("", read, h.List)
	grp.GET("/:id", read, h.Get)
	grp.POST("", write, h.Create)
	grp.PUT("/:id", write, h.Update)
	grp.DELETE("/:id", write, h.Delete)
	grp.POST("/:id/deletion-mark", write, h.SetDeletionMark)
}
