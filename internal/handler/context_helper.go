package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epc-dashboard-api/internal/middleware"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/response"
)

func actorFromContext(c *gin.Context) string {
	return middleware.ActorFrom(c)
}

func pathParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" is required"))
		return "", false
	}
	return value, true
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return page, size
}

// respondWithCache writes data along with cache and timing meta.
func respondWithCache(c *gin.Context, data interface{}, pagination *models.Pagination, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, pagination, meta)
}
