package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/response"
)

type templateCatalog interface {
	Templates() []models.MilestoneTemplate
	Lookup(pt models.ProjectType) (models.MilestoneTemplate, error)
}

// CatalogHandler serves the read-only milestone template catalog.
type CatalogHandler struct {
	catalog templateCatalog
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog templateCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List godoc
// @Summary List milestone templates
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/templates [get]
func (h *CatalogHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Templates(), nil)
}

// Get godoc
// @Summary Get the milestone template of a project type
// @Tags Catalog
// @Produce json
// @Param type path string true "Project type"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /catalog/templates/{type} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	pt, ok := models.ParseProjectType(c.Param("type"))
	if !ok {
		response.Error(c, appErrors.ErrUnknownProjectType)
		return
	}
	tpl, err := h.catalog.Lookup(pt)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnknownProjectType.Code, appErrors.ErrUnknownProjectType.Status, "no template for project type"))
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}
