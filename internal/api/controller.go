// Package api wires the productos HTTP surface onto gin.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/rs/zerolog"

	"productos/internal/models"
	"productos/internal/schema"
)

// Store is what the controller needs from persistence.
type Store interface {
	All(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id uint, apply func(*models.Product)) (*models.Product, error)
	Delete(ctx context.Context, id uint) (*models.Product, error)
}

// ProductController serves /productos. Each handler is one store call.
type ProductController struct {
	store Store
	log   zerolog.Logger
}

// NewProductController returns a controller backed by store.
func NewProductController(store Store, log zerolog.Logger) *ProductController {
	return &ProductController{store: store, log: log}
}

// Register mounts the five product routes on r.
func (pc *ProductController) Register(r gin.IRouter) {
	g := r.Group("/productos")
	g.GET("", pc.List)
	g.GET("/:id", pc.Get)
	g.POST("", pc.Create)
	g.PUT("/:id", pc.Update)
	g.DELETE("/:id", pc.Delete)
}

// List answers every product, or [] for an empty table.
func (pc *ProductController) List(c *gin.Context) {
	items, err := pc.store.All(c.Request.Context())
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.DumpMany(items))
}

// Get answers null, not 404, for an unknown id.
func (pc *ProductController) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		pc.fail(c, err)
		return
	}
	p, err := pc.store.Get(c.Request.Context(), id)
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Dump(p))
}

// Create inserts the product from the body and answers it with its new id.
func (pc *ProductController) Create(c *gin.Context) {
	var in schema.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		pc.fail(c, errors.Annotate(err, "reading producto"))
		return
	}
	p := in.New()
	if err := pc.store.Create(c.Request.Context(), p); err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Dump(p))
}

// Update overwrites all four fields; nothing from the old row is merged.
func (pc *ProductController) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		pc.fail(c, err)
		return
	}
	var in schema.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		pc.fail(c, errors.Annotate(err, "reading producto"))
		return
	}
	p, err := pc.store.Update(c.Request.Context(), id, in.Apply)
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Dump(p))
}

// Delete answers with the row as it was before removal.
func (pc *ProductController) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		pc.fail(c, err)
		return
	}
	p, err := pc.store.Delete(c.Request.Context(), id)
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Dump(p))
}

// fail is the single failure path: missing rows, bad bodies and store
// faults all end up as a 500.
func (pc *ProductController) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	pc.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func paramID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.NotValidf("producto id %q", raw)
	}
	return uint(id), nil
}
