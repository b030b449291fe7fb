package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"productos/internal/logging"
	"productos/internal/metrics"
	"productos/internal/store"
)

// NewRouter builds the engine: recovery, request logging, metrics, health
// and the product routes over db.
func NewRouter(db *gorm.DB, log zerolog.Logger) *gin.Engine {
	m := metrics.New()

	r := gin.New()
	r.Use(gin.Recovery(), logging.Requests(log), m.Middleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	NewProductController(store.NewProducts(db), log).Register(r)
	return r
}
