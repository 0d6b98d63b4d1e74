package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/door-bridge/internal/hardware"
	"github.com/wfunc/door-bridge/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine      *gin.Engine
	controller  hardware.DoorController
	doorHandler *DoorHandler
	log         *zap.Logger
}

// NewRouter 创建路由器
// db 可以为 nil（无审计日志，路由行为不变）。
func NewRouter(controller hardware.DoorController, db *gorm.DB, log *zap.Logger) *Router {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	// 创建审计仓库
	var cmdLogRepo *repository.CommandLogRepository
	if db != nil {
		cmdLogRepo = repository.NewCommandLogRepository(db)
	}

	// 创建处理器
	doorHandler := NewDoorHandler(controller, cmdLogRepo, log)

	router := &Router{
		engine:      engine,
		controller:  controller,
		doorHandler: doorHandler,
		log:         log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
// 对外只暴露一个路由：POST /open。
func (r *Router) setupRoutes() {
	r.engine.POST("/open", r.doorHandler.Open)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// requestLogger 请求日志中间件
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试和优雅关闭）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
