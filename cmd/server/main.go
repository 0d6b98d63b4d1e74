package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/door-bridge/internal/api"
	"github.com/wfunc/door-bridge/internal/config"
	"github.com/wfunc/door-bridge/internal/database"
	"github.com/wfunc/door-bridge/internal/errors"
	"github.com/wfunc/door-bridge/internal/hardware"
	"github.com/wfunc/door-bridge/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	controller hardware.DoorController
	db         *gorm.DB
	httpServer *http.Server

	shutdownCh chan struct{}
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	// 显示版本信息
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 显示帮助信息
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 设置Gin运行模式
	setGinMode(cfg.Server.Mode)

	// 创建服务器实例
	server := NewServer(cfg)

	// 启动服务器
	// 串口打开失败是启动致命错误，不允许在没有可用句柄的情况下运行
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 监听配置变化（日志级别等旁路配置）
	config.Watch(func(newCfg *config.Config) {
		logger.SetLevel(newCfg.Log.Level)
	})

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动门禁桥接服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	// 初始化数据库（命令审计日志，失败不阻止启动）
	s.initDatabase()

	// 初始化门禁控制器（失败为致命错误）
	if err := s.initController(); err != nil {
		return err
	}

	// 启动HTTP服务器
	s.startHTTPServer()

	s.logger.Info("服务器启动成功",
		zap.String("http", fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)),
		zap.String("serial", s.cfg.Serial.Port),
		zap.Int("baud_rate", s.cfg.Serial.BaudRate),
	)

	return nil
}

// initDatabase 初始化数据库
// 审计日志是旁路功能，数据库不可用时服务降级运行，路由行为不变。
func (s *Server) initDatabase() {
	if err := database.Init(&s.cfg.Database); err != nil {
		s.logger.Warn("初始化数据库失败，命令审计日志已禁用", zap.Error(err))
		return
	}

	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			s.logger.Warn("数据库迁移失败，命令审计日志已禁用", zap.Error(err))
			return
		}
	}

	s.db = database.GetDB()
	s.logger.Info("数据库初始化完成")
}

// initController 初始化门禁控制器
// 串口必须在HTTP服务接收请求之前打开成功。
func (s *Server) initController() error {
	if s.cfg.Serial.MockMode {
		s.logger.Warn("使用模拟门禁控制器（mock_mode已启用）")
		s.controller = hardware.NewMockController()
	} else {
		s.controller = hardware.NewSerialController(&s.cfg.Serial)
	}

	if err := s.controller.Connect(); err != nil {
		return errors.Wrap(err, errors.ErrSerialPortOpen, "门禁控制器连接失败")
	}

	return nil
}

// startHTTPServer 启动HTTP服务器
func (s *Server) startHTTPServer() {
	router := api.NewRouter(s.controller, s.db, s.logger)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务器异常退出", zap.Error(err))
		}
	}()
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)

	// 监听系统信号
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))

	close(s.shutdownCh)
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	// 创建超时上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务器关闭超时", zap.Error(err))
		}
	}

	// 关闭各个组件
	if err := s.closeComponents(); err != nil {
		s.logger.Error("关闭组件失败", zap.Error(err))
		return err
	}

	// 同步日志
	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() error {
	s.logger.Info("关闭组件...")

	// 断开串口
	if s.controller != nil {
		if err := s.controller.Disconnect(); err != nil {
			s.logger.Error("断开串口失败", zap.Error(err))
		}
	}

	// 关闭数据库连接
	if s.db != nil {
		if err := database.Close(); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
		}
	}

	s.logger.Info("所有组件已关闭")
	return nil
}

// setGinMode 设置Gin运行模式
func setGinMode(mode string) {
	switch mode {
	case "development", "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("门禁桥接服务\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("门禁桥接服务")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  door-bridge [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  DOOR_BRIDGE_SERIAL_PORT       串口设备路径")
	fmt.Println("  DOOR_BRIDGE_SERIAL_BAUD_RATE  波特率")
	fmt.Println("  DOOR_BRIDGE_SERVER_PORT       HTTP监听端口")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  door-bridge -config=/path/to/config.yaml")
	fmt.Println("  door-bridge -version")
}
