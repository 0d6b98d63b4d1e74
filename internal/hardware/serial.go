package hardware

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
	"github.com/wfunc/door-bridge/internal/config"
	apperrors "github.com/wfunc/door-bridge/internal/errors"
	"github.com/wfunc/door-bridge/internal/logger"
	"go.uber.org/zap"
)

// SerialController 串口门禁控制器实现
// 进程内只持有一个串口句柄，不做连接池和多路复用。
type SerialController struct {
	config    *config.SerialConfig
	port      SerialPort
	connected bool
	mu        sync.Mutex // 串行化写入，避免并发请求在硬件层交错
	status    *DeviceStatus
	logger    *zap.Logger
}

// NewSerialController 创建串口门禁控制器
func NewSerialController(cfg *config.SerialConfig) *SerialController {
	return &SerialController{
		config: cfg,
		status: &DeviceStatus{
			Port:     cfg.Port,
			BaudRate: cfg.BaudRate,
		},
		logger: logger.GetModuleLogger("hardware"),
	}
}

// NewSerialControllerWithPort 使用已打开的串口创建控制器（用于测试注入模拟串口）
func NewSerialControllerWithPort(cfg *config.SerialConfig, port SerialPort) *SerialController {
	c := NewSerialController(cfg)
	c.port = port
	c.connected = true
	c.status.Connected = true
	return c
}

// Connect 连接串口
// 必须在HTTP服务接收请求之前成功；失败由调用方作为启动致命错误处理。
func (s *SerialController) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	// 配置串口
	serialConfig := &serial.Config{
		Name:        s.config.Port,
		Baud:        s.config.BaudRate,
		ReadTimeout: s.config.ReadTimeout,
	}

	// 打开串口
	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		s.logger.Error("打开串口失败",
			zap.String("port", s.config.Port),
			zap.Int("baud_rate", s.config.BaudRate),
			zap.Error(err))
		return apperrors.Wrapf(err, apperrors.ErrSerialPortOpen,
			"设备: %s, 波特率: %d", s.config.Port, s.config.BaudRate)
	}

	s.port = port
	s.connected = true
	s.status.Connected = true

	s.logger.Info("串口连接成功",
		zap.String("port", s.config.Port),
		zap.Int("baud_rate", s.config.BaudRate))

	return nil
}

// Disconnect 断开连接
func (s *SerialController) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	if s.port != nil {
		if err := s.port.Close(); err != nil {
			s.logger.Error("关闭串口失败", zap.Error(err))
			return err
		}
	}

	s.connected = false
	s.status.Connected = false
	s.port = nil

	s.logger.Info("串口已断开")

	return nil
}

// IsConnected 检查连接状态
func (s *SerialController) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// OpenDoor 发送开门命令
// 每次调用只写入一个字节(0x4F)，不读回、不重试；写入失败返回错误，
// 串口保持打开，后续请求可以继续。
func (s *SerialController) OpenDoor() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.port == nil {
		s.status.ErrorCount++
		return apperrors.New(apperrors.ErrDeviceOffline, "串口未连接")
	}

	n, err := s.port.Write([]byte{byte(CmdOpenDoor)})
	if err != nil {
		s.status.ErrorCount++
		s.logger.Error("写入开门命令失败",
			zap.String("command", fmt.Sprintf("0x%02X", byte(CmdOpenDoor))),
			zap.Error(err))
		return apperrors.Wrap(err, apperrors.ErrSerialPortWrite)
	}
	if n != 1 {
		s.status.ErrorCount++
		return apperrors.Newf(apperrors.ErrSerialPortWrite, "期望写入1字节, 实际写入%d字节", n)
	}

	s.status.LastCommand = "OpenDoor"
	s.status.LastCommandTime = time.Now()
	s.status.TotalWrites++

	s.logger.Debug("开门命令已发送",
		zap.String("command", fmt.Sprintf("0x%02X", byte(CmdOpenDoor))))

	return nil
}

// GetStatus 获取设备状态
func (s *SerialController) GetStatus() *DeviceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 返回副本，避免调用方看到中间状态
	status := *s.status
	return &status
}
