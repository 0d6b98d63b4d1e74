package hardware

import (
	"sync"
	"time"

	apperrors "github.com/wfunc/door-bridge/internal/errors"
	"github.com/wfunc/door-bridge/internal/logger"
	"go.uber.org/zap"
)

// MockController 模拟门禁控制器（用于测试和无硬件调试）
type MockController struct {
	mu        sync.Mutex
	logger    *zap.Logger
	connected bool

	// 模拟状态
	written  []byte
	status   *DeviceStatus
	writeErr error // 注入的写入错误
}

// NewMockController 创建模拟控制器
func NewMockController() *MockController {
	return &MockController{
		logger: logger.GetModuleLogger("hardware"),
		status: &DeviceStatus{
			Port: "mock",
		},
	}
}

// Connect 模拟连接
func (m *MockController) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return nil
	}

	m.connected = true
	m.status.Connected = true
	m.logger.Info("模拟门禁控制器已连接")
	return nil
}

// Disconnect 模拟断开
func (m *MockController) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	m.status.Connected = false
	m.logger.Info("模拟门禁控制器已断开")
	return nil
}

// IsConnected 检查连接状态
func (m *MockController) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// OpenDoor 模拟开门命令
func (m *MockController) OpenDoor() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		m.status.ErrorCount++
		return apperrors.New(apperrors.ErrDeviceOffline, "模拟设备未连接")
	}

	if m.writeErr != nil {
		m.status.ErrorCount++
		return apperrors.Wrap(m.writeErr, apperrors.ErrSerialPortWrite)
	}

	m.written = append(m.written, byte(CmdOpenDoor))
	m.status.LastCommand = "OpenDoor"
	m.status.LastCommandTime = time.Now()
	m.status.TotalWrites++

	m.logger.Debug("模拟开门命令", zap.Int("total_writes", len(m.written)))
	return nil
}

// GetStatus 获取设备状态
func (m *MockController) GetStatus() *DeviceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := *m.status
	return &status
}

// SetWriteError 注入写入错误（用于测试失败路径）
func (m *MockController) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Written 返回已写入的字节（副本）
func (m *MockController) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]byte, len(m.written))
	copy(out, m.written)
	return out
}
