package hardware

import "time"

// DoorController 门禁控制器接口
type DoorController interface {
	// 基础操作
	Connect() error
	Disconnect() error
	IsConnected() bool

	// 门禁控制
	OpenDoor() error

	// 状态监控
	GetStatus() *DeviceStatus
}

// DeviceStatus 设备状态
type DeviceStatus struct {
	Connected       bool      `json:"connected"`
	Port            string    `json:"port"`
	BaudRate        int       `json:"baud_rate"`
	LastCommand     string    `json:"last_command"`
	LastCommandTime time.Time `json:"last_command_time"`
	TotalWrites     int64     `json:"total_writes"`
	ErrorCount      int       `json:"error_count"`
}

// Command 命令类型
type Command byte

const (
	// CmdOpenDoor 开门命令，门禁控制板收到 'O' 后执行开门动作
	CmdOpenDoor Command = 0x4F
)
