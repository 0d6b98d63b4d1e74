package hardware

import "io"

// SerialPort 串口接口（用于测试时替换真实设备）
type SerialPort interface {
	io.WriteCloser
	Flush() error
}
