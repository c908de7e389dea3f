package sensors

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	wrapper "github.com/grid-x/modbus"
)

// ModbusRegister describes how to decode one holding register into a
// Celsius reading, generalized from jpxor-burlo.v2's pkg/modbus register
// definitions (scale/offset over a uint16/int16 holding register).
type ModbusRegister struct {
	Address uint16
	Signed  bool
	Scale   float64 // divide raw by Scale to get Celsius, e.g. 10 for ddegC
	Offset  float64
}

// Modbus reads temperature sensors exposed as holding registers on a remote
// I/O unit, an alternative to the default 1-Wire backend for installations
// that front their sensors behind a Modbus gateway.
type Modbus struct {
	client    wrapper.Client
	handler   *wrapper.TCPClientHandler
	registers map[string]ModbusRegister
}

// NewModbus dials addr (host:port) and binds the given id->register map.
func NewModbus(addr string, slaveID byte, timeout time.Duration, registers map[string]ModbusRegister) (*Modbus, error) {
	handler := wrapper.NewTCPClientHandler(addr)
	handler.SlaveID = slaveID
	handler.Timeout = timeout
	if err := handler.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("modbus: connect %s: %w", addr, err)
	}
	return &Modbus{
		client:    wrapper.NewClient(handler),
		handler:   handler,
		registers: registers,
	}, nil
}

func (m *Modbus) Close() error {
	return m.handler.Close()
}

func (m *Modbus) Read(id string) (float64, error) {
	reg, ok := m.registers[id]
	if !ok {
		return 0, fmt.Errorf("modbus: unknown sensor id %q", id)
	}
	data, err := m.client.ReadHoldingRegisters(context.Background(), reg.Address, 1)
	if err != nil {
		return 0, fmt.Errorf("modbus: read register %d for %s: %w", reg.Address, id, err)
	}
	if len(data) < 2 {
		return 0, fmt.Errorf("modbus: short read for %s", id)
	}
	raw := binary.BigEndian.Uint16(data)
	var value float64
	if reg.Signed {
		value = float64(int16(raw))
	} else {
		value = float64(raw)
	}
	scale := reg.Scale
	if scale == 0 {
		scale = 1
	}
	return value/scale + reg.Offset, nil
}
