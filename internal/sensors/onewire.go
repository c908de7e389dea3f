package sensors

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OneWire reads DS18B20-family sensors off the kernel's w1 sysfs tree,
// generalized from the teacher's internal/gpio.ReadSensorTemp (which
// hardcoded a single path and a C-to-F conversion no longer needed here:
// the core works exclusively in Celsius/fixed-point, conversion to display
// units happens only at the remote-control boundary).
type OneWire struct {
	// Paths maps a sensor id to its device directory, e.g.
	// /sys/bus/w1/devices/28-000005e3e4b2.
	Paths map[string]string
}

func NewOneWire(paths map[string]string) *OneWire {
	return &OneWire{Paths: paths}
}

func (o *OneWire) Read(id string) (float64, error) {
	dir, ok := o.Paths[id]
	if !ok {
		return 0, fmt.Errorf("onewire: unknown sensor id %q", id)
	}
	data, err := os.ReadFile(filepath.Join(dir, "w1_slave"))
	if err != nil {
		return 0, fmt.Errorf("onewire: read %s: %w", id, err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 || !strings.Contains(lines[0], "YES") {
		return 0, fmt.Errorf("onewire: crc check failed for %s", id)
	}
	if !strings.Contains(lines[1], "t=") {
		return 0, fmt.Errorf("onewire: malformed reading for %s", id)
	}

	parts := strings.SplitN(lines[1], "t=", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("onewire: could not parse temperature for %s", id)
	}
	milliC, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("onewire: non-numeric temperature for %s: %w", id, err)
	}
	return float64(milliC) / 1000.0, nil
}
