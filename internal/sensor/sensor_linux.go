//go:build linux

package sensor

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

func platformBackends() []backend {
	return []backend{&hwmonBackend{}}
}

// hwmonBackend reads the kernel hwmon sensors via gopsutil.
type hwmonBackend struct{}

func (b *hwmonBackend) Name() string { return "hwmon" }

// ReadTemp picks a single CPU temperature out of the sensor list.
// Preference order: package/die sensor, then average, then max, then the
// mean of the per-core sensors.
func (b *hwmonBackend) ReadTemp(ctx context.Context) (float64, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		if os.IsPermission(err) {
			return 0, ErrPermissionDenied
		}
		return 0, err
	}

	var (
		pkg, avg, max *float64
		cores         []float64
	)
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if !isCPUSensorKey(key) {
			continue
		}
		v := t.Temperature
		switch {
		case strings.Contains(key, "package") || strings.Contains(key, "tctl") || strings.Contains(key, "tdie"):
			pkg = &v
		case strings.Contains(key, "average"):
			avg = &v
		case strings.Contains(key, "max"):
			max = &v
		default:
			cores = append(cores, v)
		}
	}

	switch {
	case pkg != nil:
		return *pkg, nil
	case avg != nil:
		return *avg, nil
	case max != nil:
		return *max, nil
	case len(cores) > 0:
		var sum float64
		for _, c := range cores {
			sum += c
		}
		return sum / float64(len(cores)), nil
	}
	return 0, ErrNoSensor
}

func isCPUSensorKey(key string) bool {
	for _, marker := range []string{"coretemp", "k10temp", "zenpower", "x86_pkg_temp", "cpu", "core", "processor"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
