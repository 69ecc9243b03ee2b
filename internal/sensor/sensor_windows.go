//go:build windows

package sensor

import (
	"context"
	"strings"

	"github.com/StackExchange/wmi"
)

// Backend priority mirrors the probe order of the desktop widget: a running
// LibreHardwareMonitor instance, then OpenHardwareMonitor, then the ACPI
// thermal zone (which usually requires administrator rights).
func platformBackends() []backend {
	return []backend{
		&monitorWMIBackend{name: "lhm-wmi", namespace: `root\LibreHardwareMonitor`},
		&monitorWMIBackend{name: "ohm-wmi", namespace: `root\OpenHardwareMonitor`},
		&acpiBackend{},
	}
}

// hardwareMonitorSensor matches the Sensor class exposed by both
// LibreHardwareMonitor and OpenHardwareMonitor.
type hardwareMonitorSensor struct {
	Name       string
	Parent     string
	SensorType string
	Value      float32
}

type monitorWMIBackend struct {
	name      string
	namespace string
}

func (b *monitorWMIBackend) Name() string { return b.name }

func (b *monitorWMIBackend) ReadTemp(ctx context.Context) (float64, error) {
	var sensors []hardwareMonitorSensor
	q := "SELECT Name, Parent, SensorType, Value FROM Sensor WHERE SensorType = 'Temperature'"
	if err := wmi.QueryNamespace(q, &sensors, b.namespace); err != nil {
		return 0, classifyWMIError(err)
	}

	var (
		pkg, avg, max *float64
		cores         []float64
	)
	for _, s := range sensors {
		name := strings.ToLower(s.Name)
		parent := strings.ToLower(s.Parent)
		if !isCPUTempSensor(name, parent) {
			continue
		}
		v := float64(s.Value)
		if v <= 0 || v > MaxPlausibleC {
			continue
		}
		switch {
		case strings.Contains(name, "package"):
			pkg = &v
		case strings.Contains(name, "average"):
			avg = &v
		case strings.Contains(name, "max"):
			max = &v
		case strings.Contains(name, "core"):
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

func isCPUTempSensor(name, parent string) bool {
	for _, marker := range []string{"cpu", "intel", "amd", "processor"} {
		if strings.Contains(parent, marker) {
			return true
		}
	}
	return strings.Contains(name, "cpu") || strings.Contains(name, "core")
}

// msAcpiThermalZoneTemperature reports tenths of Kelvin.
type msAcpiThermalZoneTemperature struct {
	CurrentTemperature uint32
}

type acpiBackend struct{}

func (b *acpiBackend) Name() string { return "acpi" }

func (b *acpiBackend) ReadTemp(ctx context.Context) (float64, error) {
	var zones []msAcpiThermalZoneTemperature
	q := "SELECT CurrentTemperature FROM MSAcpi_ThermalZoneTemperature"
	if err := wmi.QueryNamespace(q, &zones, `root\wmi`); err != nil {
		return 0, classifyWMIError(err)
	}
	if len(zones) == 0 || zones[0].CurrentTemperature == 0 {
		return 0, ErrNoSensor
	}
	return float64(zones[0].CurrentTemperature)/10.0 - 273.15, nil
}

func classifyWMIError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "access is denied") || strings.Contains(msg, "access denied") {
		return ErrPermissionDenied
	}
	if strings.Contains(msg, "invalid namespace") || strings.Contains(msg, "not found") {
		return ErrNoSensor
	}
	return err
}
