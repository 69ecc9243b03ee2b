//go:build !linux && !windows

package sensor

// No temperature backend on this platform; New falls through to the simulator.
func platformBackends() []backend {
	return nil
}
