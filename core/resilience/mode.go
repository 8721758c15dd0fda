package resilience

import "fmt"

// ServiceMode is the process-wide degradation level governing which data
// sources and algorithms are trusted.
type ServiceMode int

const (
	// ModeFull permits all algorithms and live data sources.
	ModeFull ServiceMode = iota
	// ModeDegraded disables batch optimization that depends on live rosters;
	// the basic dispatcher runs on cached or fallback data.
	ModeDegraded
	// ModeMinimal restricts scoring to skill and availability factors.
	ModeMinimal
	// ModeEmergency assigns round-robin ignoring skill match; used only when
	// no scoring inputs are trustworthy.
	ModeEmergency
)

func (m ServiceMode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeDegraded:
		return "degraded"
	case ModeMinimal:
		return "minimal"
	case ModeEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// ParseMode converts the textual representation back to a ServiceMode.
func ParseMode(s string) (ServiceMode, error) {
	switch s {
	case "full":
		return ModeFull, nil
	case "degraded":
		return ModeDegraded, nil
	case "minimal":
		return ModeMinimal, nil
	case "emergency":
		return ModeEmergency, nil
	default:
		return ModeFull, fmt.Errorf("unknown service mode %q", s)
	}
}
