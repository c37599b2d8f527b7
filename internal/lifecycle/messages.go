package lifecycle

import (
	"fmt"
	"time"

	"github.com/obsidianstack/healthwatch/internal/severity"
	"github.com/obsidianstack/healthwatch/internal/source"
)

// StampLayout is the timestamp format prefixed to every message.
const StampLayout = "Monday, January 02, 2006 15:04:05"

func stamp(t time.Time) string {
	return "[" + t.Format(StampLayout) + "]"
}

// tierLabel renders a tier for status lines; None is spelled out so it cannot
// be mistaken for a page level.
func tierLabel(t severity.Tier) string {
	if t == severity.None {
		return "none"
	}
	return t.String()
}

func statusMessage(at time.Time, s source.Sample, t severity.Tier) string {
	return fmt.Sprintf("%s INFO: Current System Status: Latency: %dms, Failure Rate: %d%%, Alert Level: %s",
		stamp(at), s.LatencyMs, s.FailureRatePct, tierLabel(t))
}

func triggeredMessage(at time.Time, s source.Sample, t severity.Tier) string {
	return fmt.Sprintf("%s Latency: %dms, Failure Rate: %d%%, -> %s Alert Triggered!",
		stamp(at), s.LatencyMs, s.FailureRatePct, t)
}

func escalatedMessage(at time.Time, from, to severity.Tier) string {
	return fmt.Sprintf("%s ALERT: Escalating %s alert to %s", stamp(at), from, to)
}

func resolvedMessage(at time.Time, prev severity.Tier) string {
	return fmt.Sprintf("%s INFO: Latency and Failure Rate normalized. Resolving %s alert.", stamp(at), prev)
}

func resendMessage(at time.Time, t severity.Tier) string {
	return fmt.Sprintf("%s ALERT: Resending %s alert (Still unresolved)", stamp(at), t)
}

func teamEmailMessage(at time.Time, t severity.Tier) string {
	return fmt.Sprintf("%s Sending email to team address for %s alert", stamp(at), t)
}

func skipLevelEmailMessage(at time.Time, t severity.Tier) string {
	return fmt.Sprintf("%s Sending email to skip-level boss for %s alert", stamp(at), t)
}

func commitMessage(at time.Time, commit string) string {
	return fmt.Sprintf("%s INFO: Commit %s submitted", stamp(at), commit)
}
