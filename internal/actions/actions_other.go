//go:build !windows && !linux

package actions

func platformSteps(a *Actions) map[Item][]step {
	return map[Item][]step{
		TaskManager: {a.launchStep("open", "-a", "Activity Monitor")},
	}
}
