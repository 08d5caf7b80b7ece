//go:build windows

package actions

import (
	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	procLockWorkStation = user32.NewProc("LockWorkStation")
)

func lockWorkStation() error {
	r, _, err := procLockWorkStation.Call()
	if r == 0 {
		return err
	}
	return nil
}

func signOut() error {
	const ewxLogoff = 0
	return windows.ExitWindowsEx(ewxLogoff, 0)
}

func platformSteps(a *Actions) map[Item][]step {
	return map[Item][]step{
		Lock:           {{"LockWorkStation", lockWorkStation}},
		SwitchUser:     {a.launchStep("tsdiscon"), {"LockWorkStation", lockWorkStation}},
		SignOut:        {{"ExitWindowsEx", signOut}},
		ChangePassword: {a.launchStep("control", "/name", "Microsoft.UserAccounts")},
		TaskManager:    {a.launchStep("taskmgr")},
	}
}
