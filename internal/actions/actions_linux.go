//go:build linux

package actions

import (
	"github.com/godbus/dbus/v5"
)

const (
	login1Dest    = "org.freedesktop.login1"
	login1Session = "/org/freedesktop/login1/session/auto"
)

// sessionCall invokes a method on the caller's own logind session.
func sessionCall(method string) func() error {
	return func() error {
		conn, err := dbus.SystemBus()
		if err != nil {
			return err
		}
		obj := conn.Object(login1Dest, dbus.ObjectPath(login1Session))
		return obj.Call("org.freedesktop.login1.Session."+method, 0).Err
	}
}

func platformSteps(a *Actions) map[Item][]step {
	return map[Item][]step{
		Lock: {
			{"logind Lock", sessionCall("Lock")},
			a.launchStep("xdg-screensaver", "lock"),
		},
		SwitchUser: {
			a.launchStep("dm-tool", "switch-to-greeter"),
			a.launchStep("gdmflexiserver"),
			{"logind Lock", sessionCall("Lock")},
		},
		SignOut: {
			a.launchStep("gnome-session-quit", "--logout", "--no-prompt"),
			{"logind Terminate", sessionCall("Terminate")},
		},
		ChangePassword: {
			a.launchStep("gnome-control-center", "user-accounts"),
			a.launchStep("kcmshell6", "kcm_users"),
		},
		TaskManager: {
			a.launchStep("gnome-system-monitor"),
			a.launchStep("plasma-systemmonitor"),
			a.launchStep("xfce4-taskmanager"),
		},
	}
}
