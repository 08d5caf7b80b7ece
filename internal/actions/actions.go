// Package actions runs the one-shot system commands behind the security
// menu and the Ctrl+Alt+Del substitute.
package actions

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"osk/internal/keys"
	"osk/internal/platform"
)

// Item is a security menu entry.
type Item int

const (
	Lock Item = iota
	SwitchUser
	SignOut
	ChangePassword
	TaskManager
	Cancel
)

// MenuItems is the security menu, top to bottom.
var MenuItems = []Item{Lock, SwitchUser, SignOut, ChangePassword, TaskManager, Cancel}

// Label returns the menu text.
func (i Item) Label() string {
	switch i {
	case Lock:
		return "鎖定"
	case SwitchUser:
		return "切換使用者"
	case SignOut:
		return "登出"
	case ChangePassword:
		return "變更密碼"
	case TaskManager:
		return "工作管理員"
	}
	return "取消"
}

func (i Item) String() string {
	switch i {
	case Lock:
		return "lock"
	case SwitchUser:
		return "switch-user"
	case SignOut:
		return "sign-out"
	case ChangePassword:
		return "change-password"
	case TaskManager:
		return "task-manager"
	}
	return "cancel"
}

// step is one way of performing an item; steps run in order until one
// succeeds.
type step struct {
	name string
	run  func() error
}

// Launcher starts a detached process.
type Launcher func(name string, args ...string) error

// StartProcess launches name without waiting for it to exit.
func StartProcess(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// Actions performs security menu items.
type Actions struct {
	sink   platform.KeySink
	launch Launcher
	log    *slog.Logger
	steps  map[Item][]step

	mu   sync.Mutex
	menu func()
}

// New builds the platform's actions. sink is used for the Ctrl+Shift+Esc
// task manager fallback.
func New(sink platform.KeySink, launch Launcher, log *slog.Logger) *Actions {
	if launch == nil {
		launch = StartProcess
	}
	if log == nil {
		log = slog.Default()
	}
	a := &Actions{
		sink:   sink,
		launch: launch,
		log:    log.With("component", "actions"),
	}
	a.steps = platformSteps(a)
	a.steps[TaskManager] = append(a.steps[TaskManager], step{"ctrl+shift+esc", a.taskManagerChord})
	return a
}

// SetSecurityMenu installs the function that opens the menu overlay.
func (a *Actions) SetSecurityMenu(fn func()) {
	a.mu.Lock()
	a.menu = fn
	a.mu.Unlock()
}

// ShowSecurityMenu opens the menu overlay, if one is installed.
func (a *Actions) ShowSecurityMenu() {
	a.mu.Lock()
	fn := a.menu
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// OpenTaskManager launches the task manager, falling back to Ctrl+Shift+Esc.
func (a *Actions) OpenTaskManager() error {
	return a.Run(TaskManager)
}

// Run performs item. Cancel does nothing.
func (a *Actions) Run(item Item) error {
	if item == Cancel {
		return nil
	}
	steps := a.steps[item]
	if len(steps) == 0 {
		return fmt.Errorf("actions: %s: %w", item, platform.ErrNotSupported)
	}

	var errs []error
	for _, s := range steps {
		err := s.run()
		if err == nil {
			a.log.Info("action", "item", item.String(), "via", s.name)
			return nil
		}
		a.log.Debug("action step failed", "item", item.String(), "via", s.name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	return fmt.Errorf("actions: %s: %w", item, errors.Join(errs...))
}

func (a *Actions) launchStep(name string, args ...string) step {
	return step{name, func() error { return a.launch(name, args...) }}
}

func (a *Actions) taskManagerChord() error {
	if a.sink == nil {
		return platform.ErrUnavailable
	}
	return a.sink.Send([]platform.KeyEvent{
		platform.Down(keys.Control),
		platform.Down(keys.Shift),
		platform.Down(keys.Escape),
		platform.Up(keys.Escape),
		platform.Up(keys.Shift),
		platform.Up(keys.Control),
	})
}
