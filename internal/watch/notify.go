package watch

import "github.com/gen2brain/beeep"

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier sends notifications through the platform service.
type DesktopNotifier struct {
	AppName string
}

// Notify implements Notifier.
func (n DesktopNotifier) Notify(title, message string) error {
	if n.AppName != "" {
		beeep.AppName = n.AppName
	}
	return beeep.Notify(title, message, "")
}
