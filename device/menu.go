package device

import "fmt"

// Button is a press on the device.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonBoth
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonBoth:
		return "both"
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// ParseButton reads "l", "r" or "b" (or the full names).
func ParseButton(s string) (Button, error) {
	switch s {
	case "l", "left":
		return ButtonLeft, nil
	case "r", "right":
		return ButtonRight, nil
	case "b", "both":
		return ButtonBoth, nil
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

// menu is the idle screen carousel. inSettings selects the settings screens.
type menu struct {
	index      int
	inSettings bool
}

func (m *menu) reset() { m.index = 0 }

// Screens returns the screens of the current menu.
func (d *Device) Screens() []string {
	switch {
	case d.Busy():
		return []string{"Working...", "Cancel"}
	case d.menu.inSettings:
		s, err := d.settings.Load()
		if err != nil || !s.BlindSigning {
			return []string{"Enable Blind Signing", "Back"}
		}
		return []string{"Disable Blind Signing", "Back"}
	}
	return []string{VersionString, "Blind Signing", "Quit"}
}

// Screen returns the screen currently shown.
func (d *Device) Screen() string {
	screens := d.Screens()
	return screens[min(d.menu.index, len(screens)-1)]
}

// Press handles a button press while no prompt is shown. It returns ErrExit
// when Quit is selected.
func (d *Device) Press(b Button) error {
	screens := d.Screens()
	d.menu.index = min(d.menu.index, len(screens)-1)
	switch b {
	case ButtonLeft:
		if d.menu.index > 0 {
			d.menu.index--
		}
		return nil
	case ButtonRight:
		if d.menu.index < len(screens)-1 {
			d.menu.index++
		}
		return nil
	case ButtonBoth:
	default:
		return nil
	}

	selected := d.menu.index
	switch {
	case d.Busy():
		if selected == 1 {
			d.log.Info("Cancelling command at user direction", "state", d.state)
			d.reset()
			d.menu.reset()
		}
	case d.menu.inSettings:
		if selected == 1 {
			d.menu = menu{}
			return nil
		}
		return d.toggleBlindSigning()
	default:
		switch selected {
		case 1:
			d.menu = menu{inSettings: true}
		case 2:
			d.log.Info("Exiting at user direction")
			d.exit = true
			return ErrExit
		}
	}
	return nil
}

func (d *Device) toggleBlindSigning() error {
	s, err := d.settings.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s.BlindSigning = !s.BlindSigning
	if err := d.settings.Save(s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	d.log.Info("Blind signing changed", "enabled", s.BlindSigning)
	return nil
}
