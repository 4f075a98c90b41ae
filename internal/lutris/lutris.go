// Package lutris drives a local Lutris installation: detecting it, querying
// its game database, reading and editing its YAML configs, and building the
// commands that launch games through it.
package lutris

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Flavor identifies how Lutris is installed.
type Flavor string

const (
	FlavorSystem  Flavor = "system"
	FlavorFlatpak Flavor = "flatpak"
)

const flatpakAppID = "net.lutris.Lutris"

// Install describes a usable Lutris installation.
type Install struct {
	Flavor     Flavor
	Executable string
}

// Detect finds a usable Lutris install, preferring a system package over
// flatpak. executable overrides the system binary name when non-empty.
func Detect(executable string) (*Install, error) {
	if executable == "" {
		executable = "lutris"
	}
	if _, err := exec.LookPath(executable); err == nil {
		return &Install{Flavor: FlavorSystem, Executable: executable}, nil
	}
	if flatpakHasLutris() {
		return &Install{Flavor: FlavorFlatpak, Executable: "flatpak"}, nil
	}
	return nil, fmt.Errorf("lutris is not installed:\n%s", installInstructions(readOSRelease()))
}

// ForFlavor builds an install for an explicitly configured flavor without
// probing the system.
func ForFlavor(flavor Flavor, executable string) *Install {
	if executable == "" {
		executable = "lutris"
	}
	switch flavor {
	case FlavorFlatpak:
		return &Install{Flavor: FlavorFlatpak, Executable: "flatpak"}
	default:
		return &Install{Flavor: FlavorSystem, Executable: executable}
	}
}

func flatpakHasLutris() bool {
	out, err := exec.Command("flatpak", "list", "--app").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), flatpakAppID)
}

// Command builds an exec.Cmd invoking Lutris with the given arguments,
// routed through flatpak when needed.
func (in *Install) Command(args ...string) *exec.Cmd {
	if in.Flavor == FlavorFlatpak {
		return exec.Command(in.Executable, append([]string{"run", flatpakAppID}, args...)...)
	}
	return exec.Command(in.Executable, args...)
}

// RunGameURI is the Lutris URI that launches the game with the given slug.
func RunGameURI(slug string) string {
	return "lutris:rungame/" + slug
}

// Available reports whether the install still responds to probing.
func (in *Install) Available() bool {
	if in.Flavor == FlavorFlatpak {
		return flatpakHasLutris()
	}
	_, err := exec.LookPath(in.Executable)
	return err == nil
}

// Description names the install for diagnostics.
func (in *Install) Description() string {
	if in.Flavor == FlavorFlatpak {
		return "Flatpak Lutris (" + flatpakAppID + ")"
	}
	return "System Lutris (" + in.Executable + ")"
}

func readOSRelease() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	return string(data)
}

// installInstructions suggests an install command based on /etc/os-release
// contents.
func installInstructions(osRelease string) string {
	name := "your Linux distribution"
	cmd := "use your package manager to install 'lutris' or visit https://lutris.net/downloads"
	switch {
	case strings.Contains(osRelease, "ID=ubuntu"), strings.Contains(osRelease, "ID=debian"):
		name, cmd = "Ubuntu/Debian", "sudo apt update && sudo apt install lutris"
	case strings.Contains(osRelease, "ID=fedora"):
		name, cmd = "Fedora", "sudo dnf install lutris"
	case strings.Contains(osRelease, "ID=arch"), strings.Contains(osRelease, "ID=manjaro"):
		name, cmd = "Arch Linux", "sudo pacman -S lutris"
	case strings.Contains(osRelease, "ID=opensuse"):
		name, cmd = "openSUSE", "sudo zypper install lutris"
	}
	return fmt.Sprintf("To install Lutris on %s:\n  %s\n\nAfter installation, restart this service.", name, cmd)
}

// Availability is the install status reported to clients.
type Availability struct {
	Available           bool   `json:"available"`
	InstallationType    string `json:"installation_type,omitempty"`
	InstallInstructions string `json:"install_instructions,omitempty"`
}

// CheckAvailability probes for a Lutris install and packages the result.
func CheckAvailability(executable string) Availability {
	in, err := Detect(executable)
	if err != nil {
		return Availability{
			Available:           false,
			InstallInstructions: installInstructions(readOSRelease()),
		}
	}
	return Availability{
		Available:        true,
		InstallationType: in.Description(),
	}
}
