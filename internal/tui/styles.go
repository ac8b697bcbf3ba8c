package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// Palette colors. InitializeSkin may override them before the program starts.
var (
	ColorNavy   = lipgloss.Color("#1B2A4A")
	ColorBlue   = lipgloss.Color("#4EA1FF")
	ColorGray   = lipgloss.Color("8")
	ColorWhite  = lipgloss.Color("#F5F5F5")
	ColorRed    = lipgloss.Color("#FF5F5F")
	ColorOrange = lipgloss.Color("#FFAF00")
	ColorGreen  = lipgloss.Color("#5FD75F")
	ColorPurple = lipgloss.Color("#AF87FF")
)

var (
	sectionStyle       lipgloss.Style
	activeSectionStyle lipgloss.Style
	chartTitleStyle    lipgloss.Style
	helpStyle          lipgloss.Style
	selectedRowStyle   lipgloss.Style
	labelStyle         lipgloss.Style
	valueStyle         lipgloss.Style
	barStyle           lipgloss.Style
	activeBarStyle     lipgloss.Style
)

func init() {
	rebuildStyles()
}

// rebuildStyles derives every style from the current palette.
func rebuildStyles() {
	sectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorGray).
		Padding(0, 1)
	activeSectionStyle = sectionStyle.BorderForeground(ColorBlue)
	chartTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	selectedRowStyle = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorNavy).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(ColorGray)
	valueStyle = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	barStyle = lipgloss.NewStyle().Foreground(ColorBlue).Background(ColorBlue)
	activeBarStyle = lipgloss.NewStyle().Foreground(ColorOrange).Background(ColorOrange)
}

// statusColor returns the display color for an issue status.
func statusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusCritical:
		return ColorRed
	case model.StatusWarning:
		return ColorOrange
	case model.StatusOk:
		return ColorGreen
	case model.StatusDisabled:
		return ColorGray
	default:
		return ColorPurple
	}
}

// Skin overrides palette colors. Empty fields keep the built-in value.
type Skin struct {
	Navy   string `yaml:"navy"`
	Blue   string `yaml:"blue"`
	Gray   string `yaml:"gray"`
	White  string `yaml:"white"`
	Red    string `yaml:"red"`
	Orange string `yaml:"orange"`
	Green  string `yaml:"green"`
	Purple string `yaml:"purple"`
}

// InitializeSkin loads configDir/skins/<name>.yml and applies it. The default
// skin needs no file.
func InitializeSkin(name, configDir string) error {
	if name == "" || name == model.DefaultSkin {
		rebuildStyles()
		return nil
	}
	path := filepath.Join(configDir, "skins", name+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("skin %q not found at %s", name, path)
		}
		return err
	}
	var skin Skin
	if err := yaml.Unmarshal(data, &skin); err != nil {
		return fmt.Errorf("parse skin %s: %w", path, err)
	}
	ApplySkin(skin)
	return nil
}

// ApplySkin overrides the palette and rebuilds derived styles.
func ApplySkin(s Skin) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&ColorNavy, s.Navy)
	set(&ColorBlue, s.Blue)
	set(&ColorGray, s.Gray)
	set(&ColorWhite, s.White)
	set(&ColorRed, s.Red)
	set(&ColorOrange, s.Orange)
	set(&ColorGreen, s.Green)
	set(&ColorPurple, s.Purple)
	rebuildStyles()
}
