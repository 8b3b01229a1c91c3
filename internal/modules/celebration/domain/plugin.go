package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type Capability string

const (
	CapabilityCelebrate Capability = "celebrate"
)

var (
	ErrPluginDisabled    = errors.New("plugin is disabled")
	ErrChecksumMismatch  = errors.New("plugin checksum mismatch")
	ErrCapabilityMissing = errors.New("plugin capability missing")
	ErrPluginTimeout     = errors.New("plugin timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Binary       string       `json:"binary"`
	SHA256       string       `json:"sha256"`
	Enabled      bool         `json:"enabled"`
	Capabilities []Capability `json:"capabilities"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("plugin binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("plugin sha256 must be lowercase 64-char hex")
	}
	if len(m.Capabilities) == 0 {
		return fmt.Errorf("plugin capabilities are required")
	}
	seen := map[Capability]struct{}{}
	for _, capability := range m.Capabilities {
		if err := capability.Validate(); err != nil {
			return err
		}
		if _, ok := seen[capability]; ok {
			return fmt.Errorf("duplicate capability: %s", capability)
		}
		seen[capability] = struct{}{}
	}
	return nil
}

func (c Capability) Validate() error {
	if c == CapabilityCelebrate {
		return nil
	}
	return fmt.Errorf("unknown capability: %s", c)
}

func (m Manifest) HasCapability(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type Metadata struct {
	Name         string
	Version      string
	Capabilities []Capability
}

// Summary describes the finished run a celebration is produced for.
type Summary struct {
	HistoryID      int64
	Title          string
	Tasks          []string
	ElapsedMinutes *int
}

func (s Summary) Validate() error {
	if s.HistoryID <= 0 {
		return fmt.Errorf("history id is required")
	}
	return nil
}

// Banner is what one source contributed to the done screen.
type Banner struct {
	Source string
	Lines  []string
}

const BuiltinSource = "builtin"

// BuiltinBanner is shown when no plugin produced anything.
func BuiltinBanner(s Summary) Banner {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = "Routine"
	}
	lines := []string{
		"*  .  *  .  *  .  *",
		fmt.Sprintf("%s complete!", title),
	}
	switch n := len(s.Tasks); {
	case n == 1:
		lines = append(lines, "1 task done")
	case n > 1:
		lines = append(lines, fmt.Sprintf("%d tasks done", n))
	}
	if s.ElapsedMinutes != nil {
		lines = append(lines, fmt.Sprintf("in %d min", *s.ElapsedMinutes))
	}
	lines = append(lines, "*  .  *  .  *  .  *")
	return Banner{Source: BuiltinSource, Lines: lines}
}
