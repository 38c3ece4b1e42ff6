package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Flags holds command-line overrides. Zero values leave the config unchanged.
type Flags struct {
	ConfigPath     string
	Debug          bool
	Permissive     bool
	TangentMode    string
	AcceptVersions versionList
}

// RegisterFlags adds the config flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Permissive, "permissive", false, "Warn on unknown constants instead of failing")
	fs.StringVar(&f.TangentMode, "tangent-mode", "", "Tangent arithmetic: source or normalized")
	fs.Var(&f.AcceptVersions, "accept-version", "Accept a container version, e.g. 0x20014 (repeatable)")
	return f
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Permissive {
		cfg.Decode.Permissive = true
	}
	if f.TangentMode != "" {
		cfg.Decode.TangentMode = f.TangentMode
	}
	if len(f.AcceptVersions) > 0 {
		cfg.Decode.AcceptedVersions = append([]uint32(nil), f.AcceptVersions...)
	}
}

// versionList collects repeated -accept-version values.
type versionList []uint32

func (l *versionList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = fmt.Sprintf("0x%X", v)
	}
	return strings.Join(parts, ",")
}

func (l *versionList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", part, err)
		}
		*l = append(*l, uint32(v))
	}
	return nil
}
