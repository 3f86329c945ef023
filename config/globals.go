package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/ini.v1"

	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/fs"
)

// GlobalSectionName is the INI section of the user-level defaults file.
const GlobalSectionName = "defaults"

// GlobalDefaults are user-level values that seed `csync init`.
// They never influence Resolve.
type GlobalDefaults struct {
	RemoteHost string
	SSHUser    string
	RemotePath string
	SSHPort    int
}

// IsZero reports whether no default is set.
func (g GlobalDefaults) IsZero() bool {
	return g == GlobalDefaults{}
}

// DefaultGlobalPath returns the location of the user defaults file,
// $XDG_CONFIG_HOME/csync/config.cfg. Nothing is created.
func DefaultGlobalPath() string {
	return filepath.Join(xdg.ConfigHome, "csync", "config.cfg")
}

// LoadGlobalDefaults reads the defaults file at path. A missing file or
// section yields the zero value. An unparsable ssh_port is ignored.
func LoadGlobalDefaults(fsys fs.Filesystem, path string) (GlobalDefaults, error) {
	f, err := loadGlobalFile(fsys, path)
	if err != nil {
		return GlobalDefaults{}, err
	}

	section, err := f.GetSection(GlobalSectionName)
	if err != nil {
		return GlobalDefaults{}, nil
	}

	g := GlobalDefaults{
		RemoteHost: strings.TrimSpace(section.Key(KeyRemoteHost).String()),
		SSHUser:    strings.TrimSpace(section.Key(KeySSHUser).String()),
		RemotePath: strings.TrimSpace(section.Key(KeyRemotePath).String()),
	}
	if port, err := strconv.Atoi(strings.TrimSpace(section.Key(KeySSHPort).String())); err == nil &&
		port >= 1 && port <= MaxPort {
		g.SSHPort = port
	}
	return g, nil
}

// SaveGlobalDefaults merges the non-zero fields of updates into the defaults
// file at path, creating the file and its directory when needed. Keys already
// present and not named in updates are kept.
func SaveGlobalDefaults(fsys fs.Filesystem, path string, updates GlobalDefaults) error {
	if updates.SSHPort != 0 && (updates.SSHPort < 1 || updates.SSHPort > MaxPort) {
		return errors.Validation(KeySSHPort, "must be between 1 and 65535")
	}

	f, err := loadGlobalFile(fsys, path)
	if err != nil {
		return err
	}

	section := f.Section(GlobalSectionName)
	set := func(key, value string) {
		if value != "" {
			section.Key(key).SetValue(value)
		}
	}
	set(KeyRemoteHost, updates.RemoteHost)
	set(KeySSHUser, updates.SSHUser)
	set(KeyRemotePath, updates.RemotePath)
	if updates.SSHPort != 0 {
		set(KeySSHPort, strconv.Itoa(updates.SSHPort))
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding global defaults")
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapWithContext(err, errors.CodeInternal,
			"creating global config directory", map[string]interface{}{errors.KeyPath: dir})
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WrapWithContext(err, errors.CodeInternal,
			"writing global defaults", map[string]interface{}{errors.KeyPath: path})
	}
	return nil
}

func loadGlobalFile(fsys fs.Filesystem, path string) (*ini.File, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return ini.Empty(iniLoadOptions()), nil
		}
		return nil, errors.WrapWithContext(err, errors.CodeInternal,
			"reading global defaults", map[string]interface{}{errors.KeyPath: path})
	}

	f, err := ini.LoadSources(iniLoadOptions(), data)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"parsing global defaults", map[string]interface{}{errors.KeyPath: path})
	}
	return f, nil
}
