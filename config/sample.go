package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/fs"
)

// Placeholders used by SampleConfig when no global default is set.
const (
	PlaceholderHost = "your-server.com"
	placeholderPath = "~/projects/"
)

// document is the on-disk layout shared by the JSON and YAML encoders.
type document struct {
	LocalPath        string   `json:"local_path" yaml:"local_path"`
	RemoteHost       string   `json:"remote_host" yaml:"remote_host"`
	RemotePath       string   `json:"remote_path" yaml:"remote_path"`
	SSHUser          string   `json:"ssh_user,omitempty" yaml:"ssh_user,omitempty"`
	SSHPort          int      `json:"ssh_port,omitempty" yaml:"ssh_port,omitempty"`
	SyncOptions      []string `json:"sync_options" yaml:"sync_options"`
	ExcludePatterns  []string `json:"exclude_patterns" yaml:"exclude_patterns"`
	RespectGitignore bool     `json:"respect_gitignore" yaml:"respect_gitignore"`
}

func newDocument(cfg SyncConfig) document {
	return document{
		LocalPath:        cfg.LocalPath,
		RemoteHost:       cfg.RemoteHost,
		RemotePath:       cfg.RemotePath,
		SSHUser:          cfg.SSHUser,
		SSHPort:          cfg.SSHPort,
		SyncOptions:      nonNil(cfg.SyncOptions),
		ExcludePatterns:  nonNil(cfg.ExcludePatterns),
		RespectGitignore: cfg.RespectGitignore,
	}
}

// SampleConfig returns the configuration written by `csync init` for a
// project named projectName. Global defaults fill in the remote side when set;
// a global remote_path is used as is. The local path keeps its trailing
// separator so a push copies the project contents rather than the directory.
func SampleConfig(projectName string, defaults GlobalDefaults) SyncConfig {
	cfg := SyncConfig{
		LocalPath:        "./",
		RemoteHost:       PlaceholderHost,
		RemotePath:       placeholderPath + projectName,
		SSHUser:          defaults.SSHUser,
		SSHPort:          defaults.SSHPort,
		SyncOptions:      DefaultSyncOptions(),
		ExcludePatterns:  DefaultExcludePatterns(),
		RespectGitignore: true,
	}
	if defaults.RemoteHost != "" {
		cfg.RemoteHost = defaults.RemoteHost
	}
	if defaults.RemotePath != "" {
		cfg.RemotePath = defaults.RemotePath
	}
	return cfg
}

// Encode renders cfg in the format implied by path's extension. Unknown
// extensions are written as JSON. Zero ssh_user and ssh_port are omitted.
func Encode(cfg SyncConfig, path string) ([]byte, error) {
	switch FormatOf(path) {
	case FormatINI:
		return encodeINI(cfg)
	case FormatYAML:
		return encodeYAML(cfg)
	default:
		return encodeJSON(cfg)
	}
}

// WriteSample encodes sample and writes it to path, returning the bytes
// written. An existing file is only replaced when force is set; otherwise an
// ALREADY_EXISTS error is returned and the file is left untouched.
func WriteSample(fsys fs.Filesystem, path string, sample SyncConfig, force bool) ([]byte, error) {
	data, err := Encode(sample, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encoding sample configuration")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInternal,
				"creating configuration directory", map[string]interface{}{errors.KeyPath: dir})
		}
	}

	if force {
		if err := fsys.WriteFile(path, data, 0o644); err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInternal,
				"writing configuration file", map[string]interface{}{errors.KeyPath: path})
		}
		return data, nil
	}

	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if stderrors.Is(err, os.ErrExist) {
			return nil, errors.AlreadyExists(path)
		}
		return nil, errors.WrapWithContext(err, errors.CodeInternal,
			"creating configuration file", map[string]interface{}{errors.KeyPath: path})
	}

	_, werr := f.Write(data)
	cerr := f.Close()
	if err := stderrors.Join(werr, cerr); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInternal,
			"writing configuration file", map[string]interface{}{errors.KeyPath: path})
	}
	return data, nil
}

func encodeINI(cfg SyncConfig) ([]byte, error) {
	f := ini.Empty()
	section, err := f.NewSection(SectionName)
	if err != nil {
		return nil, err
	}

	keys := []struct {
		name  string
		value string
		skip  bool
	}{
		{KeyLocalPath, cfg.LocalPath, false},
		{KeyRemoteHost, cfg.RemoteHost, false},
		{KeyRemotePath, cfg.RemotePath, false},
		{KeySSHUser, cfg.SSHUser, cfg.SSHUser == ""},
		{KeySSHPort, strconv.Itoa(cfg.SSHPort), cfg.SSHPort == 0},
		{KeySyncOptions, strings.Join(cfg.SyncOptions, ", "), false},
		{KeyExcludePatterns, strings.Join(cfg.ExcludePatterns, ", "), false},
		{KeyRespectGitignore, strconv.FormatBool(cfg.RespectGitignore), false},
	}
	for _, k := range keys {
		if k.skip {
			continue
		}
		if _, err := section.NewKey(k.name, k.value); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(cfg SyncConfig) ([]byte, error) {
	data, err := json.MarshalIndent(newDocument(cfg), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func encodeYAML(cfg SyncConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(cfg)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
