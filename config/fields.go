package config

import (
	"encoding/json"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/fs"
)

// toConfig normalises decoded fields into a SyncConfig. Defaults are applied
// for absent optional fields; ignore-file patterns are not merged here.
func (f Fields) toConfig(configDir, home string) (SyncConfig, error) {
	var cfg SyncConfig

	required := []struct {
		key string
		dst *string
	}{
		{KeyLocalPath, &cfg.LocalPath},
		{KeyRemoteHost, &cfg.RemoteHost},
		{KeyRemotePath, &cfg.RemotePath},
	}
	for _, r := range required {
		s, err := f.stringField(r.key)
		if err != nil {
			return SyncConfig{}, err
		}
		if s == "" {
			return SyncConfig{}, errors.Validation(r.key, "required field is missing or empty")
		}
		*r.dst = s
	}
	cfg.LocalPath = resolveLocalPath(cfg.LocalPath, configDir, home)

	user, err := f.stringField(KeySSHUser)
	if err != nil {
		return SyncConfig{}, err
	}
	cfg.SSHUser = user

	if cfg.SSHPort, err = f.portField(KeySSHPort); err != nil {
		return SyncConfig{}, err
	}

	optionsKey := KeySyncOptions
	if _, ok := f[optionsKey]; !ok {
		optionsKey = keyRsyncOptions
	}
	options, present, err := f.listField(optionsKey)
	if err != nil {
		return SyncConfig{}, err
	}
	if !present {
		options = DefaultSyncOptions()
	}
	cfg.SyncOptions = options

	excludes, present, err := f.listField(KeyExcludePatterns)
	if err != nil {
		return SyncConfig{}, err
	}
	if !present {
		excludes = DefaultExcludePatterns()
	}
	cfg.ExcludePatterns = dedupe(excludes)

	if cfg.RespectGitignore, err = f.boolField(KeyRespectGitignore, true); err != nil {
		return SyncConfig{}, err
	}

	return cfg, nil
}

// resolveLocalPath makes p absolute relative to configDir after expanding a
// leading "~/". A trailing separator is kept when p had one.
func resolveLocalPath(p, configDir, home string) string {
	expanded := fs.ExpandHome(p, home)
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(configDir, expanded)
	}
	return fs.KeepTrailingSep(p, filepath.Clean(expanded))
}

func (f Fields) stringField(key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := scalarString(v)
	if !ok {
		return "", errors.Validation(key, "must be a string")
	}
	return strings.TrimSpace(s), nil
}

// listField accepts a sequence or a comma separated string. present is false
// when the key is absent or holds only blanks, so the default applies.
func (f Fields) listField(key string) (items []string, present bool, err error) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, false, nil
	}

	switch x := v.(type) {
	case string:
		items = splitList(x)
		return items, len(items) > 0, nil
	case []any:
		items = make([]string, 0, len(x))
		for _, item := range x {
			s, ok := scalarString(item)
			if !ok {
				return nil, false, errors.Validation(key, "list items must be strings")
			}
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return items, true, nil
	default:
		return nil, false, errors.Validation(key, "must be a list or a comma-separated string")
	}
}

func (f Fields) portField(key string) (int, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, nil
	}

	var port int64
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errors.ValidationWrap(err, key, "must be an integer")
		}
		port = n
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			// 2222.0 is a whole number even though it is not written as one.
			f, ferr := x.Float64()
			if ferr != nil || f != math.Trunc(f) {
				return 0, errors.ValidationWrap(err, key, "must be an integer")
			}
			if f < 1 || f > MaxPort {
				return 0, errors.Validation(key, "must be between 1 and 65535")
			}
			n = int64(f)
		}
		port = n
	case int:
		port = int64(x)
	case int64:
		port = x
	case uint64:
		if x > math.MaxInt32 {
			return 0, errors.Validation(key, "must be between 1 and 65535")
		}
		port = int64(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, errors.Validation(key, "must be an integer")
		}
		port = int64(x)
	default:
		return 0, errors.Validation(key, "must be an integer")
	}

	if port < 1 || port > MaxPort {
		return 0, errors.Validation(key, "must be between 1 and 65535")
	}
	return int(port), nil
}

func (f Fields) boolField(key string, def bool) (bool, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return def, nil
	}

	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "":
			return def, nil
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
	case json.Number:
		switch x.String() {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
	case int:
		switch x {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
	return false, errors.Validation(key, "must be a boolean")
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// splitList splits on commas and newlines, trimming items and dropping blanks.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	items := make([]string, 0, len(fields))
	for _, item := range fields {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// dedupe removes repeated entries, keeping the first occurrence of each.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
