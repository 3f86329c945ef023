package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/t3bol90/csync/errors"
)

// SectionName is the INI section holding project settings.
const SectionName = "csync"

// keyFile is reported as the field of errors that concern the file as a whole.
const keyFile = "file"

// Fields holds the raw key/value pairs of a decoded configuration file.
// Keys are lowercase; values keep the type the format produced.
type Fields map[string]any

// Decoder turns the bytes of a configuration file into Fields.
type Decoder interface {
	Decode(data []byte) (Fields, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (Fields, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (Fields, error) {
	return f(data)
}

// NewDecoder returns the decoder for a format. FormatUnknown tries JSON first
// and falls back to YAML.
//
//nolint:ireturn // callers choose the decoder at runtime.
func NewDecoder(format Format) Decoder {
	switch format {
	case FormatINI:
		return DecoderFunc(decodeINI)
	case FormatJSON:
		return DecoderFunc(decodeJSON)
	case FormatYAML:
		return DecoderFunc(decodeYAML)
	default:
		return DecoderFunc(decodeAny)
	}
}

//nolint:ireturn // see NewDecoder.
func decoderFor(path string) Decoder {
	return NewDecoder(FormatOf(path))
}

func iniLoadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		AllowPythonMultilineValues: true,
	}
}

func decodeINI(data []byte) (Fields, error) {
	f, err := ini.LoadSources(iniLoadOptions(), data)
	if err != nil {
		return nil, errors.ValidationWrap(err, keyFile, "cannot parse INI")
	}

	section, err := f.GetSection(SectionName)
	if err != nil {
		return nil, errors.Validation(SectionName, "no ["+SectionName+"] section found")
	}

	fields := make(Fields, len(section.Keys()))
	for _, key := range section.Keys() {
		fields[strings.ToLower(key.Name())] = key.String()
	}
	return fields, nil
}

func decodeJSON(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.ValidationWrap(err, keyFile, "cannot parse JSON")
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Validation(keyFile, fmt.Sprintf("top level must be an object, got %T", raw))
	}
	return lowerKeys(m), nil
}

func decodeYAML(data []byte) (Fields, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.ValidationWrap(err, keyFile, "cannot parse YAML")
	}
	if raw == nil {
		return Fields{}, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Validation(keyFile, fmt.Sprintf("top level must be a mapping, got %T", raw))
	}
	return lowerKeys(m), nil
}

func decodeAny(data []byte) (Fields, error) {
	if fields, err := decodeJSON(data); err == nil {
		return fields, nil
	}
	return decodeYAML(data)
}

func lowerKeys(m map[string]any) Fields {
	fields := make(Fields, len(m))
	for k, v := range m {
		fields[strings.ToLower(k)] = v
	}
	return fields
}
