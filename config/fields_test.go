package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_List(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		want        []string
		wantPresent bool
		wantErr     bool
	}{
		{name: "absent", value: nil},
		{name: "comma string", value: " -a ,--delete,, ", want: []string{"-a", "--delete"}, wantPresent: true},
		{name: "multiline string", value: "-a\n  --delete", want: []string{"-a", "--delete"}, wantPresent: true},
		{name: "blank string", value: "  ", want: []string{}},
		{name: "sequence", value: []any{"a", " b ", ""}, want: []string{"a", "b"}, wantPresent: true},
		{name: "empty sequence", value: []any{}, want: []string{}, wantPresent: true},
		{name: "numbers in sequence", value: []any{1, json.Number("2")}, want: []string{"1", "2"}, wantPresent: true},
		{name: "nested sequence", value: []any{[]any{"a"}}, wantErr: true},
		{name: "scalar", value: 7, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fields{}
			if tt.value != nil {
				f["k"] = tt.value
			}

			got, present, err := f.listField("k")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, present)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFields_Port(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{name: "absent", value: nil, want: 0},
		{name: "int", value: 2222, want: 2222},
		{name: "string", value: " 22 ", want: 22},
		{name: "blank string", value: "", want: 0},
		{name: "json number", value: json.Number("65535"), want: 65535},
		{name: "whole float", value: float64(8022), want: 8022},
		{name: "whole json float", value: json.Number("2222.0"), want: 2222},
		{name: "json exponent", value: json.Number("2.2e3"), want: 2200},
		{name: "json float out of range", value: json.Number("70000.0"), wantErr: true},
		{name: "zero", value: 0, wantErr: true},
		{name: "too large", value: 65536, wantErr: true},
		{name: "negative string", value: "-1", wantErr: true},
		{name: "fraction", value: json.Number("22.5"), wantErr: true},
		{name: "bool", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fields{}
			if tt.value != nil {
				f[KeySSHPort] = tt.value
			}

			got, err := f.portField(KeySSHPort)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFields_Bool(t *testing.T) {
	truthy := []any{true, "true", "Yes", "ON", "1", json.Number("1"), 1}
	falsy := []any{false, "false", "no", "Off", "0", json.Number("0"), 0}

	for _, v := range truthy {
		got, err := Fields{"b": v}.boolField("b", false)
		require.NoError(t, err, "%v", v)
		assert.True(t, got, "%v", v)
	}
	for _, v := range falsy {
		got, err := Fields{"b": v}.boolField("b", true)
		require.NoError(t, err, "%v", v)
		assert.False(t, got, "%v", v)
	}

	got, err := Fields{}.boolField("b", true)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = Fields{"b": "sometimes"}.boolField("b", true)
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, dedupe(nil))
}

func TestSyncConfig_RemoteTarget(t *testing.T) {
	tests := []struct {
		cfg  SyncConfig
		want string
	}{
		{SyncConfig{RemoteHost: "h", RemotePath: "/r"}, "h:/r"},
		{SyncConfig{RemoteHost: "h", RemotePath: "/r/", SSHUser: "u"}, "u@h:/r/"},
		{SyncConfig{RemoteHost: "::1", RemotePath: "/r"}, "[::1]:/r"},
		{SyncConfig{RemoteHost: "[fe80::1]", RemotePath: "~/x", SSHUser: "u"}, "u@[fe80::1]:~/x"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cfg.RemoteTarget())
	}
}

func TestSyncConfig_Validate(t *testing.T) {
	valid := SyncConfig{LocalPath: "/l", RemoteHost: "h", RemotePath: "/r"}
	assert.NoError(t, valid.Validate())

	withPort := valid
	withPort.SSHPort = 70000
	assert.Error(t, withPort.Validate())

	missing := valid
	missing.RemoteHost = " "
	assert.Error(t, missing.Validate())
}
