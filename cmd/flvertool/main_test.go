package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/flverkit/pkg/flver"
)

// writeEmptyModel writes a little-endian container with a header and no records.
func writeEmptyModel(t *testing.T) string {
	t.Helper()
	data := make([]byte, flver.HeaderSize)
	copy(data, "FLVER\x00L\x00")
	binary.LittleEndian.PutUint32(data[0x08:], uint32(flver.DefaultVersion))
	binary.LittleEndian.PutUint32(data[0x0C:], flver.HeaderSize) // data offset
	data[0x49] = 1

	path := filepath.Join(t.TempDir(), "empty.flver")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write model: %v", err)
	}
	return path
}

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
}

func TestRun(t *testing.T) {
	isolateConfig(t)
	model := writeEmptyModel(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{"no args", nil, 2, "", "Commands:"},
		{"help", []string{"help"}, 0, "Commands:", ""},
		{"unknown command", []string{"pack"}, 2, "", "Unknown command: pack"},
		{"info", []string{"info", model}, 0, "Version:     0x2001A", ""},
		{"info counts", []string{"info", model}, 0, "Buffer layouts", ""},
		{"layouts", []string{"layouts", model}, 0, "", ""},
		{"vertices", []string{"vertices", "-n", "2", model}, 0, "", ""},
		{"missing file argument", []string{"info"}, 2, "", "Usage: flvertool info"},
		{"missing file", []string{"info", filepath.Join(t.TempDir(), "none.flver")}, 1, "", "Error:"},
		{"bad tangent mode", []string{"vertices", "-tangent-mode", "sideways", model}, 1, "", "tangent_mode"},
		{"version not accepted", []string{"info", "-accept-version", "0x20014", model}, 1, "", "unsupported version"},
		{"config", []string{"config", "-permissive"}, 0, "permissive: true", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr.String())
			}
			if tt.wantOut != "" && !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, stdout.String())
			}
			if tt.wantErr != "" && !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantErr, stderr.String())
			}
		})
	}
}

func TestRunConfigSave(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "out", "flvertool.yaml")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"config", "-o", path, "-tangent-mode", "normalized"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "tangent_mode: normalized") {
		t.Errorf("saved config missing tangent mode:\n%s", data)
	}
}

func TestFormatVertex(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 3}
	bones := [4]uint16{0, 1, 2, 3}

	tests := []struct {
		name   string
		vertex flver.Vertex
		want   []string
	}{
		{"empty", flver.Vertex{}, []string{"(empty)"}},
		{"position", flver.Vertex{Position: &pos}, []string{"pos=[1 2 3]"}},
		{
			name:   "channels",
			vertex: flver.Vertex{UVs: []mgl32.Vec3{{0.5, 0.5, 0}, {1, 0, 0}}, BoneIndices: &bones},
			want:   []string{"uv0=", "uv1=", "bones=[0 1 2 3]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatVertex(&tt.vertex)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("formatVertex() = %q, missing %q", got, want)
				}
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
