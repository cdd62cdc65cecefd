package paths

import (
	"path/filepath"
	"testing"
)

func TestHomeDirUsesHome(t *testing.T) {
	t.Setenv("HOME", filepath.Join("/tmp", "test-home"))

	home, err := HomeDir()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if home != filepath.Join("/tmp", "test-home") {
		t.Fatalf("expected %s, got %s", filepath.Join("/tmp", "test-home"), home)
	}
}

func TestDefaultDirsUseHome(t *testing.T) {
	t.Setenv("HOME", filepath.Join("/tmp", "test-home"))

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", DefaultConfigDir, filepath.Join("/tmp", "test-home", ".config", "tasks")},
		{"data", DefaultDataDir, filepath.Join("/tmp", "test-home", ".local", "share", "tasks")},
		{"log", DefaultLogDir, filepath.Join("/tmp", "test-home", ".local", "state", "tasks")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := tt.fn()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if dir != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, dir)
			}
		})
	}
}
