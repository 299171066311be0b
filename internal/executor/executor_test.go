package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Quote(t *testing.T) {
	testCases := []struct {
		argv     []string
		expected string
	}{
		{
			argv:     []string{"qemu-img", "create", "-q", "-f", "qcow2", "/var/lib/libvirt/images/web1-000.qcow2", "30G"},
			expected: "qemu-img create -q -f qcow2 /var/lib/libvirt/images/web1-000.qcow2 30G",
		},
		{
			argv:     []string{"echo", "two words", ""},
			expected: "echo 'two words' ''",
		},
		{
			argv:     []string{"touch", "it's; rm -rf /"},
			expected: `touch 'it'\''s; rm -rf /'`,
		},
		{
			argv:     []string{"ls", "$HOME", "*.qcow2"},
			expected: "ls '$HOME' '*.qcow2'",
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Quote(tc.argv))
	}
}

func Test_Local_Run(t *testing.T) {
	testCases := []struct {
		name     string
		argv     []string
		expected int
		wantErr  bool
		err      error
	}{
		{
			name:     "success",
			argv:     []string{"sh", "-c", "exit 0"},
			expected: 0,
		},
		{
			name:     "non-zero status",
			argv:     []string{"sh", "-c", "exit 3"},
			expected: 3,
		},
		{
			name:    "missing binary",
			argv:    []string{"definitely-not-a-binary-on-path"},
			wantErr: true,
			err:     ErrTransport,
		},
		{
			name:    "empty command",
			argv:    nil,
			wantErr: true,
			err:     ErrEmptyCommand,
		},
	}

	e := NewLocal()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := e.Run(context.Background(), tc.argv)
			if tc.wantErr {
				assert.ErrorIs(t, err, tc.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func Test_Local_Copy(t *testing.T) {
	source := filepath.Join(t.TempDir(), "seed")
	require.NoError(t, os.MkdirAll(source, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "user-data"), []byte("#cloud-config\n"), 0644))

	destination := filepath.Join(t.TempDir(), "seed")

	e := NewLocal()
	require.NoError(t, e.Copy(context.Background(), source, destination))

	content, err := os.ReadFile(filepath.Join(destination, "user-data"))
	require.NoError(t, err)
	assert.Equal(t, "#cloud-config\n", string(content))

	err = e.Copy(context.Background(), filepath.Join(t.TempDir(), "missing"), destination)
	assert.ErrorIs(t, err, ErrTransport)
}
