package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "subcommand is dropped",
			args:         []string{"run", "-room", "12345"},
			allowedFlags: []string{"-room", "--room"},
			want:         []string{"-room", "12345"},
		},
		{
			name:         "double dash with equals",
			args:         []string{"run", "--room=12345", "-x", "1"},
			allowedFlags: []string{"-room", "--room"},
			want:         []string{"--room=12345"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-c", "--config=alt.json"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "--config=alt.json"},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-retries", "2", "--retries", "5"},
			allowedFlags: Names("retries"),
			want:         []string{"-retries", "2", "--retries", "5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"-room", "--room", "-c", "--c"}, Names("room", "c"))
	assert.Empty(t, Names())
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "run", Command(nil))
	assert.Equal(t, "run", Command([]string{"--room", "1"}))
	assert.Equal(t, "login", Command([]string{"login", "--qr-png", "x.png"}))
	assert.Equal(t, "status", Command([]string{"status"}))
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "none", args: nil, want: nil},
		{name: "flags only", args: []string{"--room", "1"}, want: nil},
		{name: "command only", args: []string{"say"}, want: nil},
		{name: "text", args: []string{"title", "late", "night"}, want: []string{"late", "night"}},
		{name: "flag values skipped", args: []string{"say", "--room", "7", "hi", "-c=x.json"}, want: []string{"hi"}},
		{name: "double dash", args: []string{"say", "--", "-1"}, want: []string{"-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Args(tt.args))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c", func(t *testing.T) {
		os.Args = []string{"bililive", "run", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", JsonConfigFlags())
	})

	t.Run("long --config with equals", func(t *testing.T) {
		os.Args = []string{"bililive", "--config=/path/long.json"}
		assert.Equal(t, "/path/long.json", JsonConfigFlags())
	})

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"bililive", "run", "--room", "7"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("last wins", func(t *testing.T) {
		os.Args = []string{"bililive", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", JsonConfigFlags())
	})
}
