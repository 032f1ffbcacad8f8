package utilfn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrimLineEnd(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "hello", want: "hello"},
		{name: "newline", input: "hello\n", want: "hello"},
		{name: "crlf", input: "hello\r\n", want: "hello"},
		{name: "bare cr", input: "hello\r", want: "hello"},
		{name: "only terminators", input: "\r\n\n", want: ""},
		{name: "keeps trailing spaces", input: "hello  \n", want: "hello  "},
		{name: "keeps inner newline", input: "a\nb", want: "a\nb"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TrimLineEnd(tt.input))
		})
	}
}

func TestExpandHomeDir(t *testing.T) {
	home := GetHomeDir()
	require.Equal(t, home, ExpandHomeDir("~"))
	require.Equal(t, filepath.Join(home, "cfg", "stdiolog.json"), ExpandHomeDir("~/cfg/stdiolog.json"))
	require.Equal(t, "/etc/stdiolog.json", ExpandHomeDir("/etc//stdiolog.json"))
}
