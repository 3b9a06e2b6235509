package pandoc

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	modern := &Executable{Path: "pandoc", Version: Version{3, 1}}
	old := &Executable{Path: "pandoc", Version: Version{2, 14, 9}}

	tests := []struct {
		name string
		exe  *Executable
		req  request
		want []string
	}{
		{
			name: "string input",
			exe:  modern,
			req:  request{from: "markdown", to: "html", cfg: newConvertConfig(nil)},
			want: []string{"--from=markdown", "--to=html", "--sandbox"},
		},
		{
			name: "files and everything",
			exe:  modern,
			req: request{
				from:   "markdown+smart",
				to:     "latex",
				inputs: []string{"a.md", "b.md"},
				cfg: newConvertConfig([]ConvertOption{
					WithOutputFile("out.pdf"),
					WithExtraArgs("--toc", "--standalone"),
					WithFilters("pandoc-crossref", "pandoc-citeproc"),
				}),
			},
			want: []string{
				"--from=markdown+smart", "--to=latex", "a.md", "b.md", "--output=out.pdf",
				"--sandbox", "--toc", "--standalone", "--filter=pandoc-crossref", "--filter=pandoc-citeproc",
			},
		},
		{
			name: "old pandoc has no sandbox",
			exe:  old,
			req:  request{from: "rst", to: "html", cfg: newConvertConfig(nil)},
			want: []string{"--from=rst", "--to=html"},
		},
		{
			name: "pdf omits to",
			exe:  modern,
			req:  request{from: "markdown", to: "pdf", cfg: newConvertConfig([]ConvertOption{WithOutputFile("x.pdf"), WithSandbox(false)})},
			want: []string{"--from=markdown", "--output=x.pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildArgs(tt.exe, &tt.req))
		})
	}
}

func TestEnviron(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("HOME", "/home/x")
	os.Unsetenv("HOME")

	p := New(WithBundledDir("/opt/bundled"))
	env := p.environ()

	assert.Contains(t, env, "PATH=/usr/bin"+string(os.PathListSeparator)+"/opt/bundled")
	assert.Contains(t, env, "HOME="+os.TempDir())
	n := 0
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestEnvironKeepsHome(t *testing.T) {
	t.Setenv("HOME", "/home/x")
	env := New(WithBundledDir("")).environ()
	assert.Contains(t, env, "HOME=/home/x")
}

func TestSetEnv(t *testing.T) {
	env := setEnv([]string{"A=1", "AB=2", "A=3"}, "A", "4")
	assert.Equal(t, []string{"AB=2", "A=4"}, env)
}
