package pandoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacyHelp is the head of `pandoc -h` from pandoc 1.17.
const legacyHelp = `pandoc [OPTIONS] [FILES]
Input formats:  commonmark, docbook, docx, epub, haddock, html, json*, latex,
                markdown, markdown_github, markdown_mmd, markdown_phpextra,
                markdown_strict, mediawiki, native, odt, opml, org, rst, t2t,
                textile, twiki
                [ *only Pandoc's JSON version of native AST]
Output formats: asciidoc, beamer, commonmark, context, docbook, docx, dokuwiki,
                dzslides, epub, epub3, fb2, haddock, html, html5, icml, json*,
                latex, man, markdown, markdown_github, markdown_mmd,
                markdown_phpextra, markdown_strict, mediawiki, native, odt,
                opendocument, opml, org, pdf**, plain, revealjs, rst, rtf, s5,
                slideous, slidy, tei, texinfo, textile
                [**for pdf output, use latex or beamer and -o FILENAME.pdf]
Options:
  -f FORMAT, -r FORMAT  --from=FORMAT, --read=FORMAT
  -t FORMAT, -w FORMAT  --write=FORMAT, --to=FORMAT
`

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"md", "markdown"},
		{"md+smart", "markdown+smart"},
		{"markdown-raw_html+smart", "markdown-raw_html+smart"},
		{"tex", "latex"},
		{"dbk", "docbook"},
		{"rest", "rst"},
		{"rest+smart", "rst+smart"},
		{"restructuredtext", "rst"},
		{"html5", "html5"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeFormat(tt.in), "NormalizeFormat(%q)", tt.in)
	}
}

func TestBaseFormat(t *testing.T) {
	assert.Equal(t, "markdown", BaseFormat("markdown+smart-raw_html"))
	assert.Equal(t, "gfm", BaseFormat("gfm-hard_line_breaks"))
	assert.Equal(t, "html", BaseFormat("html"))
}

func TestParseFormatList(t *testing.T) {
	got := parseFormatList([]byte("markdown\r\nhtml\n\n  rst \n"))
	assert.Equal(t, []string{"markdown", "html", "rst"}, got)
}

func TestParseHelpFormats(t *testing.T) {
	f, err := parseHelpFormats([]byte(legacyHelp))
	require.NoError(t, err)

	require.NotEmpty(t, f.Input)
	assert.Equal(t, "commonmark", f.Input[0])
	assert.Equal(t, "twiki", f.Input[len(f.Input)-1])
	assert.Contains(t, f.Input, "json")
	assert.NotContains(t, f.Input, "")

	require.NotEmpty(t, f.Output)
	assert.Equal(t, "asciidoc", f.Output[0])
	assert.Equal(t, "textile", f.Output[len(f.Output)-1])
	assert.Contains(t, f.Output, "pdf")
	assert.Contains(t, f.Output, "json")
}

func TestParseHelpFormatsErrors(t *testing.T) {
	for name, help := range map[string]string{
		"no options":       "pandoc [OPTIONS]\nInput formats: a\nOutput formats: b\n",
		"options first":    "Options:\n",
		"no output marker": "pandoc\nInput formats: a, b\nOptions:\n",
		"no input marker":  "pandoc\nOutput formats: a, b\nOptions:\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseHelpFormats([]byte(help))
			assert.Error(t, err)
		})
	}
}

func TestFormatsFromListFlags(t *testing.T) {
	exe, log := writeFakePandoc(t, fakeScript{})
	p, _ := newTestClient(t, exe)

	f, err := p.Formats(context.Background())
	require.NoError(t, err)
	assert.True(t, f.HasInput("commonmark"))
	assert.True(t, f.HasOutput("docx"))
	assert.False(t, f.HasInput("docx"))

	_, err = p.Formats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, countCalls(t, log, "--list-output-formats"))
	assert.Zero(t, countCalls(t, log, "-h"))
}

func TestFormatsFallsBackToHelp(t *testing.T) {
	exe, log := writeFakePandoc(t, fakeScript{
		version: `echo "pandoc 1.17.2"; exit 0`,
		list:    `echo "Unknown option --list-input-formats." >&2; exit 2`,
		help:    "cat <<'EOF'\n" + legacyHelp + "EOF\nexit 0",
	})
	p, _ := newTestClient(t, exe)

	f, err := p.Formats(context.Background())
	require.NoError(t, err)
	assert.True(t, f.HasInput("markdown_github"))
	assert.True(t, f.HasOutput("pdf"))
	assert.Equal(t, 1, countCalls(t, log, "-h"))
}

func TestFormatsQueryFailure(t *testing.T) {
	exe, _ := writeFakePandoc(t, fakeScript{
		list: `exit 2`,
		help: `echo "usage: pandoc"; exit 0`,
	})
	p, _ := newTestClient(t, exe)

	_, err := p.Formats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapabilityQuery)

	var qerr *CapabilityQueryError
	require.ErrorAs(t, err, &qerr)
	assert.Contains(t, qerr.Output, "usage: pandoc")
}
