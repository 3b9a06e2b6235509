package install

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releasePage = `<!DOCTYPE html>
<html><body>
<a href="/jgm/pandoc/releases/tag/3.1.2">pandoc 3.1.2</a>
<include-fragment loading="lazy" src="/jgm/pandoc/releases/expanded_assets/3.1.2"></include-fragment>
<include-fragment src="/jgm/pandoc/unrelated"></include-fragment>
</body></html>`

const assetsFragment = `<ul>
<li><a href="/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-1-amd64.deb">deb</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-1-arm64.deb">deb</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-linux-amd64.tar.gz">tar</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-x86_64-macOS.pkg">pkg</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-windows-x86_64.msi">msi</a></li>
<li><a href="/jgm/pandoc/archive/refs/tags/3.1.2.zip">source</a></li>
</ul>`

func releaseServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/jgm/pandoc/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, releasePage)
	})
	mux.HandleFunc("/jgm/pandoc/releases/expanded_assets/3.1.2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, assetsFragment)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestReleasePageURL(t *testing.T) {
	assert.Equal(t, ReleasesURL+"latest", ReleasePageURL(""))
	assert.Equal(t, ReleasesURL+"latest", ReleasePageURL("latest"))
	assert.Equal(t, ReleasesURL+"tag/2.19.2", ReleasePageURL("2.19.2"))
}

func TestFindRelease(t *testing.T) {
	srv := releaseServer(t)

	rel, err := FindRelease(context.Background(), srv.Client(), srv.URL+"/jgm/pandoc/releases/latest")
	require.NoError(t, err)
	assert.Equal(t, "3.1.2", rel.Version)

	deb := "https://github.com/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-1-amd64.deb"
	if strings.HasPrefix(runtime.GOARCH, "arm") {
		deb = "https://github.com/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-1-arm64.deb"
	}
	assert.Equal(t, deb, rel.Assets["deb"])
	assert.Equal(t, "https://github.com/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-x86_64-macOS.pkg", rel.Assets["pkg"])
	assert.Equal(t, "https://github.com/jgm/pandoc/releases/download/3.1.2/pandoc-3.1.2-windows-x86_64.msi", rel.Assets["msi"])
	assert.NotContains(t, rel.Assets, "gz")
}

func TestFindReleasePicksArchitecture(t *testing.T) {
	const page = `<ul>
<li><a href="/jgm/pandoc/releases/download/3.1.11/pandoc-3.1.11-arm64-macOS.pkg">pkg</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.11/pandoc-3.1.11-x86_64-macOS.pkg">pkg</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.11/pandoc-3.1.11-1-arm64.deb">deb</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.11/pandoc-3.1.11-1-amd64.deb">deb</a></li>
<li><a href="/jgm/pandoc/releases/download/3.1.11/pandoc-3.1.11-windows-x86_64.msi">msi</a></li>
</ul>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	const base = "https://github.com/jgm/pandoc/releases/download/3.1.11/"
	tests := []struct {
		goarch   string
		pkg, deb string
	}{
		{"amd64", "pandoc-3.1.11-x86_64-macOS.pkg", "pandoc-3.1.11-1-amd64.deb"},
		{"arm64", "pandoc-3.1.11-arm64-macOS.pkg", "pandoc-3.1.11-1-arm64.deb"},
	}
	for _, tt := range tests {
		t.Run(tt.goarch, func(t *testing.T) {
			rel, err := findRelease(context.Background(), srv.Client(), srv.URL, tt.goarch)
			require.NoError(t, err)
			assert.Equal(t, "3.1.11", rel.Version)
			assert.Equal(t, base+tt.pkg, rel.Assets["pkg"])
			assert.Equal(t, base+tt.deb, rel.Assets["deb"])
			// only an x86_64 msi is published
			assert.Equal(t, base+"pandoc-3.1.11-windows-x86_64.msi", rel.Assets["msi"])
		})
	}
}

func TestAssetRank(t *testing.T) {
	assert.Equal(t, 2, assetRank("pandoc-3.1.11-x86_64-macOS.pkg", "amd64"))
	assert.Equal(t, 0, assetRank("pandoc-3.1.11-arm64-macOS.pkg", "amd64"))
	assert.Equal(t, 1, assetRank("pandoc-2.9-macOS.pkg", "amd64"))
	assert.Equal(t, 2, assetRank("pandoc-3.1.11-1-arm64.deb", "arm64"))
	assert.Equal(t, 0, assetRank("pandoc-3.1.11-1-amd64.deb", "arm64"))
}

func TestFindReleaseErrors(t *testing.T) {
	srv := releaseServer(t)

	_, err := FindRelease(context.Background(), srv.Client(), srv.URL+"/jgm/pandoc/releases/tag/0.0")
	assert.ErrorContains(t, err, "404")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><a href='/elsewhere'>x</a></html>")
	}))
	defer empty.Close()
	_, err = FindRelease(context.Background(), empty.Client(), empty.URL)
	assert.ErrorContains(t, err, "no pandoc installers")
}

func TestDownload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pandoc.deb" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		fmt.Fprint(w, "package bytes")
	}))
	defer srv.Close()

	dir := t.TempDir()
	log := slog.New(slog.DiscardHandler)

	path, err := Download(context.Background(), srv.Client(), log, srv.URL+"/pandoc.deb", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pandoc.deb"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package bytes", string(data))

	// a second download reuses the file
	_, err = Download(context.Background(), srv.Client(), log, srv.URL+"/pandoc.deb", dir)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	_, err = Download(context.Background(), srv.Client(), log, srv.URL+"/missing.deb", dir)
	assert.ErrorContains(t, err, "404")
	assert.NoFileExists(t, filepath.Join(dir, "missing.deb"))
}
