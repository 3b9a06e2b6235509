package install

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/net/html"
)

// ReleasesURL is the upstream release listing.
const ReleasesURL = "https://github.com/jgm/pandoc/releases/"

// ReleasePageURL returns the page listing the assets of version, or of the
// latest release when version is "" or "latest".
func ReleasePageURL(version string) string {
	if version == "" || version == "latest" {
		return ReleasesURL + "latest"
	}
	return ReleasesURL + "tag/" + version
}

// Release is a published pandoc version with one installer URL per package
// type ("deb", "pkg", "msi").
type Release struct {
	Version string
	Assets  map[string]string
}

var assetPattern = regexp.MustCompile(`/jgm/pandoc/releases/download/[^/]+/[^/]*(?:amd|arm|aarch|x86|mac)[^/]*\.(?:msi|deb|pkg)$`)

// assetRank orders installers of one package type for goarch: a name
// carrying this CPU's token beats a neutral one, which beats one built for
// the other CPU.
func assetRank(name, goarch string) int {
	own, other := []string{"x86_64", "amd64"}, []string{"arm64", "aarch64"}
	if strings.HasPrefix(goarch, "arm") {
		own, other = other, own
	}
	for _, tok := range own {
		if strings.Contains(name, tok) {
			return 2
		}
	}
	for _, tok := range other {
		if strings.Contains(name, tok) {
			return 0
		}
	}
	return 1
}

// FindRelease fetches the release page and collects the installer links
// for the running CPU architecture. GitHub lazily loads the asset list from
// an expanded_assets fragment, which is followed when present.
func FindRelease(ctx context.Context, client *http.Client, pageURL string) (*Release, error) {
	return findRelease(ctx, client, pageURL, runtime.GOARCH)
}

func findRelease(ctx context.Context, client *http.Client, pageURL, goarch string) (*Release, error) {
	links, fragments, err := fetchLinks(ctx, client, pageURL)
	if err != nil {
		return nil, err
	}
	for _, frag := range fragments {
		more, _, err := fetchLinks(ctx, client, frag)
		if err != nil {
			return nil, err
		}
		links = append(links, more...)
	}

	rel := &Release{Assets: map[string]string{}}
	ranks := map[string]int{}
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil || !assetPattern.MatchString(u.Path) {
			continue
		}
		ext := path.Ext(u.Path)[1:]
		rank := assetRank(path.Base(u.Path), goarch)
		if best, seen := ranks[ext]; seen && best >= rank {
			continue
		}
		ranks[ext] = rank
		// /jgm/pandoc/releases/download/<version>/<file>
		if segs := strings.Split(u.Path, "/"); rel.Version == "" && len(segs) > 5 {
			rel.Version = segs[5]
		}
		rel.Assets[ext] = "https://github.com" + u.Path
	}
	if len(rel.Assets) == 0 {
		return nil, fmt.Errorf("no pandoc installers found on %s", pageURL)
	}
	return rel, nil
}

// fetchLinks returns every anchor href on the page and the src of every
// expanded_assets include-fragment, both resolved against pageURL.
func fetchLinks(ctx context.Context, client *http.Client, pageURL string) (links, fragments []string, err error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetch %s: %s", pageURL, resp.Status)
	}

	z := html.NewTokenizer(resp.Body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return links, fragments, nil
			}
			return nil, nil, fmt.Errorf("parse %s: %w", pageURL, z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			for _, a := range tok.Attr {
				switch {
				case tok.Data == "a" && a.Key == "href":
					links = append(links, resolve(base, a.Val))
				case tok.Data == "include-fragment" && a.Key == "src" && reExpandedAssets.MatchString(a.Val):
					fragments = append(fragments, resolve(base, a.Val))
				}
			}
		}
	}
}

func resolve(base *url.URL, ref string) string {
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

// Download saves the installer at rawURL into dir and returns its path. An
// existing file with the same name is reused.
func Download(ctx context.Context, client *http.Client, log *slog.Logger, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	filename := filepath.Join(dir, path.Base(u.Path))
	if info, err := os.Stat(filename); err == nil && info.Mode().IsRegular() {
		log.Info("using already downloaded file", "file", filename)
		return filename, nil
	}

	log.Info("downloading pandoc", "url", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: %s", rawURL, resp.Status)
	}

	out, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(filename)
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	return filename, out.Close()
}
