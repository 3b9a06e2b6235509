package pandoc

import "context"

// ConvertText converts document content with the default client.
func ConvertText(ctx context.Context, source, to, from string, opts ...ConvertOption) (*Result, error) {
	return Default().ConvertText(ctx, source, to, from, opts...)
}

// ConvertBytes converts raw document content with the default client.
func ConvertBytes(ctx context.Context, source []byte, to, from string, opts ...ConvertOption) (*Result, error) {
	return Default().ConvertBytes(ctx, source, to, from, opts...)
}

// ConvertFile converts a path or URL with the default client.
func ConvertFile(ctx context.Context, source, to, from string, opts ...ConvertOption) (*Result, error) {
	return Default().ConvertFile(ctx, source, to, from, opts...)
}

// ConvertFiles converts several paths, URLs or globs with the default client.
func ConvertFiles(ctx context.Context, sources []string, to, from string, opts ...ConvertOption) (*Result, error) {
	return Default().ConvertFiles(ctx, sources, to, from, opts...)
}

// Convert guesses whether source is content or a path.
//
// Deprecated: use ConvertText or ConvertFile.
func Convert(ctx context.Context, source, to, from string, opts ...ConvertOption) (*Result, error) {
	return Default().Convert(ctx, source, to, from, opts...)
}

// SupportedFormats returns the formats of the default client's pandoc.
func SupportedFormats(ctx context.Context) (*Formats, error) {
	return Default().Formats(ctx)
}

// ExecutableVersion returns the version of the default client's pandoc.
func ExecutableVersion(ctx context.Context) (string, error) {
	return Default().Version(ctx)
}

// ExecutablePath returns the path of the default client's pandoc.
func ExecutablePath(ctx context.Context) (string, error) {
	return Default().Path(ctx)
}

// MinimalVersion reports whether the default pandoc is at least major.minor.
func MinimalVersion(ctx context.Context, major, minor int) (bool, error) {
	return Default().MinimalVersion(ctx, major, minor)
}

// MaximalVersion reports whether the default pandoc is at most major.minor.
func MaximalVersion(ctx context.Context, major, minor int) (bool, error) {
	return Default().MaximalVersion(ctx, major, minor)
}

// ClearVersionCache forgets the default client's cached version.
func ClearVersionCache() {
	Default().ClearVersionCache()
}

// ClearPathCache forgets the default client's executable, version and
// format lists.
func ClearPathCache() {
	Default().ClearPathCache()
}

// EnsureInstalled makes sure the default client finds a pandoc, downloading
// one when needed.
func EnsureInstalled(ctx context.Context, opts DownloadOptions) error {
	return Default().EnsureInstalled(ctx, opts)
}
