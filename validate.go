package pandoc

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// binaryFormats can only be written to a file, never to stdout.
var binaryFormats = []string{"odt", "docx", "pptx", "epub", "epub2", "epub3", "pdf"}

// scriptExtensions mark a custom writer script used in place of a format.
var scriptExtensions = []string{".lua"}

// pdfEngineFormat is what pandoc is asked to write when pdf is requested.
const pdfEngineFormat = "latex"

func isCustomWriter(to string) bool {
	return slices.Contains(scriptExtensions, strings.ToLower(filepath.Ext(to)))
}

// precheckFormats runs the checks that need no pandoc call. Formats must
// already be normalized.
func precheckFormats(from, to, outputFile string) error {
	if from == "" {
		return &FormatError{Direction: "input"}
	}
	if to == "" {
		return &FormatError{Direction: "output"}
	}

	base := BaseFormat(to)
	if base == "pdf" && to != base {
		return &PDFRequestError{
			OutputFile: outputFile,
			Format:     to,
			Reason:     fmt.Sprintf("format can't contain any extensions: %s", to),
		}
	}
	if slices.Contains(binaryFormats, base) && outputFile == "" {
		return &OutputFileError{Format: base}
	}
	if base == "pdf" && !strings.HasSuffix(outputFile, ".pdf") {
		return &PDFRequestError{
			OutputFile: outputFile,
			Format:     to,
			Reason:     `needs an output file with ".pdf" as a file ending`,
		}
	}
	return nil
}

// ValidateFormats normalizes from and to and checks them against the
// formats pandoc reported. It returns the formats to pass to pandoc, which
// keep their syntax extensions; a pdf target becomes latex.
func ValidateFormats(formats *Formats, from, to, outputFile string) (string, string, error) {
	from, to = NormalizeFormat(from), NormalizeFormat(to)
	if err := precheckFormats(from, to, outputFile); err != nil {
		return "", "", err
	}

	if base := BaseFormat(from); !formats.HasInput(base) {
		return "", "", &FormatError{Direction: "input", Format: base, Allowed: formats.Input}
	}

	base := BaseFormat(to)
	if base != "pdf" && !isCustomWriter(to) && !formats.HasOutput(base) {
		return "", "", &FormatError{Direction: "output", Format: base, Allowed: formats.Output}
	}
	if base == "pdf" {
		to = pdfEngineFormat
	}
	return from, to, nil
}
