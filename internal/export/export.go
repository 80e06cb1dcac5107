// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jeranaias/taxassist-tui/internal/model"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("conversation has no completed messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the exported view of a conversation.
type Transcript struct {
	Title     string              `json:"title"`
	Section   string              `json:"section,omitempty"`
	Model     string              `json:"model,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Messages  []model.ChatMessage `json:"messages"`
}

// FromConversation snapshots conv. Open and empty turns are left out.
func FromConversation(conv *model.Conversation, section, modelName string) Transcript {
	msgs := lo.Filter(conv.Snapshot(), func(m model.ChatMessage, _ int) bool {
		return !m.IsOpen() && !m.IsEmpty()
	})
	return Transcript{
		Title:     conv.GetTitle(),
		Section:   section,
		Model:     modelName,
		CreatedAt: conv.CreatedAt,
		Messages:  msgs,
	}
}

func (t Transcript) validate() error {
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	if t.CreatedAt.IsZero() {
		return errors.New("conversation has invalid creation timestamp")
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one file format.
type Exporter interface {
	Export(t Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot, e.g. ".md".
	FileExtension() string

	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatHTML, FormatJSON}
}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want one of %v)", s, Formats())
}

// New returns the exporter for format.
func New(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatHTML:
		return NewHTMLExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where ToFile writes. Default: current directory
	OutputDir string

	// Path overrides the generated file name when set.
	Path string

	OpenAfterExport bool

	// IncludeMetadata adds the header with section, model and dates.
	IncludeMetadata bool

	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string

	// Now stamps the footer. Default: time.Now
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile exports t in the given format and writes it to disk. It returns
// the path written.
func ToFile(t Transcript, format Format, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	exporter, err := New(format, opts)
	if err != nil {
		return "", err
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	outputPath := opts.Path
	if outputPath == "" {
		filename := fmt.Sprintf("taxassist_%s_%s%s",
			sanitizeFilename(t.Title),
			opts.now().Format("20060102_150405"),
			exporter.FileExtension(),
		)
		outputPath = filepath.Join(lo.CoalesceOrEmpty(opts.OutputDir, "."), filename)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// The file exists; failing to open it is not an export error.
			return outputPath, fmt.Errorf("open %s: %w", outputPath, err)
		}
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

var filenameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-",
	"<", "-", ">", "-", "|", "-",
	" ", "_", "\t", "_", "\n", "_", "\r", "_",
)

// sanitizeFilename makes s safe to use in a file name on any platform.
func sanitizeFilename(s string) string {
	const maxLen = 50
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	s = filenameReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '-'
		}
		return r
	}, s)
	if s == "" {
		return "conversation"
	}
	return s
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		// The empty quoted string is the window title.
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// validReferences drops references missing a title or URI.
func validReferences(refs []model.Reference) []model.Reference {
	return lo.Filter(refs, func(r model.Reference, _ int) bool { return r.Valid() })
}
