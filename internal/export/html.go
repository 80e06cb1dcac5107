// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/markup"
	"github.com/jeranaias/taxassist-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(t.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"taxassist\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", t.CreatedAt.Format(time.RFC3339))
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported from <strong>%s</strong> on %s</p>\n",
		html.EscapeString(features.AppName), e.options.now().Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&sb, "            <p class=\"disclaimer\">%s</p>\n", html.EscapeString(disclaimer))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(htmlScript)
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

const disclaimer = "AI-generated content. Verify with a qualified tax professional before relying on it."

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(t Transcript) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(t.Title))
	sb.WriteString("            <div class=\"metadata\">\n")
	if t.Section != "" {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Section:</strong> %s</span>\n", html.EscapeString(t.Section))
	}
	if t.Model != "" {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(t.Model))
	}
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(t.CreatedAt))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages))
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg model.ChatMessage) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", msg.Sender)
	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(msg.Sender.DisplayName()))
	if e.options.IncludeTimestamps {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(contentHTML(msg))
	sb.WriteString("\n                </div>\n")

	if refs := validReferences(msg.References); len(refs) > 0 {
		sb.WriteString(referencesHTML(refs))
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

// contentHTML renders one message body. Text is escaped before it reaches
// the markup renderer, which leaves ordinary text untouched.
func contentHTML(msg model.ChatMessage) string {
	escaped := html.EscapeString(msg.Text)
	if msg.Sender == model.SenderUser {
		return "<p>" + strings.ReplaceAll(escaped, "\n", "<br/>") + "</p>"
	}
	return markup.RenderHTML(escaped)
}

func referencesHTML(refs []model.Reference) string {
	var sb strings.Builder
	sb.WriteString("                <div class=\"references\">\n")
	sb.WriteString("                    <p><strong>Sources:</strong></p>\n")
	sb.WriteString("                    <ol>\n")
	for _, r := range refs {
		fmt.Fprintf(&sb, "                        <li><a href=\"%s\" rel=\"noopener noreferrer\" target=\"_blank\">%s</a></li>\n",
			html.EscapeString(r.URI), html.EscapeString(r.Title))
	}
	sb.WriteString("                    </ol>\n")
	sb.WriteString("                </div>\n")
	return sb.String()
}

// =============================================================================
// EMBEDDED CSS AND SCRIPT
// =============================================================================

const htmlCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #1f2335;
            --assistant-bg: #24283b;
            --code-bg: #1a1b26;
            --accent-blue: #7aa2f7;
            --accent-green: #9ece6a;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --user-bg: #f6f8fa;
            --assistant-bg: #ffffff;
            --code-bg: #f6f8fa;
            --accent-blue: #0366d6;
            --accent-green: #22863a;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-secondary); }
        .theme-toggle {
            margin-left: auto;
            background: var(--bg-secondary);
            color: var(--text-primary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 4px 10px;
            cursor: pointer;
        }

        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 18px; border-radius: 8px; border-left: 4px solid transparent; }
        .user-message { background: var(--user-bg); border-left-color: var(--accent-blue); }
        .ai-message { background: var(--assistant-bg); border-left-color: var(--accent-green); }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 8px; font-size: 14px; }
        .role-label { font-weight: 600; }
        .timestamp { color: var(--text-muted); }
        .message-content p { margin-bottom: 10px; }
        .message-content ul, .message-content ol { margin: 0 0 10px 24px; }
        .message-content pre {
            background: var(--code-bg);
            font-family: var(--font-mono);
            font-size: 14px;
            padding: 12px;
            border-radius: 6px;
            overflow-x: auto;
            margin-bottom: 10px;
        }
        .references { margin-top: 12px; font-size: 14px; color: var(--text-secondary); }
        .references ol { margin-left: 24px; }
        .references a { color: var(--accent-blue); }

        .footer { padding: 20px 32px; font-size: 13px; color: var(--text-muted); border-top: 1px solid var(--border-color); }
        .disclaimer { margin-top: 6px; font-style: italic; }
    </style>
`

const htmlScript = `    <script>
        function toggleTheme() {
            const body = document.body;
            const next = body.classList.contains('dark-theme') ? 'light' : 'dark';
            body.classList.remove('dark-theme', 'light-theme');
            body.classList.add(next + '-theme');
            localStorage.setItem('theme', next);
        }

        document.addEventListener('DOMContentLoaded', function() {
            const savedTheme = localStorage.getItem('theme');
            if (savedTheme) {
                document.body.classList.remove('dark-theme', 'light-theme');
                document.body.classList.add(savedTheme + '-theme');
            }
        });
    </script>
`
