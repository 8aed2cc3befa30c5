// Package formatting renders STAC objects as tview-tagged text.
package formatting

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rivo/tview"
)

func writeIndentedLines(builder *strings.Builder, text string, indent string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		builder.WriteString(indent)
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
}

func formatFloat(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" || s == "-0" {
		s = "0"
	}
	return s
}

func formatFloatSlice(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v, 6)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RenderDownloadProgress draws a progress bar, or a byte count when total is
// unknown.
func RenderDownloadProgress(downloaded, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("[yellow]%s downloaded[white]", FormatBytes(downloaded))
	}
	const barWidth = 30
	downloaded = min(downloaded, total)
	ratio := float64(downloaded) / float64(total)
	filled := min(int(ratio*barWidth), barWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	return fmt.Sprintf("[yellow][%s][white] %s / %s (%.1f%%)", bar, FormatBytes(downloaded), FormatBytes(total), ratio*100)
}

func FormatBytes(value int64) string {
	const unit = 1024
	value = max(value, 0)
	if value < unit {
		return fmt.Sprintf("%d B", value)
	}
	units := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	div, exp := float64(unit), 0
	for n := value / unit; n >= unit && exp < len(units)-1; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(value)/div, units[exp])
}

func MakeHelpText(text string) *tview.TextView {
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignCenter).
		SetText(text)
	view.SetBorder(true).SetTitle("Controls")
	return view
}

// Slugify lowercases input and keeps letters, digits, dashes and underscores;
// spaces become dashes.
func Slugify(input string) string {
	var builder strings.Builder
	for _, r := range input {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			builder.WriteRune(unicode.ToLower(r))
		case r == '-', r == '_':
			builder.WriteRune(r)
		case unicode.IsSpace(r):
			builder.WriteRune('-')
		}
	}
	return strings.Trim(builder.String(), "-_")
}

// AssetFileName returns the file name an asset href downloads to, ignoring
// any query string. It is empty when href names a directory.
func AssetFileName(href string) string {
	p := href
	if strings.Contains(href, "://") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		p = u.Path
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return path.Base(p)
}

func GenerateJSONFilename(title string, now time.Time) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "stac_object"
	}
	return fmt.Sprintf("%s_%s.json", slug, now.Format("20060102_150405"))
}
