package ui

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"jomkira/internal/models"
	"jomkira/internal/styles"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	mentionRE    = regexp.MustCompile(`@("([^"]+)"|([^\s]+))`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// ExtractImageMention finds the first @path mention that names an existing
// file and returns the input without it. Mentions of missing files (such as
// "@someone") are left in the text.
func ExtractImageMention(input string) (cleanInput string, path string) {
	for _, match := range mentionRE.FindAllStringSubmatchIndex(input, -1) {
		var name string
		if match[4] >= 0 {
			name = input[match[4]:match[5]]
		} else {
			name = input[match[6]:match[7]]
		}
		if info, err := os.Stat(name); err != nil || info.IsDir() {
			continue
		}
		clean := input[:match[0]] + input[match[1]:]
		clean = whitespaceRE.ReplaceAllString(strings.TrimSpace(clean), " ")
		return clean, name
	}
	return input, ""
}

var imageFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".webp": "webp",
}

// LoadImage reads a local image into the wire shape.
func LoadImage(path string) (*models.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("image larger than %s", humanize.IBytes(MaxImageBytes))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format, ok := imageFormats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		ct := http.DetectContentType(data)
		if !strings.HasPrefix(ct, "image/") {
			return nil, fmt.Errorf("not an image (%s)", ct)
		}
		format = strings.TrimPrefix(ct, "image/")
	}

	return &models.Image{
		Format: format,
		Bytes:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Money formats amounts with the configured currency and locale grouping.
type Money struct {
	currency string
	printer  *message.Printer
}

func NewMoney(currency, locale string) *Money {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Money{currency: currency, printer: message.NewPrinter(tag)}
}

func (m *Money) Format(amount float64) string {
	if m.currency == "" {
		return m.printer.Sprintf("%.2f", amount)
	}
	return m.printer.Sprintf("%s %.2f", m.currency, amount)
}

func PromptPreview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const maxRunes = 500
	r := []rune(s)
	if len(r) > maxRunes {
		return string(r[:maxRunes])
	}
	return s
}

// TruncateRunes truncates s to at most max display cells.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return runewidth.Truncate(s, max, "…")
}

func RelativeTime(t time.Time) string {
	if time.Since(t) < time.Minute {
		return "just now"
	}
	return humanize.Time(t)
}

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	count := 0
	for _, line := range strings.Split(value, "\n") {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

func FormatUserMessage(msg models.ChatMessage, width int) string {
	label := styles.UserLabelStyle.Render("YOU")
	content := msg.Content
	if msg.Image != nil {
		chip := styles.AttachmentStyle.Render("🖼 " + msg.Image.Format)
		if content == "" {
			content = chip
		} else {
			content = content + "\n" + chip
		}
	}
	body := styles.UserMsgStyle.Width(max(width-4, 10)).Render(content)
	return fmt.Sprintf("%s\n%s", label, body)
}

func FormatAIMessage(content string, extras []string) string {
	label := styles.AiLabelStyle.Render("JOMKIRA")
	parts := []string{label}
	if content != "" {
		parts = append(parts, styles.AiMsgStyle.Render(content))
	}
	parts = append(parts, extras...)
	return strings.Join(parts, "\n")
}
