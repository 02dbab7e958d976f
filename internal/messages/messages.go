// Package messages holds the bot's motivational content and composes the
// longer texts (streak status, daily reminder, support forward).
package messages

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/mdminegoub-netizen/qaher-bot/internal/duration"
	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

//go:embed content.yaml
var defaultContent []byte

// Content is the editable text set, loaded from YAML.
type Content struct {
	Welcome      string   `yaml:"welcome"`
	Help         string   `yaml:"help"`
	Tips         []string `yaml:"tips"`
	Emergency    string   `yaml:"emergency"`
	Reasons      string   `yaml:"reasons"`
	Adhkar       string   `yaml:"adhkar"`
	DailyClosing string   `yaml:"daily_closing"`
}

// Catalog renders user-facing texts.
type Catalog struct {
	Content
	Units duration.Units
}

// Default returns the catalog built from the embedded content.
func Default() *Catalog {
	c, err := Parse(defaultContent)
	if err != nil {
		panic(fmt.Sprintf("messages: embedded content: %v", err))
	}
	return c
}

// Load reads content from path. An empty path selects the embedded content.
// Fields missing from the file keep their embedded value.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("messages: read %s: %w", path, err)
	}
	base := Default()
	if err := yaml.Unmarshal(data, &base.Content); err != nil {
		return nil, fmt.Errorf("messages: parse %s: %w", path, err)
	}
	if err := base.validate(); err != nil {
		return nil, fmt.Errorf("messages: %s: %w", path, err)
	}
	return base, nil
}

// Parse builds a catalog from YAML content.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{Units: duration.ArabicUnits}
	if err := yaml.Unmarshal(data, &c.Content); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.Tips) == 0 {
		return errors.New("no tips")
	}
	if c.Welcome == "" || c.Help == "" {
		return errors.New("welcome and help are required")
	}
	return nil
}

// Tip picks the tip of the day by day of month.
func (c *Catalog) Tip(now time.Time) string {
	return "💡 نصيحة اليوم:\n\n" + c.Tips[now.UTC().Day()%len(c.Tips)]
}

// WelcomeText greets the user by name. Markdown.
func (c *Catalog) WelcomeText(name string) string {
	if name == "" {
		name = "يا صديق الرحلة"
	}
	return fmt.Sprintf("أهلًا %s 🌿\n\n%s", telegram.EscapeMarkdown(name), c.Welcome)
}

// Duration renders d with the catalog's units.
func (c *Catalog) Duration(d time.Duration) string {
	return duration.Format(d, c.Units)
}

// StreakStatus describes the current streak.
func (c *Catalog) StreakStatus(rec *models.UserRecord, elapsed time.Duration, started bool) string {
	switch {
	case started:
		return "مدّتك الحالية بدون انتكاس: " + c.Duration(elapsed) + " ✅"
	case rec.StreakCorrupt:
		return "حدث خطأ في قراءة تاريخ البداية.\n" +
			"اضغط (🚀 بدء الرحلة) للبدء من الآن أو استخدم /setstart لتحديد التاريخ."
	default:
		return "لم تبدأ العدّاد بعد.\n" +
			"استخدم زر (🚀 بدء الرحلة) أو الأمر /start للبدء من اليوم."
	}
}

// DailyReminder is the daily motivational message. Markdown. A long note is
// shortened so the reminder fits in one message.
func (c *Catalog) DailyReminder(name, status, note string) string {
	if name == "" {
		name = "يا صديق الرحلة"
	}
	return fit(note, func(note string) string {
		var b strings.Builder
		fmt.Fprintf(&b, "مرحبًا %s 🌿\n\n", telegram.EscapeMarkdown(name))
		b.WriteString("تذكيرك اليومي من *قاهر العادة*:\n\n")
		b.WriteString(status)
		b.WriteString("\n\n")
		if note != "" {
			fmt.Fprintf(&b, "🎯 تذكّر ملاحظتك الشخصية:\n«%s»\n\n", telegram.EscapeMarkdown(note))
		}
		b.WriteString(c.DailyClosing)
		return b.String()
	})
}

// SupportForward is the message the admin receives for a support request.
// Replying to it routes the answer back to the user.
func (c *Catalog) SupportForward(rec *models.UserRecord, text string) string {
	name := rec.DisplayName
	if name == "" {
		name = "بدون اسم"
	}
	handle := ""
	if rec.Handle != "" {
		handle = " @" + rec.Handle
	}
	return fit(text, func(text string) string {
		return fmt.Sprintf("📩 رسالة دعم من %s%s (ID: %d):\n\n%s\n\n↩️ رُدّ على هذه الرسالة لإرسال الجواب للمستخدم.",
			name, handle, rec.UserID, text)
	})
}

// fit composes a message around the user text s. When the result is too
// long for one Telegram message, s is cut to the longest prefix that fits
// and marked with an ellipsis.
func fit(s string, compose func(string) string) string {
	fits := func(m string) bool { return utf8.RuneCountInString(m) <= telegram.MaxMessageLength }
	if out := compose(s); fits(out) {
		return out
	}
	r := []rune(s)
	cut := func(n int) string { return compose(string(r[:n]) + "…") }
	if !fits(cut(0)) {
		return compose("")
	}
	lo, hi := 0, len(r)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if fits(cut(mid)) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return cut(lo)
}
