package messages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mdminegoub-netizen/qaher-bot/internal/duration"
	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

func TestDefault(t *testing.T) {
	c := Default()
	if len(c.Tips) != 7 {
		t.Fatalf("expected 7 tips, got %d", len(c.Tips))
	}
	for name, s := range map[string]string{
		"welcome": c.Welcome, "help": c.Help, "emergency": c.Emergency,
		"reasons": c.Reasons, "adhkar": c.Adhkar, "closing": c.DailyClosing,
	} {
		if strings.TrimSpace(s) == "" {
			t.Fatalf("%s is empty", name)
		}
	}
}

func TestTip(t *testing.T) {
	c := &Catalog{Content: Content{Tips: []string{"a", "b", "c"}}}
	cases := map[int]string{3: "a", 4: "b", 5: "c", 31: "b"}
	for day, want := range cases {
		got := c.Tip(time.Date(2025, 1, day, 12, 0, 0, 0, time.UTC))
		if !strings.HasSuffix(got, want) {
			t.Fatalf("day %d: tip = %q, want suffix %q", day, got, want)
		}
	}
}

func TestStreakStatus(t *testing.T) {
	c := Default()
	rec := models.NewUserRecord(1)

	got := c.StreakStatus(rec, 0, false)
	if !strings.Contains(got, "لم تبدأ") {
		t.Fatalf("not started status = %q", got)
	}

	rec.StreakCorrupt = true
	if got := c.StreakStatus(rec, 0, false); !strings.Contains(got, "خطأ") {
		t.Fatalf("corrupt status = %q", got)
	}

	d := 26*time.Hour + 5*time.Minute
	got = c.StreakStatus(rec, d, true)
	if !strings.Contains(got, duration.Format(d, duration.ArabicUnits)) {
		t.Fatalf("running status = %q", got)
	}
}

func TestDailyReminder(t *testing.T) {
	c := Default()
	got := c.DailyReminder("sami_k", "STATUS", "stay_strong")
	if !strings.Contains(got, `sami\_k`) || !strings.Contains(got, `stay\_strong`) {
		t.Fatalf("user text should be escaped: %q", got)
	}
	if !strings.Contains(got, "STATUS") || !strings.HasSuffix(got, c.DailyClosing) {
		t.Fatalf("unexpected reminder: %q", got)
	}

	noNote := c.DailyReminder("", "STATUS", "")
	if strings.Contains(noNote, "🎯") {
		t.Fatalf("note block without a note: %q", noNote)
	}
	if !strings.Contains(noNote, "يا صديق الرحلة") {
		t.Fatalf("missing fallback name: %q", noNote)
	}
}

func TestSupportForward(t *testing.T) {
	c := Default()
	rec := models.NewUserRecord(77)
	rec.DisplayName = "Sami"
	rec.Handle = "sami"
	got := c.SupportForward(rec, "help me")
	for _, want := range []string{"Sami", "@sami", "77", "help me"} {
		if !strings.Contains(got, want) {
			t.Fatalf("forward %q misses %q", got, want)
		}
	}
}

func TestSupportForward_MaxLengthFits(t *testing.T) {
	c := Default()
	rec := models.NewUserRecord(77)
	rec.DisplayName = "Sami"
	text := strings.Repeat("ب", telegram.MaxMessageLength)

	got := c.SupportForward(rec, text)
	if n := utf8.RuneCountInString(got); n > telegram.MaxMessageLength {
		t.Fatalf("forward is %d runes", n)
	}
	if !strings.Contains(got, "ID: 77") || !strings.HasSuffix(got, "للمستخدم.") {
		t.Fatalf("header or footer lost")
	}
	if !strings.Contains(got, "ب…") {
		t.Fatalf("cut text is not marked")
	}

	short := c.SupportForward(rec, "help me")
	if strings.Contains(short, "…") {
		t.Fatalf("short text should not be cut: %q", short)
	}
}

func TestDailyReminder_LongNoteFits(t *testing.T) {
	c := Default()
	// every underscore doubles once escaped
	note := strings.Repeat("a_", telegram.MaxMessageLength/2)

	got := c.DailyReminder("Sami", "STATUS", note)
	if n := utf8.RuneCountInString(got); n > telegram.MaxMessageLength {
		t.Fatalf("reminder is %d runes", n)
	}
	if !strings.Contains(got, "STATUS") || !strings.HasSuffix(got, c.DailyClosing) {
		t.Fatalf("template lost around the note")
	}
	if !strings.Contains(got, "a\\_…") && !strings.Contains(got, "a…") {
		t.Fatalf("cut note is not marked")
	}
}

func TestLoad_OverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	if err := os.WriteFile(path, []byte("tips:\n  - only one\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Tips) != 1 || c.Tips[0] != "only one" {
		t.Fatalf("tips = %v", c.Tips)
	}
	if c.Welcome != Default().Welcome {
		t.Fatalf("welcome should keep the embedded value")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("tips: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(empty); err == nil {
		t.Fatalf("expected error for empty tips")
	}
}
