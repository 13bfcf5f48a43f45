package tui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/config"
)

func TestShowBanner(t *testing.T) {
	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	ShowBanner("1.0.0-test")

	w.Close()
	os.Stdout = old
	out := <-outC

	if !strings.Contains(out, "Top stories in your terminal") {
		t.Errorf("Expected banner to contain tagline, got: %s", out)
	}
	// Check for border characters
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator symbols, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "█▀█") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) != 2 {
		t.Errorf("Expected 2 logo lines, got %d", len(LogoLines))
	}
	if len(BannerColors) != 4 {
		t.Errorf("Expected 4 banner colors, got %d", len(BannerColors))
	}
}

func TestApplyColors(t *testing.T) {
	oldPrimary, oldError := PrimaryColor, ErrorColor
	t.Cleanup(func() {
		PrimaryColor, ErrorColor = oldPrimary, oldError
		buildStyles()
	})

	ApplyColors(config.UIColors{Primary: "#123456"})

	if PrimaryColor != lipgloss.Color("#123456") {
		t.Errorf("Expected primary color to be overridden, got %v", PrimaryColor)
	}
	if ErrorColor != oldError {
		t.Errorf("Expected empty entries to keep defaults, got %v", ErrorColor)
	}
}

func TestStatusMessages(t *testing.T) {
	if got := MsgFeedSummary(1, 1, false); got != "1 article • page 1" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := MsgFeedSummary(15, 2, true); got != "15 articles • page 2 • end of feed" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := MsgResultsCount(3); got != "3 results" {
		t.Errorf("unexpected count %q", got)
	}
	if got := MsgBookmark(false, "Hello"); got != "Removed 'Hello' from saved" {
		t.Errorf("unexpected bookmark message %q", got)
	}
}
