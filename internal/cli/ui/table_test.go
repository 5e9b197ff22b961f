package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	table := NewTable(&buf, true, "Name", "Program", "Background")

	table.AddRow("Mock external LS", "/usr/bin/mockls", "yes")
	table.AddRow("short", "a")

	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}

	if !strings.HasPrefix(lines[0], "Name              Program") {
		t.Errorf("header not padded to widest cell: %q", lines[0])
	}
	if !strings.Contains(lines[1], "─") {
		t.Errorf("missing separator: %q", lines[1])
	}
	if lines[3] != "short             a" {
		t.Errorf("short row not padded or trimmed: %q", lines[3])
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true)

	table.Render()

	if buf.String() != "" {
		t.Errorf("Expected empty output for table with no headers, got: %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kvTable := NewKeyValueTable(&buf, true)

	kvTable.AddRow("Name", "Mock external LS")
	kvTable.AddRow("Background", "true")

	kvTable.Render()

	expected := "Name:       Mock external LS\nBackground: true\n"
	if buf.String() != expected {
		t.Errorf("unexpected output:\n%q\nwant\n%q", buf.String(), expected)
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Launches", true)

	expected := "Launches\n" + strings.Repeat("─", len("Launches")) + "\n"
	if buf.String() != expected {
		t.Errorf("unexpected header: %q", buf.String())
	}
}
