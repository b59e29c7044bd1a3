package resource

import (
	"flag"
	"io"
	"testing"
)

func TestDefaults(t *testing.T) {
	db := New(".foreground: white", "*delay:      1000000", "broken line")

	if v, ok := db.String("foreground"); !ok || v != "white" {
		t.Errorf("foreground = %q, %v; want white, true", v, ok)
	}
	if got := db.Integer("delay"); got != 1000000 {
		t.Errorf("delay = %d, want 1000000", got)
	}
	if _, ok := db.String("broken line"); ok {
		t.Error("malformed default should be skipped")
	}
}

func TestNamesAreCaseInsensitive(t *testing.T) {
	db := New()
	db.Set("*Foreground", "red")
	for _, name := range []string{"foreground", ".foreground", "FOREGROUND"} {
		if v, _ := db.String(name); v != "red" {
			t.Errorf("String(%q) = %q, want red", name, v)
		}
	}
}

func TestInteger(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"500", 500},
		{" -5 ", -5},
		{"", 0},
		{"fast", 0},
		{"1.5", 0},
	}
	for _, tt := range tests {
		db := New()
		db.Set("delay", tt.value)
		if got := db.Integer("delay"); got != tt.want {
			t.Errorf("Integer(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
	if got := New().Integer("missing"); got != 0 {
		t.Errorf("missing resource = %d, want 0", got)
	}
}

func TestMergeOverridesDefaults(t *testing.T) {
	db := New("*delay: 1000000")
	db.Merge(map[string]string{"delay": "250", "font": "fixed"})
	if got := db.Integer("delay"); got != 250 {
		t.Errorf("delay = %d, want 250", got)
	}
	if v, _ := db.String("font"); v != "fixed" {
		t.Errorf("font = %q, want fixed", v)
	}
}

func TestBind(t *testing.T) {
	db := New("*delay: 1000000")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	db.Bind(fs, []Option{
		{Flag: "delay", Resource: ".delay"},
		{Flag: "fg", Resource: ".foreground"},
	})

	if err := fs.Parse([]string{"-delay", "500", "-fg", "red", "rest"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := db.Integer("delay"); got != 500 {
		t.Errorf("delay = %d, want 500", got)
	}
	if v, _ := db.String("foreground"); v != "red" {
		t.Errorf("foreground = %q, want red", v)
	}
	if fs.NArg() != 1 || fs.Arg(0) != "rest" {
		t.Errorf("remaining args = %v", fs.Args())
	}
}

func TestBindSkipsExistingFlags(t *testing.T) {
	db := New()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("delay", "", "host flag")
	db.Bind(fs, []Option{{Flag: "delay", Resource: "delay"}})

	if err := fs.Parse([]string{"-delay", "7"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := db.String("delay"); ok {
		t.Error("existing flag should not be rebound")
	}
}
