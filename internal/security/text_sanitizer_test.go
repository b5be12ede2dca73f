package security

import (
	"strings"
	"testing"
)

func TestSanitize_StripsMarkup(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Go Meetup", "Go Meetup"},
		{"前後の空白を除去", "  Hall A  ", "Hall A"},
		{"タグを除去して中身を残す", "<b>Go</b> Meetup", "Go Meetup"},
		{"アンパサンドを保持", "Tom & Jerry", "Tom & Jerry"},
		{"引用符を保持", `"Quoted" 'name'`, `"Quoted" 'name'`},
		{"日本語を保持", "<p>勉強会</p>", "勉強会"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_RemovesScripts(t *testing.T) {
	sanitizer := NewTextSanitizer()

	inputs := []string{
		`<script>alert("xss")</script>Meetup`,
		`<img src=x onerror="alert(1)">Meetup`,
		`<iframe src="https://evil.example.com"></iframe>Meetup`,
		`<a href="javascript:alert(1)">Meetup</a>`,
	}

	for _, in := range inputs {
		got := sanitizer.Sanitize(in)
		for _, bad := range []string{"<script", "alert(", "<img", "onerror", "<iframe", "javascript:"} {
			if strings.Contains(got, bad) {
				t.Errorf("Sanitize(%q) = %q, should not contain %q", in, got, bad)
			}
		}
		if !strings.Contains(got, "Meetup") {
			t.Errorf("Sanitize(%q) = %q, should keep text content", in, got)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	input := "<em>Launch</em> & <strong>Party</strong>"
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)
	if first != second {
		t.Errorf("Sanitize is not idempotent: %q then %q", first, second)
	}
}
