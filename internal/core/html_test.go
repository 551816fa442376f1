package core

import (
	"strings"
	"testing"
)

func TestInjectScript(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "before closing body",
			html: "<html><body><h1>Hi</h1></body></html>",
			want: "<html><body><h1>Hi</h1><script>x()</script></body></html>",
		},
		{
			name: "uppercase body",
			html: "<HTML><BODY>Hi</BODY></HTML>",
			want: "<HTML><BODY>Hi<script>x()</script></BODY></HTML>",
		},
		{
			name: "last closing body wins",
			html: "<body><pre></body></pre></body>",
			want: "<body><pre></body></pre><script>x()</script></body>",
		},
		{
			name: "fragment",
			html: "<h1>About</h1>",
			want: "<h1>About</h1><script>x()</script>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InjectScript(tt.html, "", "x()"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInjectScript_NonASCII(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "case changing runes", body: strings.Repeat("Ⱥ", 40)},
		{name: "invalid utf8", body: strings.Repeat("\xff", 40)},
		{name: "mixed", body: "İ" + strings.Repeat("Ⱥ\xfe", 20) + "ẞ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := "<html><body><p>" + tt.body + "</p></Body></html>"
			want := "<html><body><p>" + tt.body + "</p><script>x()</script></Body></html>"

			if got := InjectScript(html, ReloadMarker, "x()"); got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestInjectScript_Idempotent(t *testing.T) {
	script := ReloadScript("/__rendr/reload")
	once := InjectScript("<body></body>", ReloadMarker, script)
	twice := InjectScript(once, ReloadMarker, script)

	if once != twice {
		t.Errorf("second injection changed the document:\n%s\n%s", once, twice)
	}
	if strings.Count(twice, "<script>") != 1 {
		t.Errorf("expected a single script, got %q", twice)
	}
}

func TestReloadScript(t *testing.T) {
	script := ReloadScript("/__rendr/reload")

	for _, want := range []string{`new EventSource("/__rendr/reload")`, `"reload"`, "location.reload()", ReloadMarker} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %q, got %q", want, script)
		}
	}
}
