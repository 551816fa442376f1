package core

import "strings"

const ReloadMarker = "__rendr_reload"

// InjectScript places a script tag right before </body>, or at the end of the
// document when there is none. Documents already carrying marker are returned
// untouched.
func InjectScript(html string, marker string, source string) string {
	if marker != "" && strings.Contains(html, marker) {
		return html
	}

	script := "<script>" + source + "</script>"

	if idx := strings.LastIndex(lowerASCII(html), "</body>"); idx >= 0 {
		return html[:idx] + script + html[idx:]
	}

	return html + script
}

// lowerASCII folds only A-Z so byte offsets match the input.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func ReloadScript(endpoint string) string {
	return `(() => { const ` + ReloadMarker + ` = new EventSource("` + endpoint + `"); ` +
		ReloadMarker + `.addEventListener("reload", () => location.reload()); })();`
}
