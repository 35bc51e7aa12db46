package host

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

// attrPattern matches name="v", name='v', name=v and bare positional values.
var attrPattern = regexp.MustCompile(`([\w-]+)\s*=\s*"([^"]*)"|([\w-]+)\s*=\s*'([^']*)'|([\w-]+)\s*=\s*([^\s'"]+)|"([^"]*)"|'([^']*)'|(\S+)`)

// markerPattern builds the expression for the registered names. Groups:
// 1 opening escape bracket, 2 name, 3 attribute text, 4 closing escape bracket.
func markerPattern(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	// Longest first so a name never shadows a longer one sharing its prefix.
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return regexp.MustCompile(`\[(\[?)(` + strings.Join(quoted, "|") + `)((?:\s[^\[\]]*?)?)\s*/?\](\]?)`)
}

// ParseMarkerAttrs splits the attribute text of a marker. Named attributes
// are keyed by lower-cased name, positional ones by their index.
func ParseMarkerAttrs(text string) map[string]string {
	attrs := make(map[string]string)
	pos := 0
	for _, m := range attrPattern.FindAllStringSubmatch(text, -1) {
		switch {
		case m[1] != "":
			attrs[strings.ToLower(m[1])] = m[2]
		case m[3] != "":
			attrs[strings.ToLower(m[3])] = m[4]
		case m[5] != "":
			attrs[strings.ToLower(m[5])] = m[6]
		default:
			v := m[7] + m[8] + m[9]
			if v == "/" {
				continue
			}
			attrs[strconv.Itoa(pos)] = v
			pos++
		}
	}
	return attrs
}

// HasMarker reports whether content holds an unescaped name marker that
// ExpandMarkers would hand to its handler.
func (h *Hooks) HasMarker(content, name string) bool {
	if _, ok := h.marker(name); !ok || !strings.Contains(content, "[") {
		return false
	}
	for _, m := range markerPattern([]string{name}).FindAllStringSubmatch(content, -1) {
		if m[1] != "[" || m[4] != "]" {
			return true
		}
	}
	return false
}

// ExpandMarkers replaces every registered marker in content with its
// handler's output. [[name]] is an escape and yields the literal [name].
func (h *Hooks) ExpandMarkers(ctx context.Context, view *oa.View, content string) (string, error) {
	names := h.markerNames()
	if len(names) == 0 || !strings.Contains(content, "[") {
		return content, nil
	}

	re := markerPattern(names)
	matches := re.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(content[last:m[0]])
		last = m[1]

		full := content[m[0]:m[1]]
		open := content[m[2]:m[3]]
		name := content[m[4]:m[5]]
		attrText := content[m[6]:m[7]]
		closing := content[m[8]:m[9]]

		if open == "[" && closing == "]" {
			b.WriteString(full[1 : len(full)-1])
			continue
		}

		fn, ok := h.marker(name)
		if !ok {
			b.WriteString(full)
			continue
		}
		out, err := fn(ctx, view, ParseMarkerAttrs(attrText))
		if err != nil {
			return "", h.fail(NewHookContext(ctx), "marker "+name, err)
		}
		b.WriteString(open)
		b.WriteString(out)
		b.WriteString(closing)
	}
	b.WriteString(content[last:])
	return b.String(), nil
}
