// Package template decodes reply templates and fills in placeholders.
//
// A template arrives from the rule store either as a structured JSON
// object or as a legacy separator-joined string:
//
//	{"body":"Hi {{1}}","buttons":"[Docs|https://example.com]","wait":"...","cooldown":30}
//	Hi {{1}}|||[Docs|https://example.com]|||...|||30
//
// Decoding is total: malformed input degrades to a body-only reply.
package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuweiho/tg-replyhub-go/internal/telegram"
)

// separator joins the legacy template segments. It must not appear in
// user-authored content; the structured JSON form has no such reserved
// token and is preferred for new rules.
const separator = "|||"

// Reply is a decoded template: what to send, how to decorate it, and
// how to throttle it.
type Reply struct {
	Body            string
	ButtonSpec      string
	WaitText        string
	CooldownSeconds int
}

// structuredReply is the JSON form stored for rules created through the
// management API.
type structuredReply struct {
	Body     string `json:"body"`
	Buttons  string `json:"buttons,omitempty"`
	Wait     string `json:"wait,omitempty"`
	Cooldown int    `json:"cooldown,omitempty"`
}

// Decode parses an encoded template. It never fails: a JSON object is
// decoded field-wise, anything else is split on the legacy separator,
// and input that fits neither form becomes the body verbatim.
func Decode(raw string) Reply {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var s structuredReply
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return Reply{
				Body:            s.Body,
				ButtonSpec:      s.Buttons,
				WaitText:        s.Wait,
				CooldownSeconds: s.Cooldown,
			}
		}
	}

	segments := strings.Split(raw, separator)
	reply := Reply{Body: segments[0]}
	if len(segments) > 1 {
		reply.ButtonSpec = segments[1]
	}
	if len(segments) > 2 {
		reply.WaitText = segments[2]
	}
	if len(segments) > 3 {
		if seconds, err := strconv.Atoi(strings.TrimSpace(segments[3])); err == nil {
			reply.CooldownSeconds = seconds
		}
	}
	return reply
}

// buttonPattern matches one [label|target] group. The label cannot
// contain '|' or ']'; the target cannot contain ']'.
var buttonPattern = regexp.MustCompile(`\[([^|\]]+)\|([^\]]+)\]`)

// ParseButtons extracts inline buttons from a button spec in
// left-to-right match order. Targets starting with "http" become link
// buttons; everything else becomes a callback button carrying the
// target verbatim.
func ParseButtons(spec string) []telegram.Button {
	matches := buttonPattern.FindAllStringSubmatch(spec, -1)
	if len(matches) == 0 {
		return nil
	}

	buttons := make([]telegram.Button, 0, len(matches))
	for _, match := range matches {
		label, target := match[1], match[2]
		if strings.HasPrefix(target, "http") {
			buttons = append(buttons, telegram.Button{Text: label, URL: target})
		} else {
			buttons = append(buttons, telegram.Button{Text: label, Data: target})
		}
	}
	return buttons
}

// Rows arranges buttons into a keyboard with at most two buttons per
// row, preserving order. A trailing odd button gets its own row.
func Rows(buttons []telegram.Button) telegram.Keyboard {
	if len(buttons) == 0 {
		return nil
	}

	keyboard := make(telegram.Keyboard, 0, (len(buttons)+1)/2)
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		keyboard = append(keyboard, buttons[i:end])
	}
	return keyboard
}

// Substitute replaces placeholders in a template body with command
// arguments. {{1}} through {{9}} map to positional arguments and
// {{name}} maps to the first argument; placeholders without a matching
// argument become empty strings, never literals.
func Substitute(body string, args []string) string {
	for i := 1; i <= 9; i++ {
		value := ""
		if i <= len(args) {
			value = args[i-1]
		}
		body = strings.ReplaceAll(body, "{{"+strconv.Itoa(i)+"}}", value)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	return strings.ReplaceAll(body, "{{name}}", name)
}
