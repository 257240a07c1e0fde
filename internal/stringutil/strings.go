// Package stringutil provides common string manipulation utilities.
package stringutil

import "strings"

// ExtractCommand splits inbound text into the command key and its
// positional arguments. The first whitespace-separated token is the
// command; a Telegram mention suffix ("/start@MyBot") is stripped so
// rule lookup sees the bare command. Empty or whitespace-only input
// yields an empty command.
func ExtractCommand(text string) (command string, args []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	command = fields[0]
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}
	if len(fields) == 1 {
		return command, nil
	}
	return command, fields[1:]
}
