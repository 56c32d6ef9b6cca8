// Package input parses the TUI command prompt.
package input

import "strings"

// PromptCommand describes a command suggestion entry.
type PromptCommand struct {
	Name        string
	Description string
}

// PromptMatchingCommands returns commands that match the current input prefix.
func PromptMatchingCommands(input string, commands []PromptCommand) []PromptCommand {
	if !strings.HasPrefix(strings.TrimSpace(input), "/") {
		return nil
	}
	if strings.Contains(input, " ") {
		return nil
	}

	prefix := strings.ToLower(strings.TrimSpace(input))
	matches := make([]PromptCommand, 0, len(commands))
	for _, cmd := range commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// PromptAutocomplete completes the command name, or the argument of a
// command whose name is already typed when args offers candidates for it.
func PromptAutocomplete(input string, commands []PromptCommand, args func(cmd string) []string) (string, bool) {
	if name, arg, ok := strings.Cut(input, " "); ok && args != nil {
		for _, candidate := range args(name) {
			if arg != "" && strings.HasPrefix(strings.ToLower(candidate), strings.ToLower(arg)) {
				return name + " " + candidate, true
			}
		}
		return "", false
	}

	matches := PromptMatchingCommands(input, commands)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Name + " ", true
}

// ParsePrompt splits "/name argument" into its parts. The name is lowercased
// and the argument trimmed; input not starting with a slash is rejected.
func ParsePrompt(input string) (name, arg string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || len(input) == 1 {
		return "", "", false
	}
	name, arg, _ = strings.Cut(input, " ")
	return strings.ToLower(name), strings.TrimSpace(arg), true
}
