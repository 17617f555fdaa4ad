package uiutil

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirm asks a plain yes/no question on stderr, reading a line from
// stdin. Used as the non-raw-mode fallback.
func Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(response)
	return response == "y" || response == "yes"
}

// ConfirmTUIWithDefault shows an arrow-key-navigable yes/no dialog on
// stderr, falling back to Confirm if raw mode can't be entered (e.g.
// stdin isn't a terminal - callers should have already checked
// IsInteractive before reaching here). Used by sync's cleanup
// confirmation ("these branches look merged, delete them?").
func ConfirmTUIWithDefault(prompt string, defaultYes bool) bool {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return Confirm(prompt)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	selected := 1
	if defaultYes {
		selected = 0
	}

	render := func() {
		fmt.Fprint(os.Stderr, "\r\033[K")
		fmt.Fprintf(os.Stderr, "%s%s?%s %s\n\r", Bold, Yellow, Reset, prompt)
		fmt.Fprint(os.Stderr, "\033[K")
		yes, no := "  Yes", "  No"
		if selected == 0 {
			yes = fmt.Sprintf("%s▸ %sYes%s", Green, Bold, Reset)
		} else {
			no = fmt.Sprintf("%s▸ %sNo%s", Red, Bold, Reset)
		}
		fmt.Fprintf(os.Stderr, "  %s\n\r  %s\n\r", yes, no)
		fmt.Fprintf(os.Stderr, "\033[K%s(arrows to select, enter to confirm)%s\r", Magenta, Reset)
		fmt.Fprint(os.Stderr, "\033[3A")
	}

	fmt.Fprintln(os.Stderr)
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return defaultYes
		}
		if n == 1 {
			switch buf[0] {
			case 13, 10:
				fmt.Fprint(os.Stderr, "\033[4B\r\033[K")
				return selected == 0
			case 3, 27:
				fmt.Fprint(os.Stderr, "\033[4B\r\033[K")
				return defaultYes
			case 'y', 'Y':
				fmt.Fprint(os.Stderr, "\033[4B\r\033[K")
				return true
			case 'n', 'N':
				fmt.Fprint(os.Stderr, "\033[4B\r\033[K")
				return false
			case 'k', 'K':
				selected = 0
				render()
			case 'j', 'J':
				selected = 1
				render()
			}
		} else if n == 3 && buf[0] == 27 && buf[1] == 91 {
			switch buf[2] {
			case 65:
				selected = 0
				render()
			case 66:
				selected = 1
				render()
			}
		}
	}
}

// Success prints a green status line to stderr.
func Success(msg string) { fmt.Fprintf(os.Stderr, "%s%s %s%s\n", Green, IconSuccess, msg, Reset) }

// Error prints a red status line to stderr.
func Error(msg string) { fmt.Fprintf(os.Stderr, "%s%s %s%s\n", Red, IconError, msg, Reset) }

// Warn prints a yellow status line to stderr.
func Warn(msg string) { fmt.Fprintf(os.Stderr, "%s%s %s%s\n", Yellow, IconWarning, msg, Reset) }

// Info prints a blue status line to stderr.
func Info(msg string) { fmt.Fprintf(os.Stderr, "%s%s %s%s\n", Blue, IconInfo, msg, Reset) }

// Prompt asks for a line of input, falling back to defaultVal on EOF
// or an empty response.
func Prompt(prompt, defaultVal string) string {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		tty = os.Stdin
	} else {
		defer tty.Close()
	}
	reader := bufio.NewReader(tty)
	if defaultVal != "" {
		fmt.Fprintf(os.Stderr, "%s%s?%s %s [%s]: ", Bold, Yellow, Reset, prompt, defaultVal)
	} else {
		fmt.Fprintf(os.Stderr, "%s%s?%s %s: ", Bold, Yellow, Reset, prompt)
	}
	response, err := reader.ReadString('\n')
	if err != nil {
		return defaultVal
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return defaultVal
	}
	return response
}
