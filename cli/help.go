package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	helpMaxWidth = 72
	helpMinWidth = 40
)

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < helpMinWidth || width > helpMaxWidth {
		return helpMaxWidth
	}
	return width
}

// wrapText reflows each paragraph of text to width columns. Lines that
// already fit, such as indented code, are left alone.
func wrapText(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if len(para) <= width {
			out = append(out, para)
			continue
		}
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// SetStyledHelp installs the styled help renderer on cmd.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
}

// ApplyStyledHelpRecursive installs styled help on cmd and every subcommand.
// Usage output is suppressed since errors are reported by Execute.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// splitExamples separates an "Examples:" trailer from a long description.
func splitExamples(long string) (string, string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return strings.TrimSpace(long), ""
}

type helpWriter struct {
	out     io.Writer
	theme   *Theme
	width   int
	section lipgloss.Style
	name    lipgloss.Style
	flag    lipgloss.Style
}

func renderHelp(cmd *cobra.Command, _ []string) {
	t := DefaultTheme
	h := &helpWriter{
		out:     cmd.OutOrStdout(),
		theme:   t,
		width:   terminalWidth() - 2,
		section: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange),
		name:    lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Orange)
	h.line(title.Render(strings.ToUpper(cmd.CommandPath())))
	if cmd.Short != "" {
		h.paragraph(cmd.Short, t.Italic)
	}

	description, examples := splitExamples(cmd.Long)
	if description != "" && description != cmd.Short {
		fmt.Fprintln(h.out)
		h.paragraph(description, lipgloss.NewStyle())
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		h.heading("USAGE")
		if cmd.Runnable() {
			h.line(cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			h.line(cmd.CommandPath() + " [command]")
		}
	}

	h.commands(cmd)

	if cmd.HasAvailableSubCommands() {
		h.inlineFlags(cmd.LocalFlags())
	} else {
		h.flagTable("FLAGS", cmd.LocalNonPersistentFlags())
		h.flagTable("GLOBAL FLAGS", cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		h.heading("EXAMPLES")
		h.examples(examples, cmd.Root().Name())
	}

	if cmd.HasSubCommands() {
		fmt.Fprintf(h.out, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func (h *helpWriter) line(s string) {
	fmt.Fprintln(h.out, " "+s)
}

func (h *helpWriter) heading(s string) {
	fmt.Fprintln(h.out)
	h.line(h.section.Render(s))
}

func (h *helpWriter) paragraph(text string, style lipgloss.Style) {
	for _, l := range strings.Split(wrapText(text, h.width), "\n") {
		h.line(style.Render(l))
	}
}

func (h *helpWriter) commands(cmd *cobra.Command) {
	var subs []*cobra.Command
	width := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			subs = append(subs, sub)
			width = max(width, len(sub.Name()))
		}
	}
	if len(subs) == 0 {
		return
	}
	h.heading("COMMANDS")
	for _, sub := range subs {
		pad := strings.Repeat(" ", width-len(sub.Name()))
		h.line(h.name.Render(sub.Name()) + pad + "  " + sub.Short)
	}
}

func visibleFlags(set *pflag.FlagSet) []*pflag.Flag {
	var flags []*pflag.Flag
	set.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
		}
	})
	return flags
}

func (h *helpWriter) inlineFlags(set *pflag.FlagSet) {
	flags := visibleFlags(set)
	if len(flags) == 0 {
		return
	}
	names := make([]string, 0, len(flags))
	for _, f := range flags {
		if f.Shorthand != "" {
			names = append(names, fmt.Sprintf("-%s/--%s", f.Shorthand, f.Name))
		} else {
			names = append(names, "--"+f.Name)
		}
	}
	fmt.Fprintln(h.out)
	h.line(h.theme.Muted.Render("Flags: " + strings.Join(names, ", ")))
}

func (h *helpWriter) flagTable(heading string, set *pflag.FlagSet) {
	flags := visibleFlags(set)
	if len(flags) == 0 {
		return
	}
	width := 0
	for _, f := range flags {
		width = max(width, len(flagName(f)))
	}

	h.heading(heading)
	for _, f := range flags {
		name := flagName(f)
		usage := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" && f.DefValue != "0s" {
			usage += h.theme.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		h.line(h.flag.Render(name) + strings.Repeat(" ", width-len(name)) + "  " + usage)
	}
}

func flagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}

// examples renders comment lines muted and highlights the root command,
// the subcommand and flags of each example invocation.
func (h *helpWriter) examples(text, root string) {
	sub := lipgloss.NewStyle().Foreground(h.theme.Colors.Cyan)
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		switch {
		case l == "":
			fmt.Fprintln(h.out)
		case strings.HasPrefix(l, "#"):
			h.line(h.theme.Muted.Render(l))
		default:
			parts := strings.Fields(l)
			for i, p := range parts {
				switch {
				case i == 0 && p == root:
					parts[i] = h.name.Render(p)
				case strings.HasPrefix(p, "-"):
					parts[i] = h.flag.Render(p)
				case i == 1:
					parts[i] = sub.Render(p)
				}
			}
			h.line("  " + strings.Join(parts, " "))
		}
	}
}
