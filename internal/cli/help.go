package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/laptops/internal/ui"
)

func init() {
	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(helpFunc)
	rootCmd.SetUsageFunc(usageFunc)
}

// helpFunc prints colorized help to the command's output
func helpFunc(cmd *cobra.Command, _ []string) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\n%s\n", ui.ColorBold+ui.ColorCyan+strings.ToUpper(cmd.Name())+ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
	}

	printUsage(w, cmd)
	printExamples(w, cmd)
	printCommands(w, cmd)

	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		section(w, "Global Flags")
		printFlagsTo(w, cmd.InheritedFlags().FlagUsages())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n%sUse \"%s <command> --help\" for more information about a command.%s\n",
			ui.ColorDim, cmd.CommandPath(), ui.ColorReset)
	}
	fmt.Fprintln(w)
}

// usageFunc prints a short colorized usage to the command's error output
func usageFunc(cmd *cobra.Command) error {
	w := cmd.ErrOrStderr()

	printUsage(w, cmd)
	printCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		section(w, "Flags")
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	fmt.Fprintf(w, "\n%sUse \"%s --help\" for more information.%s\n", ui.ColorDim, cmd.CommandPath(), ui.ColorReset)
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", ui.ColorBold+ui.ColorWhite+title+ui.ColorReset)
}

func printUsage(w io.Writer, cmd *cobra.Command) {
	section(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", ui.ColorCyan+cmd.UseLine()+ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n",
			ui.ColorCyan+cmd.CommandPath()+ui.ColorReset,
			ui.ColorYellow+"<command>"+ui.ColorReset,
			ui.ColorDim+"[flags]"+ui.ColorReset)
	}
}

func printExamples(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasExample() {
		return
	}
	section(w, "Examples")
	for _, line := range strings.Split(cmd.Example, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(line, "#"):
			fmt.Fprintf(w, "  %s\n", ui.ColorDim+line+ui.ColorReset)
		default:
			fmt.Fprintf(w, "  %s\n", ui.ColorGreen+"$ "+line+ui.ColorReset)
		}
	}
}

func printCommands(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}

	var cmds []*cobra.Command
	width := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			cmds = append(cmds, c)
			width = max(width, len(c.Name()))
		}
	}

	section(w, "Commands")
	for _, c := range cmds {
		fmt.Fprintf(w, "  %s%s%s\n",
			ui.ColorCyan+c.Name()+ui.ColorReset,
			strings.Repeat(" ", width-len(c.Name())+2),
			ui.ColorDim+c.Short+ui.ColorReset)
	}
}

// printFlagsTo prints pflag usages with the flag names highlighted
func printFlagsTo(w io.Writer, usages string) {
	const minWidth = 28

	type row struct{ flag, desc string }
	var rows []row
	width := minWidth
	for _, line := range strings.Split(usages, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			// continuation of the previous description
			if len(rows) > 0 {
				rows[len(rows)-1].desc += " " + trimmed
			}
			continue
		}
		flag, desc, _ := strings.Cut(trimmed, "  ")
		flag = strings.TrimSpace(flag)
		rows = append(rows, row{flag: flag, desc: strings.TrimSpace(desc)})
		width = max(width, len(flag))
	}

	for _, r := range rows {
		fmt.Fprintf(w, "  %s%s%s\n",
			ui.ColorGreen+r.flag+ui.ColorReset,
			strings.Repeat(" ", width-len(r.flag)+2),
			ui.ColorDim+r.desc+ui.ColorReset)
	}
}

// wrapText wraps each paragraph of text at width columns
func wrapText(text string, width int) string {
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		var b strings.Builder
		lineLen := 0
		for _, word := range words {
			switch {
			case lineLen == 0:
			case lineLen+1+len(word) > width:
				b.WriteByte('\n')
				lineLen = 0
			default:
				b.WriteByte(' ')
				lineLen++
			}
			b.WriteString(word)
			lineLen += len(word)
		}
		paragraphs = append(paragraphs, b.String())
	}
	return strings.Join(paragraphs, "\n\n")
}
