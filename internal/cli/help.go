package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpDescStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Italic(true).
			MarginBottom(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(goodColor).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter renders kong help with lipgloss styling
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(TitleStyle.Render("Sonido Eco"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(ctx.Model.Help))
		sb.WriteString("\n")

		sb.WriteString(SectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		fmt.Fprintf(&sb, "%s [flags] <reference> <candidate> ...", ctx.Model.Name)
		sb.WriteString("\n")

		if len(ctx.Model.Node.Positional) > 0 {
			sb.WriteString("\n")
			sb.WriteString(SectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range ctx.Model.Node.Positional {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(arg.Summary()))
				if arg.Help != "" {
					sb.WriteString("  ")
					sb.WriteString(arg.Help)
				}
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
		sb.WriteString(SectionStyle.Render("Flags:"))
		sb.WriteString("\n")
		for _, f := range helpFlags(ctx) {
			sb.WriteString("  ")
			sb.WriteString(helpFlagStyle.Render(f.flags))
			if f.help != "" {
				sb.WriteString("  ")
				sb.WriteString(f.help)
			}
			if f.defaultVal != "" {
				sb.WriteString(" ")
				sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
			}
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type helpFlag struct {
	flags      string
	help       string
	defaultVal string
}

func helpFlags(ctx *kong.Context) []helpFlag {
	flags := []helpFlag{{flags: "-h, --help", help: "Show context-sensitive help."}}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" {
			continue
		}

		flagStr := "--" + f.Name
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			flagStr += "=" + strings.ToUpper(f.PlaceHolder)
		}

		flags = append(flags, helpFlag{
			flags:      flagStr,
			help:       f.Help,
			defaultVal: f.Default,
		})
	}

	return flags
}
