package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

const Version = "0.2.0"

type style int

const (
	styleTitle style = iota
	styleError
	styleResponse
	styleSuccess
	styleNotice
	styleLink
	styleLabel
)

var styleAttrs = map[style][]color.Attribute{
	styleTitle:    {color.Bold, color.FgCyan},
	styleError:    {color.Bold, color.FgRed},
	styleResponse: {color.FgCyan},
	styleSuccess:  {color.FgGreen},
	styleNotice:   {color.FgYellow},
	styleLink:     {color.FgBlue},
	styleLabel:    {color.Bold, color.FgCyan},
}

// Printer writes everything the user reads. Replies and notices go to out,
// errors to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	styles map[style]*color.Color
}

// NewPrinter writes to stdout and stderr, coloring only when stdout is a
// terminal.
func NewPrinter() *Printer {
	return NewPrinterWriter(colorable.NewColorableStdout(), colorable.NewColorableStderr(), IsTerminal(os.Stdout))
}

func NewPrinterWriter(out, errOut io.Writer, enabled bool) *Printer {
	if errOut == nil {
		errOut = out
	}
	p := &Printer{out: out, errOut: errOut, styles: make(map[style]*color.Color, len(styleAttrs))}
	for st, attrs := range styleAttrs {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		p.styles[st] = c
	}
	return p
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *Printer) paint(text string, st style) string {
	return p.styles[st].Sprint(text)
}

func (p *Printer) Help() {
	fmt.Fprintln(p.out, p.paint("=== Yuchi CLI v"+Version+" ===", styleTitle))
	fmt.Fprint(p.out, helpText)
}

const helpText = `A command-line assistant powered by ShapesAI.

Usage: yuchi [OPTIONS] [QUESTION...]

Options:
  --login                  Authenticate with ShapesAI (API key or user auth token)
  --shape <USERNAME>       Set a ShapesAI username to use a custom model (shapesinc/<username>)
  --logout                 Clear stored credentials and configuration
  --reset                  Reset the AI conversation history (sends '!reset' to AI)
  --wack                   Clear the AI's short-term memory (sends '!wack' to AI)
  --sleep                  Save the current conversation state
  --model <MODEL>          Override the model for this question
  --image <IMAGE_PATH>     Path to an image file (PNG/JPEG) to send to the AI
  --imagine                Generate an image via AI and download it (appends '!imagine' to the prompt)
  --env <FILE>             Load environment variables from FILE before starting
  --version                Print the version and exit

Note: Multi-word questions can be entered without quotes (e.g., yuchi hows you)

Examples:
  yuchi hi
  yuchi hows you
  yuchi --imagine a train station
  yuchi --image meme.jpg What's the text?

Run ` + "`yuchi --login`" + ` to authenticate first.
`

// Error renders err in red. Errors from the taxonomy already carry their
// category prefix.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.errOut, p.paint(err.Error(), styleError))
}

func (p *Printer) Response(reply string) {
	fmt.Fprintln(p.out, p.paint("Yuchi: "+reply, styleResponse))
}

func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.paint(msg, styleSuccess))
}

func (p *Printer) Notice(msg string) {
	fmt.Fprintln(p.out, p.paint(msg, styleNotice))
}

func (p *Printer) Link(url string) {
	fmt.Fprintln(p.out, p.paint(url, styleLink))
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, msg)
}

// CommandResult prints a bordered two-row Command/Result table. A multi-line
// result stays inside its cell.
func (p *Printer) CommandResult(command, result string) {
	table := tablewriter.NewWriter(p.out)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{p.paint("Command", styleLabel), command})
	table.Append([]string{p.paint("Result", styleLabel), strings.TrimRight(result, "\n")})
	table.SetRowLine(true)
	table.Render()
}
