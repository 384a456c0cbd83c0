package formatting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewTable returns a rounded table writing to out with highlighted headers.
// An empty header list produces a key/value table without a header row.
func NewTable(out io.Writer, headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	if len(headers) > 0 {
		row := make(table.Row, len(headers))
		for i, h := range headers {
			row[i] = text.FgHiCyan.Sprint(h)
		}
		t.AppendHeader(row)
	}
	return t
}

// Key highlights the key column of a key/value table.
func Key(s string) string {
	return text.FgHiCyan.Sprint(s)
}

// Name highlights a primary value such as a server or library name.
func Name(s string) string {
	return text.FgHiWhite.Sprint(s)
}

// Good and Bad color a status value.
func Good(s string) string { return text.FgGreen.Sprint(s) }
func Bad(s string) string  { return text.FgRed.Sprint(s) }

// Warn colors a status value that needs attention.
func Warn(s string) string {
	return text.FgYellow.Sprint(s)
}

// YesNo renders a boolean as a colored yes or no.
func YesNo(b bool) string {
	if b {
		return Good("yes")
	}
	return Bad("no")
}

// Empty prints the message shown in place of an empty table.
func Empty(out io.Writer, message string) {
	fmt.Fprintf(out, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint(message))
}

// Total prints a count summary line below a table.
func Total(out io.Writer, n int, noun string) {
	fmt.Fprintf(out, "%s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(n),
		text.FgHiBlue.Sprint(noun))
}
