package ui

import (
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"dwhctl/pkg/errors"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

var (
	// Check if output supports colors
	supportsColor = SupportsColor()

	// overrides for os.Stdout and os.Stderr, resolved at write time
	out, errOut io.Writer

	// Color functions
	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// SetOutput redirects normal and error output. It returns a function
// restoring the previous writers.
func SetOutput(w, errW io.Writer) func() {
	prevOut, prevErr := out, errOut
	out, errOut = w, errW
	return func() { out, errOut = prevOut, prevErr }
}

func stdout() io.Writer {
	if out != nil {
		return out
	}
	return os.Stdout
}

func stderr() io.Writer {
	if errOut != nil {
		return errOut
	}
	return os.Stderr
}

// SupportsColor reports whether stdout is a terminal that renders colors.
func SupportsColor() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// SetColor forces colored output on or off.
func SetColor(enabled bool) {
	supportsColor = enabled
	color.NoColor = !enabled
}

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a formatted header
func ShowHeader(title string) {
	width := 50
	padding := (width - len(title) - 2) / 2
	if padding < 0 {
		padding = 0
	}
	right := width - 2 - padding - len(title)
	if right < 0 {
		right = 0
	}

	fmt.Fprintln(stdout(), "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(stdout(), "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", right),
	)
	fmt.Fprintln(stdout(), "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays an error on stderr. Application errors are shown with
// their code, context and suggestions; anything else is shown as text with a
// tip when one is known.
func ShowError(err error) {
	if err == nil {
		return
	}

	var appErr *errors.AppError
	if !goerrors.As(err, &appErr) {
		fmt.Fprintf(stderr(), "\n%s %s\n", ColorError("ERROR:"), err.Error())
		if suggestion := getSuggestion(err.Error()); suggestion != "" {
			fmt.Fprintf(stderr(), "\n  %s %s\n", ColorInfo("TIP:"), ColorInfo(suggestion))
		}
		return
	}

	fmt.Fprintf(stderr(), "\n%s %s\n", severityColor(appErr.Severity)(fmt.Sprintf("[%s]", appErr.Code)), appErr.Message)

	if appErr.Cause != nil {
		for _, line := range strings.Split(rootCause(appErr).Error(), "\n") {
			fmt.Fprintf(stderr(), "  %s\n", ColorDim(line))
		}
	}

	if len(appErr.Context) > 0 {
		keys := make([]string, 0, len(appErr.Context))
		for k := range appErr.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(stderr(), "\nContext:")
		for _, k := range keys {
			fmt.Fprintf(stderr(), "  %s: %v\n", k, appErr.Context[k])
		}
	}

	suggestions := appErr.Suggestions
	if len(suggestions) == 0 {
		if s := getSuggestion(err.Error()); s != "" {
			suggestions = []string{s}
		}
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(stderr(), "\nSuggestions:")
		for i, s := range suggestions {
			fmt.Fprintf(stderr(), "  %d. %s\n", i+1, s)
		}
	}
}

// rootCause follows application error causes down to the first foreign error.
func rootCause(err *errors.AppError) error {
	var cause error = err
	for {
		ae, ok := cause.(*errors.AppError)
		if !ok || ae.Cause == nil {
			return cause
		}
		cause = ae.Cause
	}
}

func severityColor(s errors.ErrorSeverity) func(string) string {
	switch s {
	case errors.SeverityCritical, errors.SeverityError:
		return ColorError
	case errors.SeverityWarning:
		return ColorWarning
	default:
		return ColorInfo
	}
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(stdout(), "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(stdout(), "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(stdout(), "%s %s\n", ColorInfo("INFO:"), message)
}

// Table creates a formatted table
type Table struct {
	writer *tabwriter.Writer
}

// NewTable creates a new table
func NewTable() *Table {
	w := tabwriter.NewWriter(stdout(), 0, 0, 2, ' ', 0)
	return &Table{writer: w}
}

// AddHeader adds a header row to the table
func (t *Table) AddHeader(columns ...string) {
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = ColorBold(col)
	}
	fmt.Fprintln(t.writer, strings.Join(headers, "\t"))

	separators := make([]string, len(columns))
	for i := range columns {
		separators[i] = strings.Repeat("-", len(columns[i]))
	}
	fmt.Fprintln(t.writer, strings.Join(separators, "\t"))
}

// AddRow adds a data row to the table
func (t *Table) AddRow(values ...string) {
	fmt.Fprintln(t.writer, strings.Join(values, "\t"))
}

// Render displays the table
func (t *Table) Render() {
	t.writer.Flush()
}

// FormatRows formats an affected-row count. Drivers that report none show a dash.
func FormatRows(rows int64) string {
	if rows < 0 {
		return ColorDim("-")
	}
	return fmt.Sprintf("%d", rows)
}

// Box draws a box around content
func Box(title, content string) {
	lines := strings.Split(content, "\n")
	maxLen := len(title)

	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	borderLen := maxLen - len(title) - 1
	if borderLen < 0 {
		borderLen = 0
	}
	fmt.Fprintf(stdout(), "+- %s %s+\n", ColorBold(title), strings.Repeat("-", borderLen))

	for _, line := range lines {
		fmt.Fprintf(stdout(), "| %s%s |\n", line, strings.Repeat(" ", maxLen-len(line)))
	}

	fmt.Fprintf(stdout(), "+%s+\n", strings.Repeat("-", maxLen+3))
}

// getSuggestion returns helpful suggestions based on error messages
func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "password authentication failed"):
		return "Check DB_USER and DB_PASSWORD in the [CLUSTER] section"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "i/o timeout"):
		return "Check that the cluster is available and its security group allows your address"
	case strings.Contains(lower, "stl_load_errors"):
		return "Query stl_load_errors on the cluster for the rejected rows"
	case strings.Contains(lower, "syntax error"):
		return "Review the statement printed by 'dwhctl sql'"
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "not authorized"):
		return "Ensure the database user and the IAM role have the necessary privileges"
	case strings.Contains(lower, "does not exist"):
		return "Run 'dwhctl create-tables' before loading"
	case strings.Contains(lower, "no such host"):
		return "Check CLUSTER.HOST; run 'dwhctl cluster status' for the endpoint"
	default:
		return ""
	}
}
