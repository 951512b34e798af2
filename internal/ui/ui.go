package ui

import (
	"fmt"
	"strings"

	"dwhctl/internal/warehouse"

	"github.com/AlecAivazis/survey/v2"
)

// UI represents the main UI interface
type UI struct {
	Verbose bool
	Quiet   bool
	spinner *Spinner
}

// NewUI creates a new UI instance
func NewUI(verbose, quiet bool) *UI {
	return &UI{
		Verbose: verbose,
		Quiet:   quiet,
	}
}

// IsVerbose returns true if verbose mode is enabled
func (u *UI) IsVerbose() bool {
	return u.Verbose
}

// IsQuiet returns true if quiet mode is enabled
func (u *UI) IsQuiet() bool {
	return u.Quiet
}

// Printf prints formatted output if not in quiet mode
func (u *UI) Printf(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Fprintf(stdout(), format, args...)
	}
}

// Println prints a line if not in quiet mode
func (u *UI) Println(args ...interface{}) {
	if !u.Quiet {
		fmt.Fprintln(stdout(), args...)
	}
}

// VerbosePrintf prints formatted output only in verbose mode
func (u *UI) VerbosePrintf(format string, args ...interface{}) {
	if u.Verbose && !u.Quiet {
		fmt.Fprintf(stdout(), format, args...)
	}
}

// StartProgress starts a progress indicator with a message
func (u *UI) StartProgress(message string) {
	if !u.Quiet {
		u.spinner = NewSpinner(message)
		u.spinner.Start()
	}
}

// StopProgress stops the progress indicator
func (u *UI) StopProgress(success bool, message string) {
	if u.spinner != nil {
		u.spinner.Stop(success, message)
		u.spinner = nil
	}
}

// Warning prints a warning message
func (u *UI) Warning(message string) {
	if !u.Quiet {
		fmt.Fprintf(stdout(), "%s %s\n", ColorWarning("⚠"), message)
	}
}

// Info prints an information message
func (u *UI) Info(message string) {
	if !u.Quiet {
		ShowInfo(message)
	}
}

// Success prints a success message
func (u *UI) Success(message string) {
	if !u.Quiet {
		ShowSuccess(message)
	}
}

// Phase announces a phase and returns the observer that narrates its
// statements, plus a function printing the phase totals. Quiet mode narrates
// nothing.
func (u *UI) Phase(name string, total int) (func(warehouse.StepResult), func()) {
	if u.Quiet {
		return func(warehouse.StepResult) {}, func() {}
	}
	title := name
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	PrintSection(title)
	bar := NewProgressBar(name, total)
	return bar.Observe, bar.Finish
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Fprintf(stdout(), "\n%s %s\n", ColorBold("▶"), ColorBold(title))
	fmt.Fprintln(stdout(), strings.Repeat("─", 50))
}

// PrintKeyValue prints a key-value pair in a formatted way
func PrintKeyValue(key, value string) {
	fmt.Fprintf(stdout(), "  %-20s %s\n", ColorDim(key+":"), value)
}

// Input displays a text input prompt
func Input(message, defaultValue, help string) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
		Help:    help,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// Password displays a password input prompt
func Password(message, help string) (string, error) {
	var result string
	prompt := &survey.Password{
		Message: message,
		Help:    help,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// Select displays a selection prompt
func Select(message string, options []string) (string, error) {
	var result string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 10,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// Confirm shows a yes/no prompt
func Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// ShowLogo displays the application logo
func ShowLogo() {
	logo := `
      _          _          _   _
   __| |_      _| |__   ___| |_| |
  / _' \ \ /\ / / '_ \ / __| __| |
 | (_| |\ V  V /| | | | (__| |_| |
  \__,_| \_/\_/ |_| |_|\___|\__|_|

     Redshift star-schema ETL
`
	fmt.Fprintln(stdout(), ColorInfo(logo))
}
