package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"dwhctl/internal/warehouse"
)

// ProgressBar tracks the statements of one phase.
type ProgressBar struct {
	phase     string
	total     int
	current   int
	startTime time.Time
	mu        sync.Mutex

	successCount int
	failureCount int
	currentStep  string
}

// NewProgressBar creates a new progress bar
func NewProgressBar(phase string, total int) *ProgressBar {
	return &ProgressBar{
		phase:     phase,
		total:     total,
		startTime: time.Now(),
	}
}

// Observe records one statement result. It matches the observer callback the
// schema manager, loader and transformer accept.
func (p *ProgressBar) Observe(r warehouse.StepResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	p.currentStep = r.Name
	if r.Err == nil {
		p.successCount++
	} else {
		p.failureCount++
	}

	p.render(r)
}

// Finish prints the phase totals.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	mark := ColorSuccess("✓")
	if p.failureCount > 0 {
		mark = ColorError("✗")
	}
	fmt.Fprintf(stdout(), "%s %s: %d/%d statements in %s\n", mark, p.phase, p.successCount, p.total, formatDuration(elapsed))
}

func (p *ProgressBar) render(r warehouse.StepResult) {
	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100
	}

	barWidth := 20
	filled := int(percentage / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	step := p.currentStep
	if len(step) > 40 {
		step = step[:37] + "..."
	}

	status := ColorSuccess("✓")
	if r.Err != nil {
		status = ColorError("✗")
	}

	fmt.Fprintf(stdout(), "%s %s %3.0f%% [%d/%d] %-40s %s\n",
		status,
		ColorProgress(bar),
		percentage,
		p.current,
		p.total,
		step,
		ColorDim(formatDuration(r.Duration)),
	)
}

// Spinner represents an animated spinner for long operations
type Spinner struct {
	frames  []string
	current int
	message string
	stop    chan bool
	stopped bool
	mu      sync.Mutex
}

// NewSpinner creates a new spinner
func NewSpinner(message string) *Spinner {
	return &Spinner{
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		stop:    make(chan bool),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Fprintf(stdout(), "\r%s %s %s",
						ColorProgress(s.frames[s.current]),
						s.message,
						strings.Repeat(" ", 20),
					)
					s.current = (s.current + 1) % len(s.frames)
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Stop stops the spinner. Calling it twice is a no-op.
func (s *Spinner) Stop(success bool, message string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)

	fmt.Fprint(stdout(), "\r\033[K")
	if success {
		fmt.Fprintf(stdout(), "%s %s\n", ColorSuccess("✓"), message)
	} else {
		fmt.Fprintf(stdout(), "%s %s\n", ColorError("✗"), message)
	}
	s.mu.Unlock()
}

// UpdateMessage updates the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
