package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type BuildStep struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Error     string
}

type BuildError struct {
	Page    string
	Message string
	Details []string
}

type BuildReport struct {
	output      *Output
	mu          sync.Mutex
	steps       []*BuildStep
	warnings    []BuildError
	errors      []BuildError
	outputs     []string
	startTime   time.Time
	pageCount   int
	outputDir   string
	hasFailures bool
}

func NewBuildReport(output *Output, outputDir string) *BuildReport {
	return &BuildReport{
		output:    output,
		startTime: time.Now(),
		outputDir: outputDir,
	}
}

func (r *BuildReport) SetPageCount(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageCount = count
}

func (r *BuildReport) StartStep(name string) *BuildStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	step := &BuildStep{
		Name:      name,
		StartTime: time.Now(),
	}
	r.steps = append(r.steps, step)
	return step
}

func (r *BuildReport) EndStep(step *BuildStep, success bool, err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step.EndTime = time.Now()
	step.Success = success
	step.Error = err
	if !success {
		r.hasFailures = true
	}
}

func (r *BuildReport) AddOutput(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, path)
}

func (r *BuildReport) AddWarning(page string, message string, details []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, BuildError{
		Page:    page,
		Message: message,
		Details: details,
	})
}

func (r *BuildReport) AddError(page string, message string, details []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, BuildError{
		Page:    page,
		Message: message,
		Details: details,
	})
	r.hasFailures = true
}

func (r *BuildReport) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := time.Since(r.startTime)

	if len(r.errors) == 0 && len(r.warnings) == 0 {
		r.renderMinimal(duration)
	} else {
		r.renderVerbose(duration)
	}
}

func (r *BuildReport) renderMinimal(duration time.Duration) {
	out := r.output.Writer()
	fmt.Fprintf(out, "  "+r.output.Green("✓ ")+"%d pages found\n", r.pageCount)

	for _, path := range r.outputs {
		fmt.Fprintf(out, "    %s\n", r.output.Gray(path))
	}

	failed := make([]string, 0, len(r.steps))
	for _, step := range r.steps {
		if !step.Success {
			failed = append(failed, "  "+r.output.Red("✗ ")+step.Name)
		}
	}

	if len(failed) == 0 {
		fmt.Fprintf(out, "  "+r.output.Green("✓ ")+"Build complete in %s\n", formatDuration(duration))
	} else {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Failed steps:")
		for _, line := range failed {
			fmt.Fprintln(out, line)
		}
	}

	r.renderOutputDir(out)
}

func (r *BuildReport) renderVerbose(duration time.Duration) {
	out := r.output.Writer()
	errOut := r.output.ErrWriter()

	fmt.Fprintf(out, "  %d pages found\n", r.pageCount)

	fmt.Fprintln(out)
	for _, step := range r.steps {
		status := r.output.Green("✓")
		if !step.Success {
			status = r.output.Red("✗")
		}
		fmt.Fprintf(out, "  %s %s\n", status, step.Name)
	}

	if len(r.errors) > 0 {
		fmt.Fprintln(errOut)
		fmt.Fprintf(errOut, "  "+r.output.Red("✗ ")+"Errors (%d):\n", len(r.errors))
		r.renderErrors(errOut, r.errors)
	}

	if len(r.warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  "+r.output.Yellow("⚠ ")+"Warnings (%d):\n", len(r.warnings))
		r.renderErrors(out, r.warnings)
	}

	fmt.Fprintln(out)
	if len(r.errors) > 0 {
		fmt.Fprintf(errOut, "  %s\n", r.output.Red(fmt.Sprintf("Build failed after %s", formatDuration(duration))))
	} else {
		fmt.Fprintf(out, "  "+r.output.Green("✓ ")+"Build complete in %s\n", formatDuration(duration))
	}

	r.renderOutputDir(out)
}

func (r *BuildReport) renderOutputDir(out io.Writer) {
	if r.outputDir != "" {
		fmt.Fprintf(out, "\n  %s\n", r.output.Gray("Output: "+r.outputDir))
	}
}

func (r *BuildReport) renderErrors(out io.Writer, errors []BuildError) {
	for _, err := range errors {
		fmt.Fprintf(out, "  %s %s\n", r.output.Red("✗"), err.Page)
		fmt.Fprintf(out, "    %s\n", err.Message)

		for _, detail := range deduplicateStrings(err.Details) {
			fmt.Fprintf(out, "      • %s\n", detail)
		}
	}
}

func (r *BuildReport) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasFailures
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.1fs", float64(d)/float64(time.Second))
}

// deduplicateStrings keeps first-seen order and annotates repeated items.
func deduplicateStrings(items []string) []string {
	if len(items) <= 1 {
		return items
	}

	counts := make(map[string]int)
	order := make([]string, 0, len(items))
	for _, item := range items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}

	result := make([]string, 0, len(order))
	for _, item := range order {
		if counts[item] > 1 {
			result = append(result, fmt.Sprintf("%s (%d occurrences)", item, counts[item]))
		} else {
			result = append(result, item)
		}
	}

	return result
}
