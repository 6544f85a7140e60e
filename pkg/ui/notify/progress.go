package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	fcolor "github.com/fatih/color"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/orchwiz/shipyard/pkg/ui/timer"
)

// ProgressTask is a named unit of work executed under a ProgressGroup.
type ProgressTask struct {
	// Name is the display name of the task (e.g., "docker engine", "kubectl context").
	Name string
	// Fn does the work. Tasks are independent; every task runs to completion
	// even when a sibling fails.
	Fn func(ctx context.Context) error
}

// ProgressLabels customizes the status text shown next to task names.
type ProgressLabels struct {
	Running   string
	Completed string
}

// DefaultLabels returns the default progress labels.
func DefaultLabels() ProgressLabels {
	return ProgressLabels{Running: "running", Completed: "completed"}
}

// ProbingLabels returns labels suitable for environment probes.
func ProbingLabels() ProgressLabels {
	return ProgressLabels{Running: "probing", Completed: "ok"}
}

// ProgressGroup runs tasks in parallel and renders one line per task.
//
// On interactive terminals the lines are redrawn in place with a spinner;
// on non-TTY writers (CI, pipes) only state changes are printed so logs
// stay readable.
type ProgressGroup struct {
	title  string
	emoji  string
	labels ProgressLabels
	writer io.Writer
	timer  timer.Timer
	isTTY  bool

	mu     sync.Mutex
	states map[string]taskState
	order  []string
	frame  int
}

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskComplete
	taskFailed
)

// spinnerTickInterval is the delay between spinner frames on a TTY.
const spinnerTickInterval = 100 * time.Millisecond

func spinnerFrames() []string {
	return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
}

// ProgressOption configures a ProgressGroup.
type ProgressOption func(*ProgressGroup)

// WithLabels sets custom state labels.
func WithLabels(labels ProgressLabels) ProgressOption {
	return func(pg *ProgressGroup) { pg.labels = labels }
}

// WithTimer attaches a timer so a timing block is printed after success.
func WithTimer(tmr timer.Timer) ProgressOption {
	return func(pg *ProgressGroup) { pg.timer = tmr }
}

// NewProgressGroup constructs a ProgressGroup writing to the given writer.
// A nil writer defaults to os.Stdout; an empty emoji defaults to ►.
func NewProgressGroup(title, emoji string, writer io.Writer, opts ...ProgressOption) *ProgressGroup {
	if writer == nil {
		writer = os.Stdout
	}

	if emoji == "" {
		emoji = "►"
	}

	isTTY := false
	if file, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(file.Fd()))
	}

	group := &ProgressGroup{
		title:  title,
		emoji:  emoji,
		labels: DefaultLabels(),
		writer: writer,
		isTTY:  isTTY,
		states: make(map[string]taskState),
	}

	for _, opt := range opts {
		opt(group)
	}

	return group
}

// Run executes all tasks in parallel and blocks until every task finished.
// The first task error is returned, wrapped with the task name.
func (pg *ProgressGroup) Run(ctx context.Context, tasks ...ProgressTask) error {
	if len(tasks) == 0 {
		return nil
	}

	for _, task := range tasks {
		pg.states[task.Name] = taskPending
		pg.order = append(pg.order, task.Name)
	}

	if pg.timer != nil {
		pg.timer.NewStage()
	}

	_, _ = fmt.Fprintf(pg.writer, "%s %s...\n", pg.emoji, pg.title)

	var err error
	if pg.isTTY {
		err = pg.runInteractive(ctx, tasks)
	} else {
		err = pg.runPlain(ctx, tasks)
	}

	if err != nil {
		return fmt.Errorf("parallel execution: %w", err)
	}

	if pg.timer != nil {
		total, stage := pg.timer.GetTiming()
		_, _ = fmt.Fprintf(pg.writer, "⏲ current: %s\n", stage.String())
		_, _ = fmt.Fprintf(pg.writer, "  total:  %s\n", total.String())
	}

	return nil
}

// --- internals ---

func (pg *ProgressGroup) runInteractive(ctx context.Context, tasks []ProgressTask) error {
	pg.draw(false)

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(spinnerTickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				pg.draw(true)
			}
		}
	}()

	err := pg.execute(ctx, tasks, nil)

	close(stop)
	<-done

	pg.draw(true)

	return err
}

// runPlain prints one line per state change, suitable for CI logs.
func (pg *ProgressGroup) runPlain(ctx context.Context, tasks []ProgressTask) error {
	onChange := func(name string, state taskState) {
		switch state {
		case taskRunning:
			_, _ = fmt.Fprintf(pg.writer, "► %s %s\n", name, pg.labels.Running)
		case taskComplete:
			_, _ = fcolor.New(fcolor.FgGreen).Fprintf(pg.writer, "✔ %s %s\n", name, pg.labels.Completed)
		case taskFailed:
			_, _ = fcolor.New(fcolor.FgRed).Fprintf(pg.writer, "✗ %s failed\n", name)
		case taskPending:
		}
	}

	return pg.execute(ctx, tasks, onChange)
}

func (pg *ProgressGroup) execute(
	ctx context.Context,
	tasks []ProgressTask,
	onChange func(string, taskState),
) error {
	var group errgroup.Group

	for _, task := range tasks {
		group.Go(func() error {
			pg.setState(task.Name, taskRunning, onChange)

			taskErr := task.Fn(ctx)
			if taskErr != nil {
				pg.setState(task.Name, taskFailed, onChange)

				return fmt.Errorf("%s: %w", task.Name, taskErr)
			}

			pg.setState(task.Name, taskComplete, onChange)

			return nil
		})
	}

	return group.Wait()
}

func (pg *ProgressGroup) setState(name string, state taskState, onChange func(string, taskState)) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	pg.states[name] = state

	if onChange != nil {
		onChange(name, state)
	}
}

// draw renders one line per task. With moveUp set it first moves the cursor
// back over the previously drawn block so lines update in place.
func (pg *ProgressGroup) draw(moveUp bool) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if moveUp {
		_, _ = fmt.Fprintf(pg.writer, "\033[%dA", len(pg.order))
	}

	frames := spinnerFrames()
	pg.frame = (pg.frame + 1) % len(frames)

	for _, name := range pg.order {
		_, _ = fmt.Fprint(pg.writer, "\033[2K")

		switch pg.states[name] {
		case taskRunning:
			_, _ = fmt.Fprintf(pg.writer, "%s %s %s\n", frames[pg.frame], name, pg.labels.Running)
		case taskComplete:
			_, _ = fcolor.New(fcolor.FgGreen).Fprintf(pg.writer, "✔ %s %s\n", name, pg.labels.Completed)
		case taskFailed:
			_, _ = fcolor.New(fcolor.FgRed).Fprintf(pg.writer, "✗ %s failed\n", name)
		case taskPending:
			_, _ = fmt.Fprintf(pg.writer, "○ %s pending\n", name)
		}
	}
}
