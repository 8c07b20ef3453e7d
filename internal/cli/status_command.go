package cli

import (
	"flag"
	"fmt"

	"shorts-pipeline/internal/types"
)

type statusOutput struct {
	Queue   string                `json:"queue"`
	Pending int                   `json:"pending"`
	Next    []types.PublishResult `json:"next_schedule"`
}

// runStatus never locks or mutates the queue. Only an invalid config file
// makes it fail.
func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}

	plan := e.orchestrator(nil, false).Plan()
	e.recorder.SetQueueDepth(len(plan))

	if *jsonOut {
		return printJSON(statusOutput{Queue: e.queue.Dir(), Pending: len(plan), Next: plan})
	}

	fmt.Fprintf(stdout, "%s %s\n", titleStyle.Render("queue:"), e.queue.Dir())
	fmt.Fprintf(stdout, "%s %d\n", titleStyle.Render("pending:"), len(plan))
	if len(plan) == 0 {
		return nil
	}
	loc, err := e.cfg.Schedule.Location()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, mutedStyle.Render("schedule if published now:"))
	fmt.Fprintln(stdout, resultsTable(plan, loc))
	return nil
}
