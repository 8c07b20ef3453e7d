package cli

import (
	"context"
	"flag"
	"fmt"

	"shorts-pipeline/internal/types"
)

type publishOutput struct {
	DryRun  bool                  `json:"dry_run"`
	Summary types.Summary         `json:"summary"`
	Results []types.PublishResult `json:"results"`
}

func runPublish(args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dryRun := fs.Bool("dry-run", false, "print the schedule without uploading or touching the queue")
	strict := fs.Bool("strict", false, "exit with status 2 when any item failed")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.finish()

	ctx, stop := commandContext()
	defer stop()

	if !*dryRun {
		lock, err := e.queue.AcquireLock("publish")
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	results, err := e.publishQueue(ctx, *dryRun)
	if err != nil {
		return err
	}
	if err := writePublishOutput(*dryRun, *jsonOut, results, e); err != nil {
		return err
	}
	return strictExit(*strict, results)
}

func (e *env) publishQueue(ctx context.Context, dryRun bool) ([]types.PublishResult, error) {
	pub, err := e.publisher(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	return e.orchestrator(pub, !dryRun).PublishAll(ctx, dryRun)
}

func writePublishOutput(dryRun, jsonOut bool, results []types.PublishResult, e *env) error {
	sum := types.Summarize(results)
	if jsonOut {
		return printJSON(publishOutput{DryRun: dryRun, Summary: sum, Results: results})
	}
	if len(results) == 0 {
		fmt.Fprintln(stdout, mutedStyle.Render("queue is empty, nothing to publish"))
		return nil
	}
	loc, err := e.cfg.Schedule.Location()
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintln(stdout, titleStyle.Render("dry run: nothing uploaded"))
	}
	fmt.Fprintln(stdout, resultsTable(results, loc))
	printSummary(sum)
	return nil
}

// strictExit turns item failures into exit status 2 when asked to
func strictExit(strict bool, results []types.PublishResult) error {
	if !strict {
		return nil
	}
	if failed := types.Summarize(results).Failed; failed > 0 {
		return &ExitError{Code: 2, Err: fmt.Errorf("%d of %d uploads failed", failed, len(results))}
	}
	return nil
}
