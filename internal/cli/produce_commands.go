package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"shorts-pipeline/internal/produce"
	"shorts-pipeline/internal/types"
)

func runProduce(args []string) error {
	fs := flag.NewFlagSet("produce", flag.ContinueOnError)
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
	defer e.finish()

	ctx, stop := commandContext()
	defer stop()

	lock, err := e.queue.AcquireLock("produce")
	if err != nil {
		return err
	}
	defer lock.Release()

	p, err := e.producer()
	if err != nil {
		return err
	}
	a, err := e.produceOne(ctx, p)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(a)
	}
	printArtifact(a)
	return nil
}

func runProduceAndPublish(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	count := fs.Int("count", 1, "number of shorts to produce before publishing")
	dryRun := fs.Bool("dry-run", false, "produce, then print the schedule without uploading")
	strict := fs.Bool("strict", false, "exit with status 2 when any upload failed")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count < 1 {
		return errors.New("--count must be at least 1")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.finish()

	ctx, stop := commandContext()
	defer stop()

	lock, err := e.queue.AcquireLock("run")
	if err != nil {
		return err
	}
	defer lock.Release()

	// credentials are checked before anything is rendered
	pub, err := e.publisher(ctx, *dryRun)
	if err != nil {
		return err
	}
	p, err := e.producer()
	if err != nil {
		return err
	}

	for i := 1; i <= *count; i++ {
		a, err := e.produceOne(ctx, p)
		if err != nil {
			return fmt.Errorf("production %d of %d: %w", i, *count, err)
		}
		if !*jsonOut {
			printArtifact(a)
		}
	}

	results, err := e.orchestrator(pub, !*dryRun).PublishAll(ctx, *dryRun)
	if err != nil {
		return err
	}
	if err := writePublishOutput(*dryRun, *jsonOut, results, e); err != nil {
		return err
	}
	return strictExit(*strict, results)
}

func (e *env) produceOne(ctx context.Context, p *produce.Producer) (types.Artifact, error) {
	a, err := p.Produce(ctx)
	e.recorder.ProduceFinished(err)
	return a, err
}

func printArtifact(a types.Artifact) {
	fmt.Fprintf(stdout, "%s %s\n", okStyle.Render("produced:"), a.Name)
	fmt.Fprintf(stdout, "  %s %s\n", mutedStyle.Render("path:"), a.Path)
}
