package cli

import (
	"fmt"
)

const defaultConfigPath = "config.yaml"

// ExitError carries a non-default process exit status
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "produce", "produce-one":
		return runProduce(args[1:])
	case "publish", "publish-all":
		return runPublish(args[1:])
	case "run", "produce-and-publish":
		return runProduceAndPublish(args[1:])
	case "status":
		return runStatus(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Fprintln(stdout, "shorts-pipeline: produce vertical shorts and schedule them on YouTube")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	fmt.Fprintln(stdout, "  produce   render one short into the queue (alias: produce-one)")
	fmt.Fprintln(stdout, "  publish   upload every queued short at its peak-window slot (alias: publish-all)")
	fmt.Fprintln(stdout, "  run       produce --count shorts, then publish the queue (alias: produce-and-publish)")
	fmt.Fprintln(stdout, "  status    show the queue and the schedule it would get now")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Notes:")
	fmt.Fprintln(stdout, "  - Every command reads --config (default config.yaml); a missing file means defaults")
	fmt.Fprintln(stdout, "  - YouTube credentials come from YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, YOUTUBE_REFRESH_TOKEN (.env is loaded)")
	fmt.Fprintln(stdout, "  - publish --strict exits 2 when any item failed")
}
