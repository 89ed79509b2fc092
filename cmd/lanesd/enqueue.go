package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/lanes/client"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

type enqueueFlags struct {
	server     string
	token      string
	priority   string
	delay      time.Duration
	maxRetries int
	timeout    time.Duration
	tags       []string
	dependsOn  []string
}

func enqueueCmd() *cobra.Command {
	var f enqueueFlags
	cmd := &cobra.Command{
		Use:   "enqueue TYPE [PAYLOAD]",
		Short: "Submit a job to a running daemon",
		Long: `Submit a job to a running daemon over its HTTP API.

PAYLOAD must be a JSON document and defaults to {}.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := json.RawMessage(`{}`)
			if len(args) == 2 {
				payload = json.RawMessage(args[1])
			}
			opts, err := f.options()
			if err != nil {
				return err
			}

			c, err := client.New(f.server, client.WithToken(f.token))
			if err != nil {
				return err
			}
			jobID, err := c.Enqueue(cmd.Context(), args[0], payload, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jobID)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.server, "server", "http://localhost:8080", "daemon base URL")
	fl.StringVar(&f.token, "token", "", "API bearer token")
	fl.StringVar(&f.priority, "priority", "", "critical, high, normal, low or background")
	fl.DurationVar(&f.delay, "delay", 0, "run no earlier than this long from now")
	fl.IntVar(&f.maxRetries, "max-retries", -1, "retry budget (-1 keeps the daemon default)")
	fl.DurationVar(&f.timeout, "timeout", 0, "per-attempt timeout (0 keeps the daemon default)")
	fl.StringSliceVar(&f.tags, "tags", nil, "comma-separated tags")
	fl.StringSliceVar(&f.dependsOn, "depends-on", nil, "comma-separated job IDs that must complete first")
	return cmd
}

func (f *enqueueFlags) options() ([]client.EnqueueOption, error) {
	var opts []client.EnqueueOption
	if f.priority != "" {
		p, err := job.ParsePriority(f.priority)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithPriority(p))
	}
	if f.delay > 0 {
		opts = append(opts, client.WithDelay(f.delay))
	}
	if f.maxRetries >= 0 {
		opts = append(opts, client.WithMaxRetries(f.maxRetries))
	}
	if f.timeout > 0 {
		opts = append(opts, client.WithTimeout(f.timeout))
	}
	if len(f.tags) > 0 {
		opts = append(opts, client.WithTags(f.tags...))
	}
	if len(f.dependsOn) > 0 {
		deps := make([]id.JobID, 0, len(f.dependsOn))
		for _, s := range f.dependsOn {
			dep, err := id.ParseJobID(s)
			if err != nil {
				return nil, fmt.Errorf("--depends-on %q: %w", s, err)
			}
			deps = append(deps, dep)
		}
		opts = append(opts, client.WithDependencies(deps...))
	}
	return opts, nil
}
