package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"econ-curator/internal/domain"
)

func newEnqueueCmd() *cobra.Command {
	var spec domain.JobSpec
	var source string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a curation job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			spec.Source = domain.Source(source)
			job, err := a.Orchestrator.Enqueue(spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s %s)\n", job.ID, job.Spec.Source, job.Spec.IndicatorRef)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source adapter (required)")
	cmd.Flags().StringVar(&spec.IndicatorRef, "ref", "", "indicator reference (required)")
	cmd.Flags().StringVar(&spec.Topic, "topic", "", "dataset topic (required)")
	cmd.Flags().StringVar(&spec.Coverage, "coverage", "", "geographic coverage label (required)")
	cmd.Flags().StringSliceVar(&spec.Countries, "countries", nil, "country filter (alpha-3 codes)")
	cmd.Flags().IntVar(&spec.StartYear, "start-year", 0, "first year to keep")
	cmd.Flags().IntVar(&spec.EndYear, "end-year", 0, "last year to keep")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("coverage")
	return cmd
}

func newQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show the active job queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			jobs := a.Orchestrator.Queue()
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}
			printJobs(jobs)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent finished jobs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			jobs := a.Orchestrator.History(limit)
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "history is empty")
				return nil
			}
			printJobs(jobs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if err := a.Orchestrator.Cancel(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancellation requested for %s\n", args[0])
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue and wait for it to drain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			pending := len(a.Orchestrator.Queue())
			if pending == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}

			events, cancel := a.Handler.Subscribe()
			defer cancel()

			a.Orchestrator.RunQueue(context.Background())
			done := make(chan struct{})
			go func() {
				a.Orchestrator.Wait()
				close(done)
			}()

			for {
				select {
				case event := <-events:
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d%%\n", event.JobID, event.Step, event.Percent)
				case <-done:
					for _, job := range a.Orchestrator.History(pending) {
						describeResult(cmd, job)
					}
					return nil
				}
			}
		},
	}
}

func describeResult(cmd *cobra.Command, job *domain.Job) {
	switch job.Status {
	case domain.JobStatusComplete:
		fmt.Fprintf(cmd.OutOrStdout(), "%s complete: %s\n", job.ID, job.DatasetName)
	case domain.JobStatusFailed:
		msg := ""
		if job.ErrorMessage != nil {
			msg = *job.ErrorMessage
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s failed: %s\n", job.ID, msg)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", job.ID, job.Status)
	}
}

func printJobs(jobs []*domain.Job) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSOURCE\tTOPIC\tDATASET\tERROR")
	for _, job := range jobs {
		errMsg := ""
		if job.ErrorMessage != nil {
			errMsg = *job.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			job.ID, job.Status, job.Spec.Source, job.Spec.Topic, job.DatasetName, errMsg)
	}
	_ = w.Flush()
}
