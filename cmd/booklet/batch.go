package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	booklet "github.com/alnah/go-wpbooklet"
	"github.com/alnah/go-wpbooklet/internal/wordpress"
)

// runBatchCmd builds several booklets in parallel. Identifiers come from
// the arguments (comma lists allowed); without any, every content file in
// the workdir is built.
func runBatchCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseBatchFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	s, err := newSession(flags.common, env)
	if err != nil {
		return err
	}
	mergeBuildFlags(&flags.buildFlags, s.cfg)
	if flags.concurrency != 0 {
		s.cfg.Build.Concurrency = flags.concurrency
	}
	if flags.keepHTML {
		s.cfg.Build.KeepHTML = true
	}

	b, err := newBuilder(s, env, flags.render.noMedia)
	if err != nil {
		return err
	}
	defer closeBuilder(b, s.logger)

	tasks, err := batchTasks(b, positional, s.cfg.Build.Template)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("%w: no content-*.json files in %s", booklet.ErrContentNotFound, s.workdir())
	}
	s.logger.Debug("batch tasks", zap.Int("count", len(tasks)), zap.Int("concurrency", b.Concurrency()))

	summary := b.RunBatch(ctx, tasks)
	printBatchSummary(env.Stdout, env.Stderr, summary, flags.common.quiet, flags.common.verbose)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := summary.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBatchFailed, err)
	}
	return nil
}

// batchTasks expands identifier arguments, or discovers them.
func batchTasks(b *booklet.Builder, args []string, template string) ([]booklet.BatchTask, error) {
	var ids []string
	for _, arg := range args {
		ids = append(ids, wordpress.ParseIDs(arg)...)
	}
	if len(ids) == 0 {
		tasks, err := b.Discover()
		if err != nil {
			return nil, fmt.Errorf("discovering content: %w", err)
		}
		for i := range tasks {
			tasks[i].Template = template
		}
		return tasks, nil
	}

	tasks := make([]booklet.BatchTask, len(ids))
	for i, id := range ids {
		tasks[i] = booklet.BatchTask{Identifier: id, Template: template}
	}
	return tasks, nil
}

// printBatchSummary outputs per-task results and the totals line.
func printBatchSummary(stdout, stderr io.Writer, s *booklet.BatchSummary, quiet, verbose bool) {
	for _, r := range s.Results {
		switch r.Status {
		case booklet.TaskFailed:
			fmt.Fprintf(stderr, "FAILED %s: %v\n", r.Task.Identifier, r.Err)
		case booklet.TaskSkipped:
			if verbose {
				fmt.Fprintf(stdout, "Skipped %s (same content as %s)\n", r.Task.Identifier, r.DuplicateOf)
			}
			if r.AliasPath != "" && !quiet {
				fmt.Fprintf(stdout, "Created %s\n", r.AliasPath)
			}
		case booklet.TaskSucceeded:
			if !quiet {
				printBuildResult(stdout, r.Result, false, verbose)
			}
		}
	}

	if quiet {
		return
	}
	fmt.Fprintf(stdout, "\n%d of %d failed, %d succeeded", s.Failed, len(s.Results), s.Succeeded)
	if s.Skipped > 0 {
		fmt.Fprintf(stdout, ", %d skipped", s.Skipped)
	}
	if verbose {
		fmt.Fprintf(stdout, " (%v)", s.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(stdout)
}
