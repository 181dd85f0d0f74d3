package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	booklet "github.com/alnah/go-wpbooklet"
	"github.com/alnah/go-wpbooklet/internal/hints"
)

// runBuild builds one booklet. The identifier comes from the argument,
// else SLUG, else PAGE_ID.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: build takes one identifier, got %d", ErrUsage, len(positional))
	}

	s, err := newSession(flags.common, env)
	if err != nil {
		return err
	}
	mergeBuildFlags(flags, s.cfg)

	identifier := s.env.Identifier()
	if len(positional) == 1 {
		identifier = positional[0]
	}
	if strings.TrimSpace(identifier) == "" {
		return fmt.Errorf("%w: pass a slug or page id, or set SLUG or PAGE_ID", booklet.ErrEmptyIdentifier)
	}

	b, err := newBuilder(s, env, flags.render.noMedia)
	if err != nil {
		return err
	}
	defer closeBuilder(b, s.logger)

	result, err := b.Build(ctx, booklet.BuildRequest{
		Identifier: identifier,
		Template:   s.cfg.Build.Template,
		HTMLOnly:   flags.htmlOnly,
	})
	if err != nil {
		if errors.Is(err, booklet.ErrContentNotFound) {
			return fmt.Errorf("%w%s", err, hints.ForContentNotFound(s.workdir()))
		}
		return err
	}

	printBuildResult(env.Stdout, result, flags.common.quiet, flags.common.verbose)
	if err := exportSlug(env, result.Slug); err != nil {
		s.logger.Warn("could not export SLUG", zap.Error(err))
	}
	return nil
}

// newBuilder creates a Builder from the session configuration.
func newBuilder(s *session, env *Environment, noMedia bool) (*booklet.Builder, error) {
	opts, err := s.builderOptions(env, noMedia)
	if err != nil {
		return nil, err
	}
	return booklet.NewBuilder(opts...)
}

func closeBuilder(b *booklet.Builder, logger *zap.Logger) {
	if err := b.Close(); err != nil {
		logger.Warn("closing PDF backend", zap.Error(err))
	}
}

// printBuildResult reports what one build produced.
func printBuildResult(w io.Writer, r *booklet.BuildResult, quiet, verbose bool) {
	if quiet {
		return
	}
	out := r.PDFPath
	if out == "" {
		out = r.HTMLPath
	}
	if verbose {
		fmt.Fprintf(w, "%s -> %s [%s, %s] (%v)\n", r.Identifier, out, r.Template, r.Reason, r.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Created %s\n", out)
	}
	if r.AliasPath != "" {
		fmt.Fprintf(w, "Created %s\n", r.AliasPath)
	}
}

// exportSlug appends SLUG=<slug> to the file named by GITHUB_ENV so later
// workflow steps can find the artifact.
func exportSlug(env *Environment, slug string) error {
	path := env.Getenv("GITHUB_ENV")
	if path == "" || slug == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G304 -- path set by the CI runner
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "SLUG=%s\n", slug); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
