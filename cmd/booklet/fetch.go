package main

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/alnah/go-wpbooklet/internal/wordpress"
)

// runFetch downloads pages into the workdir as content files and updates
// id-slug-map.json. Ids come from the arguments, else PAGE_IDS or the
// config, else PAGE_ID.
func runFetch(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseFetchFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	s, err := newSession(flags.common, env)
	if err != nil {
		return err
	}
	if flags.url != "" {
		s.cfg.WordPress.URL = flags.url
	}
	if flags.allowDummy {
		s.cfg.WordPress.AllowDummy = true
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	ids := fetchIDs(positional, s)

	var source wordpress.PageSource
	if s.cfg.WordPress.URL != "" {
		client, err := s.wordpressClient(env)
		if err != nil {
			return err
		}
		source = client
	} else if !s.cfg.WordPress.AllowDummy {
		return fmt.Errorf("%w: WordPress URL required (--url or WP_URL)", ErrUsage)
	}

	fetcher := wordpress.NewFetcher(source, s.workdir(),
		wordpress.WithAllowDummy(s.cfg.WordPress.AllowDummy),
		wordpress.WithFetchLogger(s.logger.Named("fetch")),
	)
	result, err := fetcher.Fetch(ctx, ids)
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		for _, p := range result.Pages {
			fmt.Fprintf(env.Stdout, "Fetched %s (%s)\n", p.ID, p.Slug)
		}
	}
	failed := make([]string, 0, len(result.Failed))
	for id := range result.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", id, result.Failed[id])
	}
	if result.Dummy {
		s.logger.Warn("wrote demo content instead of real pages", zap.String("slug", wordpress.DemoSlug))
	}
	return nil
}

// fetchIDs picks the id list: arguments, then configured ids, then PAGE_ID.
func fetchIDs(positional []string, s *session) []string {
	var ids []string
	for _, arg := range positional {
		ids = append(ids, wordpress.ParseIDs(arg)...)
	}
	if len(ids) == 0 {
		ids = wordpress.ParseIDs(s.cfg.WordPress.IDs)
	}
	if len(ids) == 0 && s.env.PageID != "" {
		ids = []string{s.env.PageID}
	}
	return ids
}
