package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	"go.uber.org/zap"

	booklet "github.com/alnah/go-wpbooklet"
	"github.com/alnah/go-wpbooklet/internal/fileutil"
)

// ErrNothingFetched indicates that no requested page could be fetched.
var ErrNothingFetched = errors.New("no page fetched")

// Demo record written when fetching is impossible and dummies are allowed.
const (
	DemoID   = "123"
	DemoSlug = "demo"
)

// PageSource is the part of Client the Fetcher needs.
type PageSource interface {
	Page(ctx context.Context, id string) (*Page, error)
	ACF(ctx context.Context, id string) (map[string]any, error)
}

// Fetcher writes content files and the id-slug map into a directory.
type Fetcher struct {
	source     PageSource
	dir        string
	allowDummy bool
	logger     *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithAllowDummy writes a demo record instead of failing when nothing can
// be fetched.
func WithAllowDummy(allow bool) FetcherOption {
	return func(f *Fetcher) { f.allowDummy = allow }
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a fetcher writing into dir. source may be nil, in
// which case only the dummy path is available.
func NewFetcher(source PageSource, dir string, opts ...FetcherOption) *Fetcher {
	if dir == "" {
		dir = "."
	}
	f := &Fetcher{source: source, dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchedPage describes one stored page.
type FetchedPage struct {
	ID    string
	Slug  string
	Files []string // bare file names written
}

// FetchResult summarizes a Fetch call.
type FetchResult struct {
	Pages  []FetchedPage
	Failed map[string]error
	Dummy  bool
}

// Fetch stores every id. Failures are logged and skipped; the call only
// fails when nothing at all was stored.
func (f *Fetcher) Fetch(ctx context.Context, ids []string) (*FetchResult, error) {
	result := &FetchResult{Failed: make(map[string]error)}
	ids = cleanIDs(ids)

	if f.source == nil || len(ids) == 0 {
		return f.fallback(result, errors.New("WP_URL and page ids are required"))
	}

	mapPath := filepath.Join(f.dir, booklet.IdentifierMapFile)
	idmap, err := booklet.LoadIdentifierMap(mapPath)
	if err != nil {
		f.logger.Warn("ignoring unreadable identifier map", zap.Error(err))
		idmap = booklet.NewIdentifierMap()
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := f.fetchOne(ctx, id)
		if err != nil {
			f.logger.Error("fetch failed", zap.String("id", id), zap.Error(err))
			var se *StatusError
			if errors.As(err, &se) && se.Body != "" {
				f.logger.Debug("response", zap.String("id", id), zap.String("body", se.Body))
			}
			result.Failed[id] = err
			continue
		}
		idmap.Add(page.ID, page.Slug)
		result.Pages = append(result.Pages, *page)
		f.logger.Info("page stored", zap.String("id", page.ID), zap.String("slug", page.Slug), zap.Strings("files", page.Files))
	}

	if len(result.Pages) == 0 {
		return f.fallback(result, ErrNothingFetched)
	}

	if err := idmap.Save(mapPath); err != nil {
		return result, fmt.Errorf("saving identifier map: %w", err)
	}
	return result, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, id string) (*FetchedPage, error) {
	page, err := f.source.Page(ctx, id)
	if err != nil {
		return nil, err
	}

	acf := page.ACF
	if len(acf) == 0 {
		fields, err := f.source.ACF(ctx, id)
		switch {
		case err != nil:
			f.logger.Warn("ACF endpoint failed", zap.String("id", id), zap.Error(err))
		default:
			acf = fields
		}
	}

	if page.ID == 0 {
		page.ID, _ = strconv.ParseInt(id, 10, 64)
	}
	record, err := Flatten(page, acf)
	if err != nil {
		return nil, err
	}

	stored := &FetchedPage{ID: strconv.FormatInt(page.ID, 10), Slug: record.Slug()}
	names := []string{booklet.IDContentFile(stored.ID)}
	// Percent-encoded or non-ASCII slugs stay out of file names.
	if slug.IsValid(stored.Slug) && stored.Slug != stored.ID {
		names = append(names, booklet.SlugContentFile(stored.Slug))
	}
	for _, name := range names {
		if err := f.writeRecord(name, record); err != nil {
			return nil, err
		}
		stored.Files = append(stored.Files, name)
	}
	return stored, nil
}

// fallback writes the demo record when allowed, otherwise returns cause.
func (f *Fetcher) fallback(result *FetchResult, cause error) (*FetchResult, error) {
	if !f.allowDummy {
		return result, cause
	}
	f.logger.Warn("writing demo content", zap.NamedError("cause", cause))

	name := booklet.SlugContentFile(DemoSlug)
	if err := f.writeRecord(name, DemoRecord()); err != nil {
		return result, err
	}
	idmap := booklet.NewIdentifierMap()
	idmap.Add(DemoID, DemoSlug)
	if err := idmap.Save(filepath.Join(f.dir, booklet.IdentifierMapFile)); err != nil {
		return result, fmt.Errorf("saving identifier map: %w", err)
	}

	result.Dummy = true
	result.Pages = append(result.Pages, FetchedPage{ID: DemoID, Slug: DemoSlug, Files: []string{name}})
	return result, nil
}

func (f *Fetcher) writeRecord(name string, record booklet.RawRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(f.dir, name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// DemoRecord is a two-photo page that builds without network access.
func DemoRecord() booklet.RawRecord {
	return booklet.RawRecord{
		"id":       json.Number(DemoID),
		"slug":     DemoSlug,
		"template": booklet.TypeTextPhoto2,
		"title":    "Demo Booklet",
		"content":  "これはダミーの本文です（CIブートストラップ用）。",
		"photo1":   map[string]any{"url": booklet.PlaceholderImage},
		"caption1": "写真1のキャプション（ダミー）",
		"photo2":   map[string]any{"url": booklet.PlaceholderImage},
		"caption2": "写真2のキャプション（ダミー）",
	}
}

// ParseIDs splits a comma or whitespace separated id list.
func ParseIDs(s string) []string {
	return cleanIDs(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}))
}

func cleanIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
