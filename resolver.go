package booklet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-wpbooklet/internal/fileutil"
)

// Content file naming.
const (
	DefaultContentFile = "content.json"
	contentPrefix      = "content-"
	contentIDPrefix    = "content-id-"
	contentSuffix      = ".json"
)

// SlugContentFile returns "content-<slug>.json".
func SlugContentFile(slug string) string { return contentPrefix + slug + contentSuffix }

// IDContentFile returns "content-id-<id>.json".
func IDContentFile(id string) string { return contentIDPrefix + id + contentSuffix }

// ContentSource is where content files live. Names are bare file names.
type ContentSource interface {
	Exists(name string) bool
	Load(name string) (RawRecord, error)
	// List returns every content-*.json name. The order is the order the
	// title-match heuristic scans candidates in.
	List() ([]string, error)
}

// DirSource serves content files from one directory, listed lexically.
type DirSource struct {
	Dir string
}

// NewDirSource returns a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// Path joins name onto the source directory.
func (s *DirSource) Path(name string) string { return filepath.Join(s.Dir, name) }

func (s *DirSource) Exists(name string) bool { return fileutil.FileExists(s.Path(name)) }

func (s *DirSource) Load(name string) (RawRecord, error) { return LoadRecord(s.Path(name)) }

func (s *DirSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, contentPrefix) && strings.HasSuffix(name, contentSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ResolveStep names the rule that located the content file.
type ResolveStep string

const (
	StepSlugFile   ResolveStep = "slug-file"   // content-<identifier>.json
	StepIDFile     ResolveStep = "id-file"     // content-id-<identifier>.json
	StepMappedSlug ResolveStep = "mapped-slug" // map id→slug, then content-<slug>.json
	StepDefault    ResolveStep = "default"     // content.json
)

// SlugOrigin says where the canonical slug came from.
type SlugOrigin string

const (
	SlugFromIdentifier SlugOrigin = "identifier"
	SlugFromMap        SlugOrigin = "map"
	SlugFromTitle      SlugOrigin = "title"
)

// Resolution is the outcome of resolving one identifier.
type Resolution struct {
	Identifier    string
	ContentFile   string
	CanonicalSlug string
	Step          ResolveStep
	SlugOrigin    SlugOrigin
}

// UsedDefault reports whether the shared content.json was used.
func (r Resolution) UsedDefault() bool { return r.Step == StepDefault }

// ArtifactName is the primary output file, booklet-<slug>.pdf.
func (r Resolution) ArtifactName() string { return "booklet-" + r.CanonicalSlug + ".pdf" }

// NeedsAlias reports whether a numeric identifier should also get a
// booklet-<id>.pdf copy, so links keyed by id keep working.
func (r Resolution) NeedsAlias() bool {
	return isNumeric(r.Identifier) && r.Identifier != r.CanonicalSlug
}

// AliasName is the id-keyed copy, booklet-<id>.pdf.
func (r Resolution) AliasName() string { return "booklet-" + r.Identifier + ".pdf" }

// ValidateIdentifier trims and checks an identifier before it is used in
// file names.
func ValidateIdentifier(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", ErrEmptyIdentifier
	}
	if strings.ContainsAny(identifier, "/\\\x00") || strings.Contains(identifier, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	return identifier, nil
}

// Resolver maps an identifier (page id or slug) to a content file and a
// canonical slug. Safe for concurrent use when the source is.
type Resolver struct {
	source ContentSource
	ids    *IdentifierMap
	logger *zap.Logger
}

// NewResolver creates a Resolver. A nil map behaves as an empty one.
func NewResolver(source ContentSource, ids *IdentifierMap, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, ids: ids, logger: logger}
}

// Resolve applies, first match wins:
//  1. content-<identifier>.json, slug = identifier
//  2. content-id-<identifier>.json, slug from the map, then a title match,
//     then the identifier
//  3. the map's slug for identifier, if content-<slug>.json exists
//  4. content.json, slug = identifier
//
// For a fixed directory and map the result is always the same.
func (r *Resolver) Resolve(identifier string) (Resolution, error) {
	identifier, err := ValidateIdentifier(identifier)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Identifier: identifier}

	if name := SlugContentFile(identifier); r.source.Exists(name) {
		res.ContentFile, res.CanonicalSlug = name, identifier
		res.Step, res.SlugOrigin = StepSlugFile, SlugFromIdentifier
		return res, nil
	}

	if name := IDContentFile(identifier); r.source.Exists(name) {
		res.ContentFile, res.Step = name, StepIDFile
		res.CanonicalSlug, res.SlugOrigin = r.slugForIDFile(identifier, name)
		return res, nil
	}

	if slug, ok := r.ids.SlugFor(identifier); ok {
		if name := SlugContentFile(slug); r.source.Exists(name) {
			res.ContentFile, res.CanonicalSlug = name, slug
			res.Step, res.SlugOrigin = StepMappedSlug, SlugFromMap
			return res, nil
		}
	}

	if r.source.Exists(DefaultContentFile) {
		r.logger.Warn("no content file for identifier, using default",
			zap.String("identifier", identifier),
			zap.String("file", DefaultContentFile))
		res.ContentFile, res.CanonicalSlug = DefaultContentFile, identifier
		res.Step, res.SlugOrigin = StepDefault, SlugFromIdentifier
		return res, nil
	}

	return Resolution{}, fmt.Errorf("%w: %q (tried %s, %s, mapped slug, %s)",
		ErrContentNotFound, identifier,
		SlugContentFile(identifier), IDContentFile(identifier), DefaultContentFile)
}

func (r *Resolver) slugForIDFile(id, idFile string) (string, SlugOrigin) {
	if slug, ok := r.ids.SlugFor(id); ok {
		return slug, SlugFromMap
	}
	if slug, ok := r.matchTitle(idFile); ok {
		return slug, SlugFromTitle
	}
	return id, SlugFromIdentifier
}

// matchTitle finds a slug-keyed content file whose title equals the title
// of idFile. Candidates are scanned in List order and the first match wins;
// duplicate titles are not detected. Records without a title never match.
func (r *Resolver) matchTitle(idFile string) (string, bool) {
	record, err := r.source.Load(idFile)
	if err != nil {
		r.logger.Debug("title match skipped", zap.String("file", idFile), zap.Error(err))
		return "", false
	}
	title := record.Title()
	if title == "" {
		return "", false
	}

	names, err := r.source.List()
	if err != nil {
		r.logger.Debug("title match skipped", zap.Error(err))
		return "", false
	}
	for _, name := range names {
		slug, ok := slugFromFileName(name)
		if !ok {
			continue
		}
		candidate, err := r.source.Load(name)
		if err != nil {
			r.logger.Debug("title match candidate unreadable", zap.String("file", name), zap.Error(err))
			continue
		}
		if candidate.Title() == title {
			r.logger.Info("slug matched by title",
				zap.String("file", idFile),
				zap.String("slug", slug))
			return slug, true
		}
	}
	return "", false
}

// slugFromFileName extracts <slug> from content-<slug>.json, rejecting
// id-keyed files.
func slugFromFileName(name string) (string, bool) {
	if strings.HasPrefix(name, contentIDPrefix) {
		return "", false
	}
	slug, ok := strings.CutPrefix(name, contentPrefix)
	if !ok {
		return "", false
	}
	slug, ok = strings.CutSuffix(slug, contentSuffix)
	return slug, ok && slug != ""
}

// identifierFromFileName returns the identifier a content file answers to:
// content-id-42.json → 42, content-about.json → about.
func identifierFromFileName(name string) (string, bool) {
	if id, ok := strings.CutPrefix(name, contentIDPrefix); ok {
		id, ok = strings.CutSuffix(id, contentSuffix)
		return id, ok && id != ""
	}
	return slugFromFileName(name)
}
