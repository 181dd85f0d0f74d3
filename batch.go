package booklet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-wpbooklet/internal/fileutil"
)

// TaskStatus is the outcome of one batch task.
type TaskStatus string

const (
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskSkipped   TaskStatus = "skipped" // same content file as an earlier task
)

// BatchTask is one identifier to build.
type BatchTask struct {
	Identifier string
	Template   string
}

// TaskResult is the outcome of one task. Results keep task order.
type TaskResult struct {
	Task   BatchTask
	Status TaskStatus
	Result *BuildResult
	Err    error
	// DuplicateOf names the identifier that already covers this content.
	DuplicateOf string
	// AliasPath is the booklet-<id>.pdf copy written for a skipped numeric
	// identifier, "" when none was needed or the first build failed.
	AliasPath string
}

// BatchSummary aggregates a run.
type BatchSummary struct {
	RunID     string
	Results   []TaskResult
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Err returns nil when every task succeeded or was skipped, otherwise an
// error counting the failures.
func (s *BatchSummary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	errs := make([]error, 0, s.Failed)
	for _, r := range s.Results {
		if r.Status == TaskFailed {
			errs = append(errs, r.Err)
		}
	}
	return fmt.Errorf("%d of %d booklets failed: %w", s.Failed, len(s.Results), errors.Join(errs...))
}

// batchJob pairs a task with its resolution and output slot.
type batchJob struct {
	index int
	task  BatchTask
	res   Resolution
}

// RunBatch builds every task with the builder's worker count. Tasks run
// to completion regardless of sibling failures; only ctx cancels them.
// Each task renders into its own index-<uuid>.html so tasks never share an
// intermediate file. Tasks resolving to the same artifact are built once;
// a skipped numeric identifier still gets its booklet-<id>.pdf copy.
func (b *Builder) RunBatch(ctx context.Context, tasks []BatchTask) *BatchSummary {
	start := b.now()
	runID := uuid.NewString()
	log := b.logger.With(zap.String("run_id", runID))

	summary := &BatchSummary{RunID: runID, Results: make([]TaskResult, len(tasks))}
	var jobs []batchJob
	var skipped []batchJob
	seen := make(map[string]int) // artifact → index of the first task

	for i, task := range tasks {
		summary.Results[i].Task = task
		res, err := b.resolver.Resolve(task.Identifier)
		if err != nil {
			summary.Results[i].Status = TaskFailed
			summary.Results[i].Err = &BuildError{Identifier: task.Identifier, Stage: StageResolve, Err: err}
			continue
		}
		key := res.ArtifactName()
		if first, dup := seen[key]; dup {
			summary.Results[i].Status = TaskSkipped
			summary.Results[i].DuplicateOf = tasks[first].Identifier
			log.Info("skipping duplicate", zap.String("identifier", task.Identifier), zap.String("duplicate_of", tasks[first].Identifier))
			skipped = append(skipped, batchJob{index: i, task: task, res: res})
			continue
		}
		seen[key] = i
		jobs = append(jobs, batchJob{index: i, task: task, res: res})
	}

	workers := min(b.concurrency, len(jobs))
	log.Info("batch started", zap.Int("tasks", len(tasks)), zap.Int("jobs", len(jobs)), zap.Int("workers", workers))

	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				j := jobs[idx]
				summary.Results[j.index] = b.runJob(ctx, j)
			}
		}()
	}
	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	for _, j := range skipped {
		if !j.res.NeedsAlias() {
			continue
		}
		first := summary.Results[seen[j.res.ArtifactName()]]
		if first.Status != TaskSucceeded || first.Result == nil || first.Result.PDFPath == "" {
			continue
		}
		if err := b.writeAlias(first.Result.PDFPath, j.res, &summary.Results[j.index]); err != nil {
			log.Error("alias copy failed", zap.String("identifier", j.task.Identifier), zap.Error(err))
		}
	}

	for _, r := range summary.Results {
		switch r.Status {
		case TaskSucceeded:
			summary.Succeeded++
		case TaskFailed:
			summary.Failed++
			log.Error("booklet failed", zap.String("identifier", r.Task.Identifier), zap.Error(r.Err))
		case TaskSkipped:
			summary.Skipped++
		}
	}
	summary.Duration = b.now().Sub(start)
	log.Info("batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration))
	return summary
}

// writeAlias copies an already built PDF to the id-keyed name of a skipped
// task. A failed copy turns the task into a failure.
func (b *Builder) writeAlias(pdfPath string, res Resolution, tr *TaskResult) error {
	aliasPath := filepath.Join(b.outputDir, res.AliasName())
	if err := fileutil.CopyFile(pdfPath, aliasPath); err != nil {
		tr.Status = TaskFailed
		tr.Err = &BuildError{Identifier: res.Identifier, Stage: StageAlias, Err: err}
		return err
	}
	tr.AliasPath = aliasPath
	return nil
}

// runJob builds one task, each worker writing a distinct result slot.
func (b *Builder) runJob(ctx context.Context, j batchJob) (tr TaskResult) {
	tr.Task = j.task
	defer func() {
		if r := recover(); r != nil {
			tr.Status = TaskFailed
			tr.Err = &BuildError{Identifier: j.task.Identifier, Stage: "internal", Err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		tr.Status = TaskFailed
		tr.Err = &BuildError{Identifier: j.task.Identifier, Stage: StageResolve, Err: err}
		return tr
	}

	req := BuildRequest{
		Identifier: j.task.Identifier,
		Template:   j.task.Template,
		HTMLFile:   "index-" + uuid.NewString() + ".html",
		RemoveHTML: !b.keepHTML,
	}
	result, err := b.buildResolved(ctx, req, j.res, b.now())
	if err != nil {
		tr.Status = TaskFailed
		tr.Err = err
		return tr
	}
	tr.Status = TaskSucceeded
	tr.Result = result
	return tr
}

// Discover lists the identifiers content files answer to, in listing
// order: content-id-42.json gives "42", content-about.json gives "about".
// content.json is not an identifier and is left out.
func (b *Builder) Discover() ([]BatchTask, error) {
	names, err := b.source.List()
	if err != nil {
		return nil, err
	}
	var tasks []BatchTask
	for _, name := range names {
		if id, ok := identifierFromFileName(name); ok {
			tasks = append(tasks, BatchTask{Identifier: id})
		}
	}
	return tasks, nil
}
