package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"photomerge/internal/dedup"
	"photomerge/internal/fileutil"
	"photomerge/internal/journal"
	"photomerge/internal/logging"
	"photomerge/internal/sidecar"
	"photomerge/internal/tagcodec"
	"photomerge/internal/takeout"
)

// Journal receives run and item records. *journal.Store satisfies it.
type Journal interface {
	StartRun(ctx context.Context, id string, archives []string, outputDir string, dryRun bool) (*journal.Run, error)
	FinishRun(ctx context.Context, id string, status journal.RunStatus, runErr error) error
	Record(ctx context.Context, item journal.Item) (int64, error)
}

// Options describes one run.
type Options struct {
	Archives  []string
	OutputDir string
	// RunID identifies the run in logs and the journal. Empty generates one.
	RunID  string
	DryRun bool
	// SaveEvery persists the dedup store after this many written items.
	// Zero saves only at the end of the run.
	SaveEvery         int
	FoldExtensionCase bool
	MaxSidecarBytes   int64
	MaxIndexBytes     int64
	LocationSource    string
	// KeepEmbeddedGPS omits GPS tags for content that already carries them.
	KeepEmbeddedGPS bool
}

// Merger runs merges against one dedup store. It is not safe for
// concurrent use.
type Merger struct {
	store   *dedup.Store
	codec   tagcodec.Codec
	journal Journal
	logger  *slog.Logger
}

// New returns a Merger. journal may be nil to skip run recording.
func New(store *dedup.Store, codec tagcodec.Codec, j Journal, logger *slog.Logger) *Merger {
	if codec == nil {
		codec = tagcodec.Passthrough{}
	}
	return &Merger{
		store:   store,
		codec:   codec,
		journal: j,
		logger:  logging.NewComponentLogger(logger, "merge"),
	}
}

type itemResult struct {
	outcome journal.Outcome
	hash    string
	output  string
	detail  string
}

type run struct {
	*Merger
	opts    Options
	set     *takeout.Set
	placer  *placer
	logger  *slog.Logger
	report  Report
	pending int
}

// Run merges every pair in opts.Archives into opts.OutputDir.
//
// A missing sidecar or an item-level failure is logged, journaled and
// skipped. Archive read failures end the run with an error. Cancelling ctx
// stops the run between items; the store is still saved and the report
// marks the run as interrupted.
func (m *Merger) Run(ctx context.Context, opts Options) (report Report, err error) {
	started := time.Now()
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, opts.RunID)
	r := &run{
		Merger: m,
		opts:   opts,
		placer: newPlacer(opts.OutputDir),
		logger: logging.WithContext(ctx, m.logger),
		report: Report{RunID: opts.RunID, DryRun: opts.DryRun},
	}

	if m.journal != nil {
		if _, err := m.journal.StartRun(context.WithoutCancel(ctx), opts.RunID, opts.Archives, opts.OutputDir, opts.DryRun); err != nil {
			return r.report, fmt.Errorf("journal run start: %w", err)
		}
		defer func() {
			// The run context may already be cancelled; the final status must
			// still be written.
			finishCtx := context.WithoutCancel(ctx)
			if ferr := m.journal.FinishRun(finishCtx, opts.RunID, report.Status(err), err); ferr != nil {
				r.logger.Warn("journal run finish failed", logging.Error(ferr))
			}
		}()
	}

	r.logger.Info("merge started",
		logging.Int("archives", len(opts.Archives)),
		logging.String(logging.FieldOutput, opts.OutputDir),
		logging.Bool("dry_run", opts.DryRun))

	runErr := r.drain(ctx)
	if saveErr := r.save(true); saveErr != nil {
		runErr = errors.Join(runErr, saveErr)
	}

	r.report.Duration = time.Since(started)
	if r.set != nil {
		r.report.Archive = r.set.Stats()
	}
	attrs := []logging.Attr{
		logging.Int("written", r.report.Written),
		logging.Int("duplicates", r.report.Duplicates),
		logging.Int("metadata_missing", r.report.Missing),
		logging.Int("failed", r.report.Failed),
		logging.Duration("duration", r.report.Duration),
	}
	switch {
	case runErr != nil:
		logging.ErrorWithContext(r.logger, "merge failed", "merge_failed",
			append(attrs, logging.Error(runErr), logging.Alert("merge_failed"),
				logging.String(logging.FieldErrorHint, "check the archive named in the error; already written files are kept"))...)
	case r.report.Interrupted:
		logging.WarnWithContext(r.logger, "merge interrupted", "merge_interrupted",
			append(attrs,
				logging.String(logging.FieldErrorHint, "rerun the same command; written items are skipped as duplicates"),
				logging.String(logging.FieldImpact, "remaining items were not processed"))...)
	default:
		r.logger.Info("merge finished", logging.Args(attrs...)...)
	}
	r.logger.Debug("archive stats", logging.Any("stats", r.report.Archive))
	return r.report, runErr
}

func (r *run) drain(ctx context.Context) error {
	set, err := takeout.Open(r.opts.Archives, takeout.Options{
		FoldExtensionCase: r.opts.FoldExtensionCase,
		MaxSidecarBytes:   r.opts.MaxSidecarBytes,
		MaxIndexBytes:     r.opts.MaxIndexBytes,
		Logger:            r.logger,
	})
	if err != nil {
		return err
	}
	r.set = set
	defer func() {
		if cerr := set.Close(); cerr != nil {
			r.logger.Warn("closing archives failed", logging.Error(cerr))
		}
	}()

	for {
		if ctx.Err() != nil {
			r.report.Interrupted = true
			return nil
		}
		pair, err := set.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var missing *takeout.MetadataMissingError
		if errors.As(err, &missing) {
			logging.WarnWithContext(r.logger, "no metadata sidecar for entry", "metadata_missing",
				logging.String(logging.FieldEntry, missing.Name),
				logging.String(logging.FieldArchive, missing.Archive),
				logging.String(logging.FieldErrorHint, "the item is left out; check whether the export is complete"))
			r.record(ctx, missing.Archive, missing.Name, itemResult{outcome: journal.OutcomeMetadataMissing})
			continue
		}
		if err != nil {
			return err
		}

		archive := set.ArchivePath(pair.Content.Archive)
		res, err := r.process(ctx, pair)
		if err != nil {
			return err
		}
		r.record(ctx, archive, pair.Content.Name, res)
		if res.outcome == journal.OutcomeWritten {
			r.pending++
			if r.opts.SaveEvery > 0 && r.pending >= r.opts.SaveEvery {
				if err := r.save(false); err != nil {
					return err
				}
			}
		}
	}
}

// process handles one pair. A returned error is fatal for the run;
// item-level problems come back as an OutcomeFailed result.
func (r *run) process(ctx context.Context, pair takeout.Pair) (itemResult, error) {
	ctx = logging.WithArchive(ctx, r.set.ArchivePath(pair.Content.Archive))
	logger := logging.WithContext(ctx, r.Merger.logger).With(
		logging.String(logging.FieldEntry, pair.Content.Name))
	fail := func(msg, hint string, err error) (itemResult, error) {
		logging.WarnWithContext(logger, msg, "item_failed",
			logging.Error(err), logging.String(logging.FieldErrorHint, hint))
		return itemResult{outcome: journal.OutcomeFailed, detail: err.Error()}, nil
	}

	content, metadata, err := r.set.Extract(pair)
	if errors.Is(err, takeout.ErrSidecarTooLarge) {
		return fail("sidecar too large", "raise archive.max_sidecar_bytes if the sidecar is legitimate", err)
	}
	if err != nil {
		return itemResult{}, err
	}
	defer content.Close()
	defer metadata.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return itemResult{}, &takeout.ArchiveError{
			Path: r.set.ArchivePath(pair.Content.Archive),
			Op:   "extract",
			Err:  fmt.Errorf("%s: %w", pair.Content.Name, err),
		}
	}

	hash := dedup.HashBytes(data)
	if existing, ok := r.store.Location(hash); ok {
		logger.Debug("duplicate content skipped",
			logging.String(logging.FieldHash, hash),
			logging.String("existing", existing))
		return itemResult{outcome: journal.OutcomeDuplicate, hash: hash, detail: existing}, nil
	}

	meta, err := sidecar.Decode(metadata)
	if err != nil {
		return fail("sidecar unreadable", "inspect the sidecar JSON in the archive", err)
	}

	derive := tagcodec.DeriveOptions{LocationSource: r.opts.LocationSource}
	if r.opts.KeepEmbeddedGPS && tagcodec.HasEmbeddedGPS(data) {
		derive.OmitGPS = true
		logger.Debug("keeping embedded gps")
	}
	tags, problems := tagcodec.Derive(meta, derive)
	for _, problem := range problems {
		logging.WarnWithContext(logger, "sidecar field ignored", "sidecar_field_invalid",
			logging.Error(problem),
			logging.String(logging.FieldImpact, "tag omitted from output"),
			logging.String(logging.FieldErrorHint, "inspect the sidecar JSON in the archive"))
	}

	encoded, err := r.codec.Encode(data, tags)
	if err != nil {
		return fail("metadata encoding failed", "try metadata.codec = \"passthrough\"", err)
	}

	dest, err := r.placer.place(pair.Content.Name)
	if err != nil {
		return fail("no output path for entry", "rename the entry or skip it", err)
	}

	if !r.opts.DryRun {
		if err := fileutil.WriteFileAtomic(dest, encoded.Content, 0o644); err != nil {
			return fail("write output failed", "check free space and permissions on the output directory", err)
		}
		for _, extra := range encoded.Sidecars {
			if err := fileutil.WriteFileAtomic(dest+extra.Suffix, extra.Data, 0o644); err != nil {
				return fail("write sidecar failed", "check free space and permissions on the output directory", err)
			}
		}
	}

	if err := r.store.Add(hash, dest); err != nil {
		return itemResult{}, fmt.Errorf("record %s in dedup store: %w", pair.Content.Name, err)
	}
	logger.Info("item written",
		logging.String(logging.FieldOutput, dest),
		logging.String(logging.FieldHash, hash),
		logging.Int("tags", len(tags)),
		logging.Int64("bytes", int64(len(encoded.Content))),
		logging.Bool("dry_run", r.opts.DryRun))
	return itemResult{outcome: journal.OutcomeWritten, hash: hash, output: dest}, nil
}

func (r *run) record(ctx context.Context, archive, entry string, res itemResult) {
	r.report.count(res.outcome)
	if r.journal == nil {
		return
	}
	_, err := r.journal.Record(context.WithoutCancel(ctx), journal.Item{
		RunID:   r.opts.RunID,
		Archive: archive,
		Entry:   entry,
		Hash:    res.hash,
		Outcome: res.outcome,
		Output:  res.output,
		Detail:  res.detail,
	})
	if err != nil {
		r.logger.Warn("journal record failed",
			logging.String(logging.FieldEntry, entry),
			logging.Error(err))
	}
}

// save persists the store unless this is a dry run or nothing changed.
func (r *run) save(final bool) error {
	if r.opts.DryRun || r.pending == 0 || r.store.Path() == "" {
		return nil
	}
	if err := r.store.Save(); err != nil {
		return err
	}
	r.logger.Debug("dedup store saved",
		logging.Int("pending", r.pending),
		logging.Bool("final", final))
	r.pending = 0
	return nil
}
