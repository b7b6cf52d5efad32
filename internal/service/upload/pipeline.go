package upload

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
	"gauntlet/internal/domain/services"
)

// Progress milestones of a successful upload
const (
	ProgressStarted  = 10
	ProgressStoring  = 25
	ProgressStored   = 75
	ProgressComplete = 100
)

// Options wires the pipeline's collaborators
type Options struct {
	Storage    services.ObjectStorage
	UserQueue  repositories.FileQueueRepository // nil disables queueing for users
	GuestQueue repositories.FileQueueRepository
	Settings   services.SettingsService
	Dispatcher services.WebhookDispatcher
	Validator  *Validator
	Colors     []string
	// Concurrency bounds parallel uploads per request; 0 means one goroutine per file
	Concurrency int
}

// Pipeline implements services.UploadPipeline.
//
// Each accepted file moves uploading -> complete or uploading -> error.
// Queue recording and the file-processing webhook are best effort: their
// failures are logged and the file still completes.
type Pipeline struct {
	opts     Options
	trackers trackers
	now      func() time.Time
	pick     func(n int) int
	logger   *slog.Logger
}

// NewPipeline creates an upload pipeline
func NewPipeline(opts Options, logger *slog.Logger) *Pipeline {
	if len(opts.Colors) == 0 {
		opts.Colors = []string{"soul"}
	}
	return &Pipeline{
		opts:   opts,
		now:    time.Now,
		pick:   rand.IntN,
		logger: logger,
	}
}

var _ services.UploadPipeline = (*Pipeline)(nil)

// job pairs a tracked entry with its content
type job struct {
	id          string
	input       services.UploadInput
	path        string
	contentType string
}

// Upload validates every file, then runs accepted files concurrently.
// It returns after every accepted file reached a final state.
func (p *Pipeline) Upload(ctx context.Context, owner models.Identity, files []services.UploadInput) (*services.UploadBatch, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", domain.ErrValidation)
	}

	tracker := p.trackers.forOwner(owner.OwnerKey())
	batch := &services.UploadBatch{
		Files:    make([]models.UploadingFile, 0, len(files)),
		Rejected: make([]services.Rejection, 0),
	}

	jobs := make([]job, 0, len(files))
	for _, in := range files {
		if reason := p.opts.Validator.Check(in.Filename, in.ContentType, in.Size); reason != "" {
			batch.Rejected = append(batch.Rejected, services.Rejection{Filename: in.Filename, Reason: reason})
			p.logger.Info("upload rejected", "owner", owner.OwnerKey(), "filename", in.Filename, "reason", reason)
			continue
		}

		entry := models.UploadingFile{
			ID:          uuid.NewString(),
			Filename:    in.Filename,
			ContentType: p.opts.Validator.ResolveContentType(in.Filename, in.ContentType),
			Size:        in.Size,
			Status:      models.UploadStatusUploading,
			Color:       p.opts.Colors[p.pick(len(p.opts.Colors))],
			CreatedAt:   p.now(),
		}
		tracker.Add(entry)
		jobs = append(jobs, job{
			id:          entry.ID,
			input:       in,
			path:        StoragePath(owner, entry.ID, in.Filename),
			contentType: entry.ContentType,
		})
	}

	var g errgroup.Group
	if p.opts.Concurrency > 0 {
		g.SetLimit(p.opts.Concurrency)
	}
	for _, j := range jobs {
		g.Go(func() error {
			p.process(ctx, owner, tracker, j)
			return nil
		})
	}
	// process never returns an error; failures end up on the entry
	_ = g.Wait()

	for _, j := range jobs {
		if f, ok := tracker.Get(j.id); ok {
			batch.Files = append(batch.Files, f)
		}
	}

	return batch, nil
}

// process runs one file through storage, queue and webhook
func (p *Pipeline) process(ctx context.Context, owner models.Identity, tracker *Tracker, j job) {
	setProgress := func(progress int) {
		tracker.Update(j.id, func(f *models.UploadingFile) { f.Progress = progress })
	}

	setProgress(ProgressStarted)
	setProgress(ProgressStoring)

	if err := p.opts.Storage.Upload(ctx, j.path, j.contentType, j.input.Content); err != nil {
		message := FriendlyStorageError(err)
		p.logger.Error("upload failed",
			"owner", owner.OwnerKey(),
			"path", j.path,
			"error", err,
		)
		tracker.Update(j.id, func(f *models.UploadingFile) {
			f.Progress = 0
			f.Status = models.UploadStatusError
			f.Error = message
		})
		return
	}

	downloadURL := p.opts.Storage.PublicURL(j.path)
	tracker.Update(j.id, func(f *models.UploadingFile) {
		f.Progress = ProgressStored
		f.StoragePath = j.path
		f.DownloadURL = downloadURL
	})

	notified := p.queueAndNotify(ctx, owner, j, downloadURL)

	tracker.Update(j.id, func(f *models.UploadingFile) {
		f.Progress = ProgressComplete
		f.Status = models.UploadStatusComplete
		f.Notified = notified
	})

	p.logger.Info("upload complete",
		"owner", owner.OwnerKey(),
		"path", j.path,
		"size", j.input.Size,
		"webhook_notified", notified,
	)
}

// queueAndNotify records the file and, only if that worked, calls the
// file-processing webhook. Reports whether the webhook accepted the file.
func (p *Pipeline) queueAndNotify(ctx context.Context, owner models.Identity, j job, downloadURL string) bool {
	queue := p.opts.UserQueue
	if owner.Guest {
		queue = p.opts.GuestQueue
	}
	if queue == nil {
		p.logger.Debug("file queue not configured, skipping webhook", "path", j.path)
		return false
	}

	record := &models.QueuedFile{
		OwnerID:          owner.ID,
		StoragePath:      j.path,
		OriginalFilename: j.input.Filename,
		CreatedAt:        p.now(),
	}
	if err := queue.Record(ctx, record); err != nil {
		p.logger.Error("failed to record file in queue", "path", j.path, "error", err)
		return false
	}

	settings, err := p.opts.Settings.GetSettings(ctx, owner)
	if err != nil {
		p.logger.Error("failed to load settings for file webhook", "owner", owner.OwnerKey(), "error", err)
		return false
	}
	if settings.FileProcessingWebhook == "" {
		p.logger.Debug("file processing webhook not configured", "owner", owner.OwnerKey())
		return false
	}

	payload := services.FilePayload{
		StoragePath:      j.path,
		OriginalFilename: j.input.Filename,
		DownloadURL:      downloadURL,
	}
	if err := p.opts.Dispatcher.Notify(ctx, settings.FileProcessingWebhook, payload); err != nil {
		p.logger.Error("file processing webhook failed", "path", j.path, "error", err)
		return false
	}

	return true
}

// List returns the owner's tracked uploads, oldest first
func (p *Pipeline) List(owner models.Identity) []models.UploadingFile {
	return p.trackers.forOwner(owner.OwnerKey()).List()
}

// Remove drops a tracked upload from the list
func (p *Pipeline) Remove(owner models.Identity, id string) error {
	return p.trackers.forOwner(owner.OwnerKey()).Remove(id)
}

var unsafeNameChars = strings.NewReplacer("/", "_", "\\", "_")

// StoragePath builds "<owner>/<file id>-<filename>". Guest folders carry a
// "guest-" prefix so they never collide with user ids.
func StoragePath(owner models.Identity, fileID, filename string) string {
	folder := owner.ID
	if owner.Guest {
		folder = "guest-" + owner.ID
	}
	return path.Join(folder, fileID+"-"+unsafeNameChars.Replace(filename))
}

// FriendlyStorageError maps known storage failures to user-facing text
func FriendlyStorageError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "bucket not found"):
		return "Storage bucket not found. Please contact support."
	case strings.Contains(msg, "JWT"):
		return "Session expired. Please sign in again."
	default:
		return msg
	}
}
