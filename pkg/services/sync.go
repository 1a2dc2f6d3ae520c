package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/appstore"
	"github.com/yuantang/AppReviewMontior/pkg/classifier"
	"github.com/yuantang/AppReviewMontior/pkg/config"
	"github.com/yuantang/AppReviewMontior/pkg/models"
	"github.com/yuantang/AppReviewMontior/pkg/notify"
	"github.com/yuantang/AppReviewMontior/pkg/repositories"
)

// Window is the [start, end] instant range used to admit fetched reviews by
// creation date. Nil bounds mean unbounded on that side.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Unbounded reports whether the window admits everything.
func (w Window) Unbounded() bool {
	return w.Start == nil && w.End == nil
}

// SyncOptions governs a single orchestrator invocation. Zero ids mean no
// filtering; Unbounded disables the date window entirely (the "all" literal
// on the trigger surface).
type SyncOptions struct {
	StartDate *time.Time
	EndDate   *time.Time
	Unbounded bool
	AccountID int64
	AppID     int64
}

// RunStats aggregates one run's counters across all accounts and apps.
type RunStats struct {
	Processed int `json:"processed"`
	New       int `json:"new"`
	Errors    int `json:"errors"`
}

// SyncPolicy holds the reconciliation policy knobs resolved from config.
type SyncPolicy struct {
	DefaultWindowDays int
	PaginationPolicy  string // config.PaginationFull or config.PaginationEarlyStop
	NotifyThreshold   int    // fallback when the settings table has no row
	EscalationTopics  []string
}

// TokenSource mints one bearer token per account, cached for a run.
type TokenSource interface {
	Token(account *models.Account) (string, error)
}

// ReviewFetcher retrieves one page of reviews from the vendor.
type ReviewFetcher interface {
	FetchPage(ctx context.Context, appStoreID, token, cursor string) (*appstore.FetchResult, error)
}

// SyncService runs the review synchronization and reconciliation pipeline.
type SyncService interface {
	// Run executes one sync across the selected accounts and apps.
	// Only configuration-level failures return an error; account- and
	// app-scoped faults are absorbed into the stats and the audit log.
	Run(ctx context.Context, opts SyncOptions) (*RunStats, error)
}

type syncService struct {
	accountRepo  repositories.AccountRepository
	appRepo      repositories.AppRepository
	reviewRepo   repositories.ReviewRepository
	syncLogRepo  repositories.SyncLogRepository
	settingsRepo repositories.SettingsRepository
	fetcher      ReviewFetcher
	classifier   classifier.Classifier
	notifier     notify.Notifier
	newTokens    func() TokenSource
	policy       SyncPolicy
	logger       *zap.Logger
}

// NewSyncService creates the sync orchestrator. newTokens must return a
// fresh TokenSource per call: the token cache is run-scoped state, never
// shared across runs.
func NewSyncService(
	accountRepo repositories.AccountRepository,
	appRepo repositories.AppRepository,
	reviewRepo repositories.ReviewRepository,
	syncLogRepo repositories.SyncLogRepository,
	settingsRepo repositories.SettingsRepository,
	fetcher ReviewFetcher,
	cls classifier.Classifier,
	notifier notify.Notifier,
	newTokens func() TokenSource,
	policy SyncPolicy,
	logger *zap.Logger,
) SyncService {
	policy.EscalationTopics = ensureCrashTopic(policy.EscalationTopics)
	return &syncService{
		accountRepo:  accountRepo,
		appRepo:      appRepo,
		reviewRepo:   reviewRepo,
		syncLogRepo:  syncLogRepo,
		settingsRepo: settingsRepo,
		fetcher:      fetcher,
		classifier:   cls,
		notifier:     notifier,
		newTokens:    newTokens,
		policy:       policy,
		logger:       logger.Named("sync"),
	}
}

var _ SyncService = (*syncService)(nil)

// ensureCrashTopic guarantees the crash escalation floor regardless of how
// the topic list was configured.
func ensureCrashTopic(topics []string) []string {
	for _, t := range topics {
		if t == "crash" {
			return topics
		}
	}
	return append(append([]string{}, topics...), "crash")
}

// run holds the state owned by one orchestrator invocation. Constructed at
// the start of Run and discarded at the end; nothing here survives a run.
type run struct {
	id         uuid.UUID
	window     Window
	tokens     TokenSource
	webhookURL string
	threshold  int
	stats      RunStats
	logger     *zap.Logger
}

// Run executes one end-to-end sync.
func (s *syncService) Run(ctx context.Context, opts SyncOptions) (*RunStats, error) {
	r := &run{
		id:     uuid.New(),
		window: s.resolveWindow(opts),
		tokens: s.newTokens(),
	}
	r.logger = s.logger.With(zap.String("run_id", r.id.String()))

	r.webhookURL, r.threshold = s.loadNotifySettings(ctx, r)

	apps, err := s.selectApps(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		r.logger.Info("No apps selected, nothing to sync")
		return &r.stats, nil
	}

	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	appsByAccount := make(map[int64][]*models.App)
	for _, app := range apps {
		appsByAccount[app.AccountID] = append(appsByAccount[app.AccountID], app)
	}

	r.logger.Info("Starting sync run",
		zap.Int("apps", len(apps)),
		zap.Bool("unbounded_window", r.window.Unbounded()))

	for _, account := range accounts {
		accountApps := appsByAccount[account.ID]
		if len(accountApps) == 0 {
			continue
		}
		delete(appsByAccount, account.ID)
		s.syncAccount(ctx, r, account, accountApps)
	}

	// Apps whose owning account row is gone cannot be synced.
	for accountID, orphaned := range appsByAccount {
		r.logger.Warn("Skipping apps with missing owner account",
			zap.Int64("account_id", accountID),
			zap.Int("apps", len(orphaned)))
		r.stats.Errors++
	}

	r.logger.Info("Sync run finished",
		zap.Int("processed", r.stats.Processed),
		zap.Int("new", r.stats.New),
		zap.Int("errors", r.stats.Errors))

	return &r.stats, nil
}

// syncAccount reconciles all of one account's selected apps and writes
// exactly one audit row, success or failed, for this run.
func (s *syncService) syncAccount(ctx context.Context, r *run, account *models.Account, apps []*models.App) {
	logger := r.logger.With(zap.Int64("account_id", account.ID), zap.String("account", account.Name))

	token, err := r.tokens.Token(account)
	if err != nil {
		// Account-scoped failure: skip all of this account's apps, log
		// the failure, continue the run with other accounts.
		logger.Error("Failed to obtain App Store token", zap.Error(err))
		r.stats.Errors++
		s.writeSyncLog(ctx, logger, &models.SyncLog{
			AccountID: account.ID,
			Status:    models.SyncStatusFailed,
			Message:   err.Error(),
		})
		return
	}

	accountNew := 0
	failedApps := 0
	for _, app := range apps {
		newCount, err := s.reconcileApp(ctx, r, app, token)
		if err != nil {
			// App-scoped failure: the account's other apps still proceed.
			logger.Error("Failed to sync app",
				zap.Int64("app_id", app.ID),
				zap.String("app", app.Name),
				zap.Error(err))
			r.stats.Errors++
			failedApps++
			continue
		}
		accountNew += newCount
	}

	message := fmt.Sprintf("Synced %d apps successfully.", len(apps))
	if failedApps > 0 {
		message = fmt.Sprintf("Synced %d apps (%d failed).", len(apps), failedApps)
	}

	s.writeSyncLog(ctx, logger, &models.SyncLog{
		AccountID:       account.ID,
		Status:          models.SyncStatusSuccess,
		Message:         message,
		NewReviewsCount: accountNew,
	})
}

// reconcileApp fetches the app's reviews and applies the minimal set of
// writes to make stored state consistent: new items are classified and
// inserted, vendor-flagged edits are re-classified and replaced, everything
// else is an idempotent no-op. Returns the count of newly ingested reviews.
func (s *syncService) reconcileApp(ctx context.Context, r *run, app *models.App, token string) (int, error) {
	logger := r.logger.With(zap.Int64("app_id", app.ID), zap.String("app", app.Name))
	logger.Debug("Reconciling app", zap.String("app_store_id", app.AppStoreID))

	items, err := s.fetchAll(ctx, r, app.AppStoreID, token)
	if err != nil {
		return 0, err
	}

	newCount := 0
	for _, item := range items {
		if !r.window.Contains(item.Attributes.CreatedDate) {
			continue
		}
		r.stats.Processed++

		lookup, err := s.reviewRepo.FindByReviewID(ctx, item.ID)
		if err != nil {
			return newCount, err
		}

		// Present and not vendor-flagged as edited: immutable to the
		// pipeline. The stored flag is authoritative, not content diffing.
		if lookup != nil && !lookup.IsEdited {
			continue
		}

		isNew := lookup == nil
		attr := item.Attributes

		analysis := s.classifier.Classify(ctx, attr.Title, attr.Body, attr.Rating)

		review := &models.Review{
			AppID:          app.ID,
			ReviewID:       item.ID,
			UserName:       attr.ReviewerNickname,
			Title:          attr.Title,
			Body:           attr.Body,
			Rating:         attr.Rating,
			Territory:      attr.Territory,
			IsEdited:       false, // reset: this sighting is now reconciled
			CreatedAtStore: attr.CreatedDate,
			Sentiment:      analysis.Sentiment,
			Topics:         analysis.Topics,
			NeedReply:      s.needsReply(attr.Rating, analysis.Topics),
		}

		if err := s.reviewRepo.Upsert(ctx, review); err != nil {
			return newCount, err
		}

		if isNew {
			newCount++
			r.stats.New++
			if attr.Rating <= r.threshold {
				s.notifier.Notify(ctx, r.webhookURL, review, app.Name)
			}
		}
	}

	logger.Debug("App reconciled",
		zap.Int("fetched", len(items)),
		zap.Int("new", newCount))

	return newCount, nil
}

// fetchAll paginates the app's review collection. Under the full policy it
// always paginates to exhaustion; under early-stop it halts at the first
// page whose oldest item predates the window start, accepting that edits to
// very old reviews may be missed.
func (s *syncService) fetchAll(ctx context.Context, r *run, appStoreID, token string) ([]appstore.ReviewItem, error) {
	var items []appstore.ReviewItem
	cursor := ""

	for {
		page, err := s.fetcher.FetchPage(ctx, appStoreID, token, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if page.NextCursor == "" {
			break
		}
		if s.shouldStopEarly(r.window, page.Items) {
			break
		}
		cursor = page.NextCursor
	}

	return items, nil
}

// shouldStopEarly applies the early-stop pagination policy: pages arrive
// newest-first, so once a page's oldest item predates the window start no
// later page can contain an in-window creation date.
func (s *syncService) shouldStopEarly(window Window, pageItems []appstore.ReviewItem) bool {
	if s.policy.PaginationPolicy != config.PaginationEarlyStop {
		return false
	}
	if window.Start == nil || len(pageItems) == 0 {
		return false
	}
	oldest := pageItems[len(pageItems)-1].Attributes.CreatedDate
	return oldest.Before(*window.Start)
}

// needsReply derives the human-attention flag: low ratings always escalate,
// as do the configured escalation topics (crash at minimum).
func (s *syncService) needsReply(rating int, topics []string) bool {
	if rating <= 2 {
		return true
	}
	for _, topic := range topics {
		for _, escalation := range s.policy.EscalationTopics {
			if topic == escalation {
				return true
			}
		}
	}
	return false
}

// resolveWindow computes the effective date window for a run: unbounded if
// requested, explicit bounds if given, else the rolling default window.
func (s *syncService) resolveWindow(opts SyncOptions) Window {
	if opts.Unbounded {
		return Window{}
	}
	if opts.StartDate != nil || opts.EndDate != nil {
		return Window{Start: opts.StartDate, End: opts.EndDate}
	}
	start := time.Now().AddDate(0, 0, -s.policy.DefaultWindowDays)
	return Window{Start: &start}
}

// selectApps resolves which apps this run covers: exactly one app, one
// account's apps, or everything.
func (s *syncService) selectApps(ctx context.Context, opts SyncOptions) ([]*models.App, error) {
	switch {
	case opts.AppID != 0:
		app, err := s.appRepo.GetByID(ctx, opts.AppID)
		if err != nil {
			return nil, fmt.Errorf("load app %d: %w", opts.AppID, err)
		}
		return []*models.App{app}, nil
	case opts.AccountID != 0:
		apps, err := s.appRepo.ListByAccount(ctx, opts.AccountID)
		if err != nil {
			return nil, fmt.Errorf("load apps for account %d: %w", opts.AccountID, err)
		}
		return apps, nil
	default:
		apps, err := s.appRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("load apps: %w", err)
		}
		return apps, nil
	}
}

// loadNotifySettings reads the operator settings row, falling back to the
// configured defaults when it is absent or unreadable.
func (s *syncService) loadNotifySettings(ctx context.Context, r *run) (string, int) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		r.logger.Warn("Failed to load settings, notifications disabled for this run", zap.Error(err))
		return "", s.policy.NotifyThreshold
	}
	if settings == nil {
		return "", s.policy.NotifyThreshold
	}
	threshold := settings.NotifyThreshold
	if threshold <= 0 {
		threshold = s.policy.NotifyThreshold
	}
	return settings.WebhookURL, threshold
}

// writeSyncLog appends the account's audit row. A failed write is logged
// but does not fail the run: the reconciled reviews are already committed.
func (s *syncService) writeSyncLog(ctx context.Context, logger *zap.Logger, entry *models.SyncLog) {
	if err := s.syncLogRepo.Insert(ctx, entry); err != nil {
		logger.Error("Failed to write sync log entry", zap.Error(err))
		return
	}
	logger.Info("Sync log written",
		zap.String("status", entry.Status),
		zap.Int("new_reviews", entry.NewReviewsCount))
}
