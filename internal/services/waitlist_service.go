package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lovpen/lovpen-server/internal/auditctx"
	"github.com/lovpen/lovpen-server/internal/models"
	"github.com/lovpen/lovpen-server/internal/waitlist"
	"github.com/lovpen/lovpen-server/pkg/logger"
	"github.com/lovpen/lovpen-server/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// OtherSource is the metrics label for sources outside the known set.
	OtherSource = "other"
)

// DefaultSources are the site surfaces that carry their own metrics label.
var DefaultSources = []string{"hero", "pricing", "pricing-pro", "pricing-team", "features", "footer", "cta", "blog", "referral"}

// Waitlist event names delivered to WaitlistEventPublisher.
const (
	EventWaitlistCreated = "waitlist.created"
	EventWaitlistUpdated = "waitlist.updated"
	EventWaitlistDeleted = "waitlist.deleted"
)

// WaitlistEventPublisher receives entry changes, e.g. the admin realtime feed.
type WaitlistEventPublisher interface {
	PublishWaitlistEvent(event string, payload any)
}

// SubmitInput is a validated application from the public form.
type SubmitInput struct {
	Email    string
	Name     string
	Company  *string
	UseCase  *string
	Source   string
	Locale   string
	Metadata map[string]any
}

// ListInput filters and paginates the admin listing.
type ListInput struct {
	Page   int
	Size   int
	Status string
	Search string
}

// UpdateInput is a partial admin patch; nil fields are left untouched.
// ClearPriority removes the admin priority and cannot be combined with Priority.
type UpdateInput struct {
	Status        *models.WaitlistStatus
	Priority      *int
	ClearPriority bool
	Notes         *string
}

// WaitlistOption customises a WaitlistService.
type WaitlistOption func(*WaitlistService)

// WithWaitlistClock overrides the time source used for created_at and reviewed_at.
func WithWaitlistClock(now func() time.Time) WaitlistOption {
	return func(s *WaitlistService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWaitlistEvents attaches a publisher notified after each successful write.
func WithWaitlistEvents(publisher WaitlistEventPublisher) WaitlistOption {
	return func(s *WaitlistService) {
		s.events = publisher
	}
}

// WithKnownSources replaces the surfaces reported under their own metrics
// label. Submissions from any other source are counted as OtherSource.
func WithKnownSources(sources ...string) WaitlistOption {
	return func(s *WaitlistService) {
		known := sourceSet(sources)
		if len(known) > 0 {
			s.sources = known
		}
	}
}

// WaitlistService owns waitlist submissions, queue positions and admin review.
type WaitlistService struct {
	db      *gorm.DB
	now     func() time.Time
	events  WaitlistEventPublisher
	sources map[string]struct{}
	log     *zap.Logger
}

// NewWaitlistService constructs a waitlist service.
func NewWaitlistService(db *gorm.DB, opts ...WaitlistOption) (*WaitlistService, error) {
	if db == nil {
		return nil, errors.New("waitlist service: db is required")
	}
	svc := &WaitlistService{
		db:      db,
		now:     time.Now,
		sources: sourceSet(DefaultSources),
		log:     logger.WithModule("waitlist"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Submit registers a new application. An existing email is reported as a
// conflict together with the registered entry; nothing is written in that case.
func (s *WaitlistService) Submit(ctx context.Context, input SubmitInput) SubmitResult {
	ctx = ensureContext(ctx)

	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	source := strings.TrimSpace(input.Source)
	if email == "" || name == "" || source == "" {
		return SubmitResult{Outcome: failed(CodeValidation, "email, name and source are required", nil)}
	}

	existing, err := s.findByEmail(ctx, email)
	switch {
	case err == nil:
		return s.conflict(ctx, existing, source)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return s.submitFailure(source, fmt.Errorf("waitlist service: lookup email: %w", err))
	}

	entry := models.WaitlistEntry{
		Email:     email,
		Name:      name,
		Company:   optionalString(input.Company),
		UseCase:   optionalString(input.UseCase),
		Source:    source,
		Status:    models.WaitlistStatusPending,
		Locale:    strings.TrimSpace(input.Locale),
		// MySQL stores datetime(3); ranking compares against the stored value.
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return SubmitResult{Outcome: failed(CodeValidation, "metadata must be a JSON object", err)}
		}
		entry.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if isUniqueConstraintError(err) {
			if raced, lookupErr := s.findByEmail(ctx, email); lookupErr == nil {
				return s.conflict(ctx, raced, source)
			}
		}
		return s.submitFailure(source, fmt.Errorf("waitlist service: insert entry: %w", err))
	}

	queue, err := s.positionOf(ctx, entry)
	if err != nil {
		// The row is stored; the caller still gets a success without a position.
		s.log.Warn("queue position unavailable", zap.Uint("entry_id", entry.ID), zap.Error(err))
	}

	dto := toWaitlistEntryDTO(entry, queue)
	s.countSubmission("created", source)
	s.publish(EventWaitlistCreated, dto)

	return SubmitResult{Outcome: succeeded(), Data: &dto}
}

// Lookup returns the entry registered under a tracking token with its current position.
func (s *WaitlistService) Lookup(ctx context.Context, token string) SubmitResult {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return SubmitResult{Outcome: failed(CodeValidation, "tracking token is required", nil)}
	}

	var entry models.WaitlistEntry
	if err := s.db.WithContext(ctx).Where("tracking_token = ?", token).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SubmitResult{Outcome: failed(CodeNotFound, msgEntryNotFound, nil)}
		}
		return SubmitResult{Outcome: s.storeFailure(fmt.Errorf("waitlist service: lookup token: %w", err))}
	}

	queue, err := s.positionOf(ctx, entry)
	if err != nil {
		return SubmitResult{Outcome: s.storeFailure(err)}
	}
	dto := toWaitlistEntryDTO(entry, queue)
	return SubmitResult{Outcome: succeeded(), Data: &dto}
}

// List returns a page of entries, newest first.
func (s *WaitlistService) List(ctx context.Context, input ListInput) ListResult {
	ctx = ensureContext(ctx)

	page := input.Page
	if page < 1 {
		page = 1
	}
	size := input.Size
	switch {
	case size < 1:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.WaitlistEntry{})
	if status := strings.ToLower(strings.TrimSpace(input.Status)); status != "" {
		if !models.WaitlistStatus(status).Valid() {
			return ListResult{Outcome: failed(CodeValidation, fmt.Sprintf("unknown status %q", input.Status), nil)}
		}
		query = query.Where("status = ?", status)
	}
	if term := strings.TrimSpace(input.Search); term != "" {
		pattern := likePattern(term)
		query = query.Where("(LOWER(email) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!')", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return ListResult{Outcome: s.storeFailure(fmt.Errorf("waitlist service: count entries: %w", err))}
	}

	var entries []models.WaitlistEntry
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&entries).Error; err != nil {
		return ListResult{Outcome: s.storeFailure(fmt.Errorf("waitlist service: list entries: %w", err))}
	}

	items := make([]WaitlistEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toWaitlistEntryDTO(entry, nil))
	}

	pages := int((total + int64(size) - 1) / int64(size))
	return ListResult{
		Outcome: succeeded(),
		Items:   items,
		Total:   total,
		Page:    page,
		Size:    size,
		Pages:   pages,
	}
}

// Update applies an admin patch. A status change stamps reviewed_at and reviewed_by.
func (s *WaitlistService) Update(ctx context.Context, id uint, input UpdateInput, reviewer string) UpdateResult {
	ctx = ensureContext(ctx)

	if input.Status == nil && input.Priority == nil && !input.ClearPriority && input.Notes == nil {
		return UpdateResult{Outcome: failed(CodeValidation, "no fields to update", nil)}
	}
	if input.Priority != nil && input.ClearPriority {
		return UpdateResult{Outcome: failed(CodeValidation, "priority and clear_priority are mutually exclusive", nil)}
	}
	if input.Status != nil && !input.Status.Valid() {
		return UpdateResult{Outcome: failed(CodeValidation, fmt.Sprintf("unknown status %q", *input.Status), nil)}
	}

	var entry models.WaitlistEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, id).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if input.Status != nil && *input.Status != entry.Status {
			now := s.now().UTC()
			updates["status"] = *input.Status
			updates["reviewed_at"] = now
			if reviewer = strings.TrimSpace(reviewer); reviewer != "" {
				updates["reviewed_by"] = reviewer
			}
		}
		if input.Priority != nil {
			updates["priority"] = *input.Priority
		}
		if input.ClearPriority {
			updates["priority"] = nil
		}
		if input.Notes != nil {
			updates["notes"] = optionalString(input.Notes)
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&entry).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&entry, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UpdateResult{Outcome: failed(CodeNotFound, msgEntryNotFound, nil)}
		}
		return UpdateResult{Outcome: s.storeFailure(fmt.Errorf("waitlist service: update entry: %w", err))}
	}

	queue, err := s.positionOf(ctx, entry)
	if err != nil {
		s.log.Warn("queue position unavailable", zap.Uint("entry_id", entry.ID), zap.Error(err))
	}
	dto := toWaitlistEntryDTO(entry, queue)
	s.publish(EventWaitlistUpdated, dto)
	s.log.Info("waitlist entry updated", append([]zap.Field{
		zap.Uint("entry_id", entry.ID),
		zap.String("status", string(entry.Status)),
	}, auditctx.Fields(ctx)...)...)

	return UpdateResult{Outcome: succeeded(), Data: &dto}
}

// Delete permanently removes an entry.
func (s *WaitlistService) Delete(ctx context.Context, id uint) DeleteResult {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).Delete(&models.WaitlistEntry{}, id)
	if res.Error != nil {
		return DeleteResult{Outcome: s.storeFailure(fmt.Errorf("waitlist service: delete entry: %w", res.Error))}
	}
	if res.RowsAffected == 0 {
		return DeleteResult{Outcome: failed(CodeNotFound, msgEntryNotFound, nil)}
	}

	s.publish(EventWaitlistDeleted, map[string]any{"id": id})
	s.log.Info("waitlist entry deleted", append([]zap.Field{zap.Uint("entry_id", id)}, auditctx.Fields(ctx)...)...)
	return DeleteResult{Outcome: succeeded(), ID: id}
}

// Stats counts entries per status and spreads the pending population over tiers.
func (s *WaitlistService) Stats(ctx context.Context) (WaitlistStats, error) {
	ctx = ensureContext(ctx)

	var rows []struct {
		Status models.WaitlistStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return WaitlistStats{}, fmt.Errorf("waitlist service: stats: %w", err)
	}

	stats := WaitlistStats{
		ByStatus: map[models.WaitlistStatus]int64{
			models.WaitlistStatusPending:  0,
			models.WaitlistStatusApproved: 0,
			models.WaitlistStatusRejected: 0,
		},
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] += row.Count
		stats.Total += row.Count
	}
	stats.PendingByTier = pendingByTier(stats.ByStatus[models.WaitlistStatusPending])
	return stats, nil
}

// pendingByTier splits n pending entries over tiers. Positions are dense
// (1..n), so each tier's share follows from the cutoffs alone.
func pendingByTier(n int64) map[waitlist.Tier]int64 {
	clamp := func(v int64) int64 {
		if v < 0 {
			return 0
		}
		return v
	}
	priority := min(n, waitlist.PriorityCutoff)
	regular := clamp(min(n, waitlist.RegularCutoff) - waitlist.PriorityCutoff)
	extended := clamp(n - waitlist.RegularCutoff)
	return map[waitlist.Tier]int64{
		waitlist.TierPriority: priority,
		waitlist.TierRegular:  regular,
		waitlist.TierExtended: extended,
	}
}

func (s *WaitlistService) findByEmail(ctx context.Context, email string) (models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&entry).Error
	return entry, err
}

func (s *WaitlistService) conflict(ctx context.Context, existing models.WaitlistEntry, source string) SubmitResult {
	queue, err := s.positionOf(ctx, existing)
	if err != nil {
		s.log.Warn("queue position unavailable", zap.Uint("entry_id", existing.ID), zap.Error(err))
	}
	info := toWaitlistEntryDTO(existing, queue)
	s.countSubmission("duplicate", source)
	return SubmitResult{
		Outcome:      failed(CodeConflict, msgEmailExists, nil),
		WaitlistInfo: &info,
	}
}

// positionOf ranks a pending entry among pending entries by (created_at, id).
// Non-pending entries have no position.
func (s *WaitlistService) positionOf(ctx context.Context, entry models.WaitlistEntry) (*waitlist.QueuePosition, error) {
	if entry.Status != models.WaitlistStatusPending {
		return nil, nil
	}

	pending := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.WaitlistEntry{}).
			Where("status = ?", models.WaitlistStatusPending)
	}

	var ahead int64
	if err := pending().
		Where("created_at < ? OR (created_at = ? AND id <= ?)", entry.CreatedAt, entry.CreatedAt, entry.ID).
		Count(&ahead).Error; err != nil {
		return nil, fmt.Errorf("waitlist service: count position: %w", err)
	}

	var total int64
	if err := pending().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("waitlist service: count pending: %w", err)
	}

	queue := waitlist.NewQueuePosition(int(ahead), int(total))
	return &queue, nil
}

func (s *WaitlistService) submitFailure(source string, err error) SubmitResult {
	s.countSubmission("error", source)
	return SubmitResult{Outcome: s.storeFailure(err)}
}

func (s *WaitlistService) countSubmission(outcome, source string) {
	if _, ok := s.sources[source]; !ok {
		source = OtherSource
	}
	metrics.WaitlistSubmissions.WithLabelValues(outcome, source).Inc()
}

func sourceSet(sources []string) map[string]struct{} {
	set := make(map[string]struct{}, len(sources))
	for _, source := range sources {
		if source = strings.ToLower(strings.TrimSpace(source)); source != "" {
			set[source] = struct{}{}
		}
	}
	return set
}

func (s *WaitlistService) storeFailure(err error) Outcome {
	s.log.Error("waitlist store failure", zap.Error(err))
	return failed(CodeStore, msgStoreFailure, err)
}

func (s *WaitlistService) publish(event string, payload any) {
	if s.events == nil {
		return
	}
	s.events.PublishWaitlistEvent(event, payload)
}
