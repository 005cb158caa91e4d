package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/importops/backend/internal/domain/integration"
	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/listing"
	"github.com/importops/backend/internal/domain/shared"
	"github.com/importops/backend/internal/infrastructure/telemetry"
)

// DefaultSyncConcurrency bounds the fan-out of bulk sync runs
const DefaultSyncConcurrency = 4

// TokenProvider supplies a valid channel access token, refreshing it
// when needed.
type TokenProvider interface {
	GetValidToken(ctx context.Context) (string, error)
}

// SyncService pushes derived stock to the sales channel. A bulk run
// fans out over syncable listings with bounded concurrency and treats
// each listing independently: one failure never aborts the run.
type SyncService struct {
	listingRepo     listing.Repository
	productRepo     inventory.Repository
	channel         integration.SalesChannel
	tokens          TokenProvider
	concurrency     int
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewSyncService creates a new SyncService
func NewSyncService(
	listingRepo listing.Repository,
	productRepo inventory.Repository,
	channel integration.SalesChannel,
	tokens TokenProvider,
	concurrency int,
	logger *zap.Logger,
) *SyncService {
	if concurrency <= 0 {
		concurrency = DefaultSyncConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		listingRepo: listingRepo,
		productRepo: productRepo,
		channel:     channel,
		tokens:      tokens,
		concurrency: concurrency,
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *SyncService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Sync pushes derived stock for one listing
func (s *SyncService) Sync(ctx context.Context, listingID uuid.UUID) (*ListingResponse, error) {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !l.IsSyncable() {
		return nil, shared.NewDomainError("SYNC_DISABLED", "Listing is not eligible for stock sync")
	}

	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.syncOne(ctx, l, token); err != nil {
		// The listing already carries the error message; surface the
		// cause to the caller as well.
		return nil, err
	}

	response := ToListingResponse(l)
	return &response, nil
}

// ConnectMappings replaces the listing's full mapping set and then
// pushes the re-derived stock to the channel. The mapping save commits
// before the push is attempted, and a failed push never rolls it back:
// the response reports the push outcome alongside the saved listing.
func (s *SyncService) ConnectMappings(ctx context.Context, listingID uuid.UUID, req ConnectMappingsRequest) (*ConnectMappingsResponse, error) {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	specs := make([]listing.MappingSpec, 0, len(req.Mappings))
	for _, m := range req.Mappings {
		if _, err := s.productRepo.FindByID(ctx, m.ProductID); err != nil {
			return nil, err
		}
		specs = append(specs, listing.MappingSpec{
			ProductID:    m.ProductID,
			UnitsPerSale: m.UnitsPerSale,
			Priority:     m.Priority,
		})
	}
	if err := l.ReplaceMappings(specs); err != nil {
		return nil, err
	}
	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	resp := &ConnectMappingsResponse{SyncOutcome: SyncOutcomeOK}
	if !l.IsSyncable() {
		resp.SyncOutcome = SyncOutcomeWarning
		resp.SyncMessage = "stock sync is disabled for this listing"
		resp.Listing = ToListingResponse(l)
		return resp, nil
	}

	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		resp.SyncOutcome = SyncOutcomeError
		resp.SyncMessage = err.Error()
		resp.Listing = ToListingResponse(l)
		return resp, nil
	}

	switch err := s.syncOne(ctx, l, token); {
	case errors.Is(err, integration.ErrChannelRecoverable):
		resp.SyncOutcome = SyncOutcomeWarning
		resp.SyncMessage = err.Error()
	case err != nil:
		resp.SyncOutcome = SyncOutcomeError
		resp.SyncMessage = err.Error()
	case l.HasSyncWarning():
		resp.SyncOutcome = SyncOutcomeWarning
		resp.SyncMessage = l.SyncError
	}
	resp.Listing = ToListingResponse(l)
	return resp, nil
}

// SyncAll pushes derived stock for every syncable listing. The report
// always covers the full run; only infrastructure failures (repository
// errors, missing credential) abort it.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	started := time.Now()

	listings, err := s.listingRepo.FindSyncable(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{
		Total:     len(listings),
		StartedAt: started,
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, l := range listings {
		l := l
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.syncOneSafe(ctx, l, token)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, integration.ErrChannelRecoverable):
				report.Warned++
			case err != nil:
				report.Failed++
				report.Failures = append(report.Failures, SyncFailure{
					ListingID:  l.ID,
					ExternalID: l.ExternalID,
					Message:    err.Error(),
				})
			case l.HasSyncWarning():
				report.Warned++
			default:
				report.Succeeded++
			}
		}()
	}
	wg.Wait()

	report.Duration = time.Since(started).String()
	s.logger.Info("stock sync run finished",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("warned", report.Warned),
		zap.Int("failed", report.Failed),
		zap.String("duration", report.Duration),
	)
	return report, nil
}

// RetryFailed re-syncs only the listings whose last push did not land
// cleanly, whether it failed hard or was rejected with a warning.
func (s *SyncService) RetryFailed(ctx context.Context) (*SyncReport, error) {
	started := time.Now()

	listings, err := s.listingRepo.FindSyncable(ctx)
	if err != nil {
		return nil, err
	}
	failed := make([]*listing.ChannelListing, 0)
	for _, l := range listings {
		if l.HasSyncError() || l.HasSyncWarning() {
			failed = append(failed, l)
		}
	}
	if len(failed) == 0 {
		return &SyncReport{StartedAt: started, Duration: time.Since(started).String()}, nil
	}

	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Total: len(failed), StartedAt: started}
	for _, l := range failed {
		err := s.syncOneSafe(ctx, l, token)
		switch {
		case errors.Is(err, integration.ErrChannelRecoverable):
			report.Warned++
		case err != nil:
			report.Failed++
			report.Failures = append(report.Failures, SyncFailure{
				ListingID:  l.ID,
				ExternalID: l.ExternalID,
				Message:    err.Error(),
			})
		case l.HasSyncWarning():
			report.Warned++
		default:
			report.Succeeded++
		}
	}

	report.Duration = time.Since(started).String()
	return report, nil
}

// ImportListing pulls a publication from the channel and registers it locally
func (s *SyncService) ImportListing(ctx context.Context, externalID string) (*ListingResponse, error) {
	if existing, err := s.listingRepo.FindByExternalID(ctx, externalID); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := s.channel.FetchListing(ctx, token, externalID)
	if err != nil {
		return nil, err
	}

	l, err := listing.NewChannelListing(remote.ExternalID, remote.Title, remote.PriceArs)
	if err != nil {
		return nil, err
	}
	l.CategoryID = remote.CategoryID
	if status, ok := mapRemoteStatus(remote.Status); ok {
		l.Status = status
	}

	attrs := make([]listing.ListingAttribute, 0, len(remote.Attributes))
	for _, a := range remote.Attributes {
		attrs = append(attrs, listing.NewListingAttribute(a.ID, a.Name, a.ValueID, a.ValueName))
	}
	l.SetAttributes(attrs)

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("listing imported",
		zap.String("external_id", externalID),
		zap.String("title", remote.Title),
	)
	response := ToListingResponse(l)
	return &response, nil
}

// Publish creates a new publication on the channel and registers it
// locally. Required category attributes are validated first so the
// channel does not reject the draft halfway through.
func (s *SyncService) Publish(ctx context.Context, req PublishListingRequest) (*ListingResponse, error) {
	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	schema, err := s.channel.FetchCategoryAttributes(ctx, token, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := validateRequiredAttributes(schema, req.Attributes); err != nil {
		return nil, err
	}

	draft := &integration.ListingDraft{
		Title:             req.Title,
		CategoryID:        req.CategoryID,
		PriceArs:          req.PriceArs,
		AvailableQuantity: req.InitialQuantity,
	}
	for _, a := range req.Attributes {
		draft.Attributes = append(draft.Attributes, integration.RemoteAttribute{
			ID:        a.AttributeID,
			Name:      a.Name,
			ValueID:   a.ValueID,
			ValueName: a.ValueName,
		})
	}

	remote, err := s.channel.CreateListing(ctx, token, draft)
	if err != nil {
		return nil, err
	}

	l, err := listing.NewChannelListing(remote.ExternalID, req.Title, req.PriceArs)
	if err != nil {
		return nil, err
	}
	l.CategoryID = req.CategoryID
	attrs := make([]listing.ListingAttribute, 0, len(req.Attributes))
	for _, a := range req.Attributes {
		attrs = append(attrs, listing.NewListingAttribute(a.AttributeID, a.Name, a.ValueID, a.ValueName))
	}
	l.SetAttributes(attrs)

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("listing published",
		zap.String("external_id", remote.ExternalID),
		zap.String("category_id", req.CategoryID),
	)
	response := ToListingResponse(l)
	return &response, nil
}

// PushDetails updates title, price, and attributes of the channel publication
func (s *SyncService) PushDetails(ctx context.Context, listingID uuid.UUID) error {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return err
	}

	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		return err
	}

	draft := &integration.ListingDraft{
		Title:      l.Title,
		CategoryID: l.CategoryID,
		PriceArs:   l.PriceArs,
	}
	for _, a := range l.Attributes {
		draft.Attributes = append(draft.Attributes, integration.RemoteAttribute{
			ID:        a.AttributeID,
			Name:      a.Name,
			ValueID:   a.ValueID,
			ValueName: a.ValueName,
		})
	}

	return s.channel.UpdateListing(ctx, token, l.ExternalID, draft)
}

// syncOneSafe wraps syncOne with a recover so a panic in one listing
// cannot take down a bulk run.
func (s *SyncService) syncOneSafe(ctx context.Context, l *listing.ChannelListing, token string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panic: %v", r)
			s.logger.Error("panic while syncing listing",
				zap.String("listing_id", l.ID.String()),
				zap.Any("panic", r),
			)
		}
	}()
	return s.syncOne(ctx, l, token)
}

// syncOne derives availability for one listing, pushes it, and records
// the outcome on the listing. The listing is saved in every branch so
// the sync state is never lost.
func (s *SyncService) syncOne(ctx context.Context, l *listing.ChannelListing, token string) error {
	stocks, err := s.collectStocks(ctx, l)
	if err != nil {
		s.recordResult(ctx, "error")
		l.SetSyncError(err.Error())
		if saveErr := s.listingRepo.Save(ctx, l); saveErr != nil {
			return saveErr
		}
		return err
	}

	avail := listing.ComputeAvailability(l, stocks)

	if err := s.channel.UpdateListingStock(ctx, token, l.ExternalID, avail.Available); err != nil {
		if errors.Is(err, integration.ErrChannelRecoverable) {
			// Transient rejection: keep the warning tag so the next
			// retry pass picks the listing up again.
			s.recordResult(ctx, "warning")
			l.SetSyncRecoverable(err.Error())
			s.logger.Warn("stock push temporarily rejected",
				zap.String("external_id", l.ExternalID),
				zap.Error(err),
			)
		} else {
			s.recordResult(ctx, "error")
			l.SetSyncError(err.Error())
		}
		if saveErr := s.listingRepo.Save(ctx, l); saveErr != nil {
			return saveErr
		}
		return err
	}

	if avail.Unmapped {
		// Zero was pushed on purpose: a listing with no enabled
		// mappings is flagged, not failed.
		s.recordResult(ctx, "warning")
		l.SetSyncWarning(avail.Available, "listing has no enabled product mappings")
	} else {
		s.recordResult(ctx, "success")
		l.RecordSyncSuccess(avail.Available)
	}
	return s.listingRepo.Save(ctx, l)
}

// collectStocks loads current stock for every enabled mapping
func (s *SyncService) collectStocks(ctx context.Context, l *listing.ChannelListing) (map[uuid.UUID]decimal.Decimal, error) {
	stocks := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range l.EnabledMappings() {
		product, err := s.productRepo.FindByID(ctx, m.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// A deleted product zeroes the listing rather than
				// failing the push.
				stocks[m.ProductID] = decimal.Zero
				continue
			}
			return nil, err
		}
		stocks[m.ProductID] = product.Stock
	}
	return stocks, nil
}

func (s *SyncService) recordResult(ctx context.Context, result string) {
	if s.businessMetrics == nil {
		return
	}
	s.businessMetrics.RecordStockSync(ctx, s.channel.Name(), result)
}

func mapRemoteStatus(remote string) (listing.ListingStatus, bool) {
	switch remote {
	case "active":
		return listing.ListingStatusActive, true
	case "paused":
		return listing.ListingStatusPaused, true
	case "closed":
		return listing.ListingStatusClosed, true
	}
	return "", false
}

func validateRequiredAttributes(schema []integration.CategoryAttribute, attrs []ListingAttributeInput) error {
	provided := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		provided[a.AttributeID] = true
	}
	for _, def := range schema {
		if def.Required && !provided[def.ID] {
			return shared.NewDomainError("MISSING_ATTRIBUTE", fmt.Sprintf("Required attribute %s (%s) is missing", def.ID, def.Name))
		}
	}
	return nil
}
