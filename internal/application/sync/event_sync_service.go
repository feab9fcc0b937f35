package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/catalog"
	"github.com/circuithospitality/stockroom-sync/internal/domain/mapping"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/stockroom"
)

// maxHierarchyDepth bounds the event type hierarchy recursion. The
// remote contract promises an acyclic tree; a chain this deep means the
// contract is broken and we surface an error instead of recursing
// forever.
const maxHierarchyDepth = 16

// pricePrecision is the number of fractional digits the catalog stores.
const pricePrecision = 3

// EventSyncService reconciles remote events, their type hierarchy, and
// their packages into the local catalog, maintaining ID mappings at
// every step.
type EventSyncService struct {
	api      StockroomAPI
	products catalog.ProductStore
	terms    catalog.TermStore
	details  catalog.PackageDetailStore
	logger   *zap.Logger
	pageSize int

	events         *mapping.Store
	eventTypes     *mapping.Store
	clubs          *mapping.Store
	venues         *mapping.Store
	variations     *mapping.Store
	simpleProducts *mapping.Store
}

// eventTypeHint carries an already-fetched hierarchy node and its
// resolved parent term into the event type resolver.
type eventTypeHint struct {
	node         *stockroom.EventType
	parentTermID string
}

// clubHint carries the event type term a club category falls under.
type clubHint struct {
	parentTermID string
}

// NewEventSyncService creates an EventSyncService
func NewEventSyncService(
	api StockroomAPI,
	products catalog.ProductStore,
	terms catalog.TermStore,
	details catalog.PackageDetailStore,
	repo mapping.Repository,
	logger *zap.Logger,
	pageSize int,
) *EventSyncService {
	if pageSize <= 0 {
		pageSize = 50
	}
	s := &EventSyncService{
		api:      api,
		products: products,
		terms:    terms,
		details:  details,
		logger:   logger.Named("event_sync"),
		pageSize: pageSize,
	}

	s.events = mapping.NewStore(repo, ModelEvent)
	s.eventTypes = mapping.NewStore(repo, ModelEventType, mapping.WithResolver(s.resolveEventType))
	s.clubs = mapping.NewStore(repo, ModelClub, mapping.WithResolver(s.resolveClub))
	s.venues = mapping.NewStore(repo, ModelVenue, mapping.WithResolver(s.resolveVenue))
	s.variations = mapping.NewStore(repo, ModelVariation)
	s.simpleProducts = mapping.NewStore(repo, ModelSimpleProduct)

	return s
}

// WarmCaches eagerly loads the mapping namespaces touched on every
// event into memory.
func (s *EventSyncService) WarmCaches(ctx context.Context) error {
	for _, store := range []*mapping.Store{s.events, s.eventTypes, s.variations, s.simpleProducts} {
		if err := store.Prefetch(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SyncEventPage fetches one page of remote events, reconciles each, and
// returns the total page count so a caller can drive pagination to
// completion. A failure on one event is logged and does not stop the
// rest of the page.
func (s *EventSyncService) SyncEventPage(ctx context.Context, page int) (int, error) {
	events, total, err := s.api.FetchEvents(ctx, page, s.pageSize)
	if err != nil {
		return 0, fmt.Errorf("fetch events page %d: %w", page, err)
	}

	for i := range events {
		ev := &events[i]
		if err := s.SyncEvent(ctx, ev.ID.String(), ev, ChangeUpdated); err != nil {
			s.logger.Error("failed to sync event",
				zap.String("event_id", ev.ID.String()),
				zap.Error(err),
			)
		}
	}

	totalPages := (total + s.pageSize - 1) / s.pageSize
	return totalPages, nil
}

// SyncEvent reconciles a single remote event into the local catalog.
// A nil payload triggers a fetch by ID. Fields absent from a partial
// payload are left untouched on the local product.
func (s *EventSyncService) SyncEvent(ctx context.Context, sourceID string, ev *stockroom.Event, change ChangeType) error {
	if change == ChangeDeleted {
		return s.deleteEvent(ctx, sourceID)
	}

	productID, mapped, err := s.events.Get(ctx, sourceID)
	if err != nil {
		return err
	}

	var product catalog.Product
	if mapped {
		product, err = s.products.Product(ctx, productID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			// The mapping points at a product that no longer exists.
			// Drop it and proceed as a creation.
			if err := s.events.Delete(ctx, sourceID, nil); err != nil {
				return err
			}
			mapped = false
			productID = ""
		}
	}

	// Creation needs the full graph: subtype flag and package data.
	// A payload that flags the event as simple but omits its packages
	// also forces a fetch, mapped or not, so the single package the
	// simple product mirrors is never skipped.
	needsFull := ev == nil ||
		(!mapped && (ev.Simple == nil || len(ev.EventPackages) == 0)) ||
		(ev.Simple != nil && ev.Simple.Bool() && len(ev.EventPackages) == 0)
	if needsFull {
		full, err := s.api.FetchEvent(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("fetch event %s: %w", sourceID, err)
		}
		ev = full
	}

	creating := !mapped
	if creating {
		// Subtype is chosen at creation time only and never changes.
		kind := catalog.ProductKindVariable
		if ev.Simple != nil && ev.Simple.Bool() {
			kind = catalog.ProductKindSimple
		}
		product = catalog.Product{Kind: kind}
	}

	if ev.Name != nil {
		product.Name = *ev.Name
	}
	if ev.Active != nil {
		product.Active = ev.Active.Bool()
	}
	if ev.StartsAt != nil {
		if startsAt, err := time.Parse(time.RFC3339, *ev.StartsAt); err == nil {
			product.StartsAt = &startsAt
		}
	}

	if err := s.applyCategories(ctx, &product, ev); err != nil {
		return err
	}

	savedID, err := s.products.SaveProduct(ctx, product)
	if err != nil {
		return fmt.Errorf("save product for event %s: %w", sourceID, err)
	}
	if creating {
		productID = savedID
		if err := s.events.Set(ctx, sourceID, productID, false); err != nil {
			return err
		}
	}

	if len(ev.EventPackages) == 0 {
		return nil
	}
	if product.Kind == catalog.ProductKindSimple {
		return s.applySimplePackage(ctx, productID, &ev.EventPackages[0])
	}
	return s.rebuildVariations(ctx, productID, ev.EventPackages)
}

// deleteEvent removes the local product behind a remote event. Safe to
// call when no mapping or product exists; already-deleted is a no-op.
func (s *EventSyncService) deleteEvent(ctx context.Context, sourceID string) error {
	productID, mapped, err := s.events.Get(ctx, sourceID)
	if err != nil {
		return err
	}
	if !mapped {
		return nil
	}

	if err := s.products.DeleteProduct(ctx, productID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return s.events.Delete(ctx, sourceID, nil)
}

// applyCategories resolves the event's type hierarchy, club categories,
// and venue location, and attaches the resulting terms to the product.
func (s *EventSyncService) applyCategories(ctx context.Context, product *catalog.Product, ev *stockroom.Event) error {
	var typeTermID string
	if ev.EventTypeID != nil && ev.EventTypeID.String() != "" {
		termID, err := s.syncEventTypeHierarchy(ctx, ev.EventTypeID.String(), 0)
		if err != nil {
			return err
		}
		typeTermID = termID
	}

	var categoryIDs []string
	for _, clubID := range []*stockroom.FlexID{ev.HomeTeamID, ev.AwayTeamID} {
		if clubID == nil || clubID.String() == "" {
			continue
		}
		termID, ok, err := s.clubs.Synchronize(ctx, clubID.String(), clubHint{parentTermID: typeTermID})
		if err != nil {
			return err
		}
		if ok {
			categoryIDs = append(categoryIDs, termID)
		}
	}

	// An event without team relations falls back to being categorized
	// directly under its type node.
	if len(categoryIDs) == 0 && typeTermID != "" {
		categoryIDs = []string{typeTermID}
	}
	if len(categoryIDs) > 0 {
		product.CategoryIDs = categoryIDs
	}

	if ev.VenueID != nil && ev.VenueID.String() != "" {
		locationID, ok, err := s.venues.Synchronize(ctx, ev.VenueID.String(), nil)
		if err != nil {
			return err
		}
		if ok {
			product.LocationID = locationID
		}
	}

	return nil
}

// syncEventTypeHierarchy resolves the local category for a remote type
// node, recursively resolving every ancestor first so parents always
// exist before their children.
func (s *EventSyncService) syncEventTypeHierarchy(ctx context.Context, id string, depth int) (string, error) {
	if depth > maxHierarchyDepth {
		return "", fmt.Errorf("event type hierarchy exceeds %d levels at node %s", maxHierarchyDepth, id)
	}

	if termID, ok, err := s.eventTypes.Get(ctx, id); err != nil || ok {
		return termID, err
	}

	node, err := s.api.FetchEventType(ctx, id)
	if err != nil {
		return "", fmt.Errorf("fetch event type %s: %w", id, err)
	}

	var parentTermID string
	if node.ParentEventTypeID != nil && node.ParentEventTypeID.String() != "" {
		parentTermID, err = s.syncEventTypeHierarchy(ctx, node.ParentEventTypeID.String(), depth+1)
		if err != nil {
			return "", err
		}
	}

	termID, _, err := s.eventTypes.Synchronize(ctx, id, eventTypeHint{node: node, parentTermID: parentTermID})
	return termID, err
}

// resolveEventType creates (or finds by natural key) the local category
// term for a remote type node.
func (s *EventSyncService) resolveEventType(ctx context.Context, id string, hint any) (string, error) {
	h, _ := hint.(eventTypeHint)
	node := h.node
	if node == nil {
		fetched, err := s.api.FetchEventType(ctx, id)
		if err != nil {
			return "", err
		}
		node = fetched
	}

	term, err := s.findOrCreateTerm(ctx, catalog.TaxonomyCategory, node.Name, h.parentTermID)
	if err != nil {
		return "", err
	}
	return term.ID, nil
}

// resolveClub creates the local category term for a club, parented
// under the event's type category.
func (s *EventSyncService) resolveClub(ctx context.Context, id string, hint any) (string, error) {
	h, _ := hint.(clubHint)

	club, err := s.api.FetchClub(ctx, id)
	if err != nil {
		return "", err
	}

	term, err := s.findOrCreateTerm(ctx, catalog.TaxonomyCategory, club.Name, h.parentTermID)
	if err != nil {
		return "", err
	}
	return term.ID, nil
}

// resolveVenue creates the local location term for a venue.
func (s *EventSyncService) resolveVenue(ctx context.Context, id string, _ any) (string, error) {
	venue, err := s.api.FetchVenue(ctx, id)
	if err != nil {
		return "", err
	}

	term, err := s.findOrCreateTerm(ctx, catalog.TaxonomyLocation, venue.Name, "")
	if err != nil {
		return "", err
	}
	return term.ID, nil
}

// findOrCreateTerm looks a term up by its slug-derived natural key and
// creates it when missing.
func (s *EventSyncService) findOrCreateTerm(ctx context.Context, taxonomy catalog.Taxonomy, name, parentID string) (catalog.Term, error) {
	slug := catalog.Slugify(name)
	if slug == "" {
		return catalog.Term{}, fmt.Errorf("term name %q reduces to an empty slug", name)
	}

	term, err := s.terms.TermBySlug(ctx, taxonomy, slug)
	if err == nil {
		return term, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return catalog.Term{}, err
	}

	term = catalog.Term{
		Taxonomy: taxonomy,
		Name:     name,
		Slug:     slug,
		ParentID: parentID,
	}
	termID, err := s.terms.SaveTerm(ctx, term)
	if err != nil {
		return catalog.Term{}, fmt.Errorf("create %s term %q: %w", taxonomy, name, err)
	}
	term.ID = termID
	return term, nil
}

// applySimplePackage writes price and stock from an event's first
// package onto a simple product.
func (s *EventSyncService) applySimplePackage(ctx context.Context, productID string, pkg *stockroom.EventPackage) error {
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return err
	}

	if pkg.NetPrice != nil {
		product.Price = pkg.NetPrice.Round(pricePrecision)
	}
	if pkg.AvailableStock != nil {
		product.Stock = *pkg.AvailableStock
		product.StockStatus = catalog.StockStatusFor(product.Stock)
	}

	if _, err := s.products.SaveProduct(ctx, product); err != nil {
		return err
	}
	return s.simpleProducts.Set(ctx, pkg.ID.String(), productID, false)
}

// rebuildVariations tears down and recreates all variations of a
// variable product from the event's package list. Rebuilding from
// scratch on every full sync keeps variations from drifting out of step
// with the remote package set.
func (s *EventSyncService) rebuildVariations(ctx context.Context, productID string, pkgs []stockroom.EventPackage) error {
	existing, err := s.products.Variations(ctx, productID)
	if err != nil {
		return err
	}
	for _, v := range existing {
		reverse := mapping.Reverse
		if err := s.variations.Delete(ctx, v.ID, &reverse); err != nil {
			return err
		}
		if err := s.details.DeletePackageDetail(ctx, v.ID); err != nil {
			return err
		}
		if err := s.products.DeleteVariation(ctx, v.ID); err != nil {
			return err
		}
	}

	for i := range pkgs {
		if err := s.createVariation(ctx, productID, &pkgs[i]); err != nil {
			s.logger.Error("failed to create variation",
				zap.String("event_package_id", pkgs[i].ID.String()),
				zap.String("product_id", productID),
				zap.Error(err),
			)
		}
	}

	return s.updatePriceBounds(ctx, productID)
}

// createVariation creates one variation from an event package, mapping
// it only after the local write succeeded.
func (s *EventSyncService) createVariation(ctx context.Context, productID string, pkg *stockroom.EventPackage) error {
	pkgDoc := pkg.Package
	if pkgDoc == nil && pkg.PackageID != nil && pkg.PackageID.String() != "" {
		fetched, err := s.api.FetchPackage(ctx, pkg.PackageID.String())
		if err != nil {
			return fmt.Errorf("fetch package %s: %w", pkg.PackageID.String(), err)
		}
		pkgDoc = fetched
	}
	if pkgDoc == nil || pkgDoc.Name == "" {
		return fmt.Errorf("event package %s has no package name", pkg.ID.String())
	}

	option, err := s.findOrCreateTerm(ctx, catalog.TaxonomyPackageOption, pkgDoc.Name, "")
	if err != nil {
		return err
	}

	variation := catalog.Variation{
		ProductID:  productID,
		OptionSlug: option.Slug,
	}
	if pkg.NetPrice != nil {
		variation.Price = pkg.NetPrice.Round(pricePrecision)
	}
	if pkg.AvailableStock != nil {
		variation.Stock = *pkg.AvailableStock
	}
	variation.StockStatus = catalog.StockStatusFor(variation.Stock)

	variationID, err := s.products.SaveVariation(ctx, variation)
	if err != nil {
		return err
	}
	if err := s.variations.Set(ctx, pkg.ID.String(), variationID, true); err != nil {
		return err
	}

	return s.upsertPackageDetail(ctx, variationID, pkgDoc)
}

// upsertPackageDetail stores the descriptive documents of a package
// alongside its variation.
func (s *EventSyncService) upsertPackageDetail(ctx context.Context, variationID string, pkg *stockroom.Package) error {
	detail := catalog.PackageDetail{VariationID: variationID}
	if pkg.Description != nil {
		detail.Description = *pkg.Description
	}
	if pkg.DayInfo != nil {
		detail.DayInfo = *pkg.DayInfo
	}
	if pkg.Inclusions != nil {
		detail.Inclusions = *pkg.Inclusions
	}
	if pkg.Informations != nil {
		detail.Informations = *pkg.Informations
	}
	if detail.Description == "" && detail.DayInfo == "" && detail.Inclusions == "" && detail.Informations == "" {
		return nil
	}
	return s.details.SavePackageDetail(ctx, detail)
}

// updatePriceBounds recomputes the min/max price range of a variable
// product across its live variations.
func (s *EventSyncService) updatePriceBounds(ctx context.Context, productID string) error {
	variations, err := s.products.Variations(ctx, productID)
	if err != nil {
		return err
	}
	if len(variations) == 0 {
		return nil
	}

	min, max := variations[0].Price, variations[0].Price
	for _, v := range variations[1:] {
		if v.Price.LessThan(min) {
			min = v.Price
		}
		if v.Price.GreaterThan(max) {
			max = v.Price
		}
	}

	return s.products.SetPriceBounds(ctx, productID, min, max)
}

// SyncEventPackage reconciles a targeted change to a single event
// package, mutating the corresponding variation in place instead of
// rebuilding the whole set.
func (s *EventSyncService) SyncEventPackage(ctx context.Context, sourceID string, pkg *stockroom.EventPackage, change ChangeType) error {
	if change == ChangeDeleted {
		return s.deleteEventPackage(ctx, sourceID)
	}

	variationID, mapped, err := s.variations.Get(ctx, sourceID)
	if err != nil {
		return err
	}
	if mapped {
		variation, err := s.products.Variation(ctx, variationID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			// Stale mapping; heal by resyncing the parent event.
			if err := s.variations.Delete(ctx, sourceID, nil); err != nil {
				return err
			}
			return s.syncPackageParent(ctx, sourceID, pkg)
		}
		return s.updateVariationInPlace(ctx, variation, pkg)
	}

	if productID, mapped, err := s.simpleProducts.Get(ctx, sourceID); err != nil {
		return err
	} else if mapped {
		return s.applySimplePackage(ctx, productID, pkg)
	}

	return s.syncPackageParent(ctx, sourceID, pkg)
}

// updateVariationInPlace applies the fields present in a partial package
// payload to one variation.
func (s *EventSyncService) updateVariationInPlace(ctx context.Context, variation catalog.Variation, pkg *stockroom.EventPackage) error {
	if pkg == nil {
		return nil
	}

	priceChanged := false
	if pkg.NetPrice != nil {
		price := pkg.NetPrice.Round(pricePrecision)
		priceChanged = !price.Equal(variation.Price)
		variation.Price = price
	}
	if pkg.AvailableStock != nil {
		variation.Stock = *pkg.AvailableStock
		variation.StockStatus = catalog.StockStatusFor(variation.Stock)
	}

	if _, err := s.products.SaveVariation(ctx, variation); err != nil {
		return err
	}
	if pkg.Package != nil {
		if err := s.upsertPackageDetail(ctx, variation.ID, pkg.Package); err != nil {
			return err
		}
	}

	if priceChanged {
		return s.updatePriceBounds(ctx, variation.ProductID)
	}
	return nil
}

// deleteEventPackage removes the variation (or simple-product pricing)
// behind a remote event package. No-op when nothing is mapped.
func (s *EventSyncService) deleteEventPackage(ctx context.Context, sourceID string) error {
	variationID, mapped, err := s.variations.Get(ctx, sourceID)
	if err != nil {
		return err
	}
	if mapped {
		variation, lookupErr := s.products.Variation(ctx, variationID)
		if err := s.details.DeletePackageDetail(ctx, variationID); err != nil {
			return err
		}
		if err := s.products.DeleteVariation(ctx, variationID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := s.variations.Delete(ctx, sourceID, nil); err != nil {
			return err
		}
		if lookupErr == nil {
			return s.updatePriceBounds(ctx, variation.ProductID)
		}
		return nil
	}

	productID, mapped, err := s.simpleProducts.Get(ctx, sourceID)
	if err != nil || !mapped {
		return err
	}

	// A simple product losing its only package can no longer be sold.
	product, err := s.products.Product(ctx, productID)
	if err == nil {
		product.Stock = 0
		product.StockStatus = catalog.StockStatusOutOfStock
		if _, err := s.products.SaveProduct(ctx, product); err != nil {
			return err
		}
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return s.simpleProducts.Delete(ctx, sourceID, nil)
}

// syncPackageParent falls back to a full resync of the package's parent
// event when the package itself cannot be correlated locally.
func (s *EventSyncService) syncPackageParent(ctx context.Context, sourceID string, pkg *stockroom.EventPackage) error {
	if pkg == nil || pkg.EventID == nil || pkg.EventID.String() == "" {
		s.logger.Warn("event package has no local mapping and names no parent event, skipping",
			zap.String("event_package_id", sourceID),
		)
		return nil
	}
	return s.SyncEvent(ctx, pkg.EventID.String(), nil, ChangeUpdated)
}
