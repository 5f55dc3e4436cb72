package app

import (
	"context"
	"fmt"
	"time"

	"emotlink/pkg/domain"
)

// LinkedEmoter pairs a linked emoter's public profile with the link's
// current status.
type LinkedEmoter struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Email  string            `json:"email"`
	Status domain.LinkStatus `json:"status"`
}

// PendingRequest is an inbound link request seen from the emoter side.
type PendingRequest struct {
	LinkerID   string `json:"linkerId"`
	LinkerName string `json:"linkerName"`
}

// AddEmoterLink creates or re-issues a pending link from the calling
// linker to the emoter found by ID or email. An already accepted link
// is left untouched.
func (a *App) AddEmoterLink(ctx context.Context, user domain.User, target string) error {
	if !user.IsLinker() {
		return ErrNotLinker
	}
	emoter, found, err := a.store.FindUser(target)
	if err != nil {
		return fmt.Errorf("find emoter: %w", err)
	}
	if !found || emoter.IsLinker() {
		return ErrEmoterNotFound
	}

	existing, found, err := a.store.GetLink(user.ID, emoter.ID)
	if err != nil {
		return fmt.Errorf("check existing link: %w", err)
	}
	if found && existing.Status == domain.LinkAccepted {
		return nil
	}
	now := time.Now().UTC()
	link := domain.Link{
		LinkerID:  user.ID,
		EmoterID:  emoter.ID,
		Status:    domain.LinkPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.UpsertLink(link); err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}
	return nil
}

// ListLinkedEmoters returns every emoter the calling linker has a link
// row with, regardless of status.
func (a *App) ListLinkedEmoters(ctx context.Context, user domain.User) ([]LinkedEmoter, error) {
	if !user.IsLinker() {
		return nil, ErrNotLinker
	}
	linkRows, err := a.store.ListLinksByLinker(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	ids := make([]string, 0, len(linkRows))
	statusByEmoter := make(map[string]domain.LinkStatus, len(linkRows))
	for _, l := range linkRows {
		ids = append(ids, l.EmoterID)
		statusByEmoter[l.EmoterID] = l.Status
	}
	emoters, err := a.store.ListUsersByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("load emoters: %w", err)
	}
	out := make([]LinkedEmoter, 0, len(emoters))
	for _, e := range emoters {
		out = append(out, LinkedEmoter{
			ID:     e.ID,
			Name:   e.Name,
			Email:  e.Email,
			Status: statusByEmoter[e.ID],
		})
	}
	return out, nil
}

// PendingRequests lists the calling emoter's inbound pending links.
func (a *App) PendingRequests(ctx context.Context, user domain.User) ([]PendingRequest, error) {
	if user.IsLinker() {
		return nil, ErrNotEmoter
	}
	linkRows, err := a.store.ListLinksByEmoter(user.ID, domain.LinkPending)
	if err != nil {
		return nil, fmt.Errorf("list pending links: %w", err)
	}
	ids := make([]string, 0, len(linkRows))
	for _, l := range linkRows {
		ids = append(ids, l.LinkerID)
	}
	linkers, err := a.store.ListUsersByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("load linkers: %w", err)
	}
	nameByID := make(map[string]string, len(linkers))
	for _, l := range linkers {
		nameByID[l.ID] = l.Name
	}
	out := make([]PendingRequest, 0, len(linkRows))
	for _, l := range linkRows {
		out = append(out, PendingRequest{LinkerID: l.LinkerID, LinkerName: nameByID[l.LinkerID]})
	}
	return out, nil
}

// Respond lets the named emoter accept or decline an inbound request.
func (a *App) Respond(ctx context.Context, user domain.User, linkerID string, accept bool) error {
	if user.IsLinker() {
		return ErrNotEmoter
	}
	if _, found, err := a.store.GetLink(linkerID, user.ID); err != nil {
		return fmt.Errorf("load link: %w", err)
	} else if !found {
		return ErrLinkNotFound
	}
	status := domain.LinkDeclined
	if accept {
		status = domain.LinkAccepted
	}
	if err := a.store.SetLinkStatus(linkerID, user.ID, status); err != nil {
		return fmt.Errorf("set link status: %w", err)
	}
	return nil
}

// RemoveLink deletes the link between the caller and the counterpart.
// Either side of the pair may remove it.
func (a *App) RemoveLink(ctx context.Context, user domain.User, otherID string) error {
	linkerID, emoterID := user.ID, otherID
	if !user.IsLinker() {
		linkerID, emoterID = otherID, user.ID
	}
	if _, found, err := a.store.GetLink(linkerID, emoterID); err != nil {
		return fmt.Errorf("load link: %w", err)
	} else if !found {
		return ErrLinkNotFound
	}
	if err := a.store.DeleteLink(linkerID, emoterID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// LinkedEmoterStats returns an emoter's aggregated stats and health
// indicator to a linker holding an accepted link to them.
func (a *App) LinkedEmoterStats(ctx context.Context, user domain.User, emoterID string) (domain.EmotionStats, domain.HealthIndicator, error) {
	if !user.IsLinker() {
		return domain.EmotionStats{}, domain.HealthIndicator{}, ErrNotLinker
	}
	link, found, err := a.store.GetLink(user.ID, emoterID)
	if err != nil {
		return domain.EmotionStats{}, domain.HealthIndicator{}, fmt.Errorf("load link: %w", err)
	}
	if !found {
		return domain.EmotionStats{}, domain.HealthIndicator{}, ErrLinkNotFound
	}
	if link.Status != domain.LinkAccepted {
		return domain.EmotionStats{}, domain.HealthIndicator{}, ErrLinkNotAccepted
	}
	stats, err := a.Stats(ctx, emoterID)
	if err != nil {
		return domain.EmotionStats{}, domain.HealthIndicator{}, err
	}
	health, err := a.Health(ctx, emoterID)
	if err != nil {
		return domain.EmotionStats{}, domain.HealthIndicator{}, err
	}
	return stats, health, nil
}
