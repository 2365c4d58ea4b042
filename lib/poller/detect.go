package poller

import (
	"sort"

	"github.com/fiffu/indexwatch/lib/models"
)

// DetectNew returns the items of fresh that have not been seen before, oldest
// first, together with rec advanced past them.
//
// Only items published at or after the watermark are considered. An item is
// new when its GUID is not in the recent window. The window is trimmed from
// the front so that it never holds more GUIDs than the feed currently lists.
func DetectNew(rec models.Indexer, fresh []models.FeedItem) ([]models.FeedItem, models.Indexer) {
	candidates := make([]models.FeedItem, 0, len(fresh))
	for _, item := range fresh {
		if !item.PubDate.Before(rec.LastPubDate.Time) {
			candidates = append(candidates, item)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PubDate.Before(candidates[j].PubDate.Time)
	})

	window := make(models.GUIDWindow, len(rec.RecentGUIDs), len(rec.RecentGUIDs)+len(candidates))
	copy(window, rec.RecentGUIDs)

	var newItems []models.FeedItem
	for _, item := range candidates {
		if window.Contains(item.GUID) {
			continue
		}
		window = append(window, item.GUID)
		newItems = append(newItems, item)
	}

	updated := rec
	updated.RecentGUIDs = window.Bound(len(fresh))
	if n := len(candidates); n > 0 {
		updated.LastPubDate = candidates[n-1].PubDate
	}
	return newItems, updated
}

// Advance moves rec past attempted, the leading items of a DetectNew result,
// for a poll that stopped before the rest were sent.
func Advance(rec models.Indexer, attempted []models.FeedItem, pageSize int) models.Indexer {
	if len(attempted) == 0 {
		return rec
	}
	window := make(models.GUIDWindow, len(rec.RecentGUIDs), len(rec.RecentGUIDs)+len(attempted))
	copy(window, rec.RecentGUIDs)
	for _, item := range attempted {
		window = append(window, item.GUID)
	}

	updated := rec
	updated.RecentGUIDs = window.Bound(pageSize)
	updated.LastPubDate = attempted[len(attempted)-1].PubDate
	return updated
}
