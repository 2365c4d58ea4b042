package app

import (
	"github.com/fiffu/indexwatch/lib/models"
)

type IndexerView struct {
	Name        string `json:"name"`
	Link        string `json:"link"`
	LastPubDate string `json:"last_pubdate"`
	Status      string `json:"status"`
	RecentItems int    `json:"recent_items"`
}

func (view IndexerView) From(entity models.Indexer) IndexerView {
	return IndexerView{
		Name:        entity.Name,
		Link:        entity.Link,
		LastPubDate: entity.LastPubDate.String(),
		Status:      entity.Health.String(),
		RecentItems: len(entity.RecentGUIDs),
	}
}

type ItemView struct {
	GUID      string `json:"guid"`
	Title     string `json:"title"`
	PubDate   string `json:"pubdate"`
	Category  string `json:"category"`
	Size      string `json:"size"`
	Link      string `json:"link,omitempty"`
	MagnetURL string `json:"magnet_url,omitempty"`
}

func (view ItemView) From(entity *models.FeedItem) ItemView {
	return ItemView{
		GUID:      entity.GUID,
		Title:     entity.Title,
		PubDate:   entity.PubDate.String(),
		Category:  entity.Category.String(),
		Size:      entity.SizeGiB(),
		Link:      entity.Link,
		MagnetURL: entity.MagnetURL,
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}
