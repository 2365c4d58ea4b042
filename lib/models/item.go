package models

import (
	"math"
	"strconv"
)

// Placeholder stands in for counters the feed did not report.
const Placeholder = "-"

const bytesPerGiB = 1 << 30

type Category int

const (
	CategoryAbsent  Category = -1
	CategoryUnknown Category = 8
)

const (
	CategoryConsole Category = iota + 1
	CategoryMovies
	CategoryAudio
	CategoryPC
	CategoryTV
	CategoryXXX
	CategoryBooks
)

func (c Category) Icon() string {
	switch c {
	case CategoryConsole:
		return "🎮"
	case CategoryMovies:
		return "🎬"
	case CategoryAudio:
		return "🎵"
	case CategoryPC:
		return "💾"
	case CategoryTV:
		return "📺"
	case CategoryXXX:
		return "🔶"
	case CategoryBooks:
		return "📕"
	case CategoryUnknown:
		return "❓"
	}
	return ""
}

func (c Category) String() string {
	switch c {
	case CategoryConsole:
		return "game"
	case CategoryMovies:
		return "movie"
	case CategoryAudio:
		return "audio"
	case CategoryPC:
		return "software"
	case CategoryTV:
		return "tv"
	case CategoryXXX:
		return "other"
	case CategoryBooks:
		return "book"
	case CategoryUnknown:
		return "unknown"
	}
	return ""
}

type ExternalLink struct {
	Name string
	URL  string
}

// FeedItem is one normalized entry of an indexer feed.
type FeedItem struct {
	GUID         string
	PubDate      PubDate
	Title        string
	Category     Category
	CategoryCode string
	Size         int64

	Seeders string
	Peers   string
	Grabs   string
	Files   string

	Freeleech    bool
	HalfDownload bool
	UploadBonus  int // percent, 0 unless the upload factor is above 1

	ExternalLinks []ExternalLink
	CoverURL      string
	Link          string // download link, never a magnet
	MagnetURL     string
	CommentsURL   string
}

// SizeGiB renders Size in binary gigabytes rounded to two decimals.
func (it *FeedItem) SizeGiB() string {
	gib := math.Round(float64(it.Size)/bytesPerGiB*100) / 100
	return strconv.FormatFloat(gib, 'f', -1, 64) + "GiB"
}

type Feed struct {
	Title string
	Items []FeedItem
}

// Newest returns the item with the latest PubDate, or nil for an empty feed.
func (f *Feed) Newest() *FeedItem {
	var newest *FeedItem
	for i := range f.Items {
		if newest == nil || f.Items[i].PubDate.After(newest.PubDate.Time) {
			newest = &f.Items[i]
		}
	}
	return newest
}

// Notification is what gets handed to a sender for one item.
type Notification struct {
	Indexer string
	Item    *FeedItem
}
