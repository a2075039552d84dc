package domain

import (
	"fmt"
	"time"
)

// Pack is a core entity describing a modpack candidate fetched from a catalog.
type Pack struct {
	Slug         string
	Platform     string
	ProjectID    string
	Title        string
	Description  string
	GameVersions string
	IconURL      string
	GalleryURLs  []string
	DownloadURL  string
	Categories   []string
	Loaders      []string
	VersionsInfo string
}

// UID returns the globally unique pack identifier used for deduplication.
func (p Pack) UID() string {
	return fmt.Sprintf("%s:%s", p.Platform, p.Slug)
}

// ImageURL resolves the preview image: first gallery shot, else the icon.
func (p Pack) ImageURL() string {
	if len(p.GalleryURLs) > 0 {
		return p.GalleryURLs[0]
	}
	return p.IconURL
}

// QueuedPost is a rendered, approved pack waiting for its publication slot.
type QueuedPost struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	ImagePath     string    `json:"image_path,omitempty"`
	DownloadURL   string    `json:"download_url"`
	ScheduledTime time.Time `json:"scheduled_time"`
	PackID        string    `json:"pack_id"`
	Title         string    `json:"title"`
	Attempts      int       `json:"attempts,omitempty"`
}
