package models

import (
	"fmt"
	"unicode/utf8"
)

// Icons is the category icon, if any, followed by one icon per volume-factor
// flag.
func (n *Notification) Icons() []string {
	var icons []string
	if icon := n.Item.Category.Icon(); icon != "" {
		icons = append(icons, icon)
	}
	for _, flag := range []string{n.DownloadFlag(), n.UploadFlag()} {
		if r, _ := utf8.DecodeRuneInString(flag); r != utf8.RuneError {
			icons = append(icons, string(r))
		}
	}
	return icons
}

func (n *Notification) DownloadFlag() string {
	switch {
	case n.Item.Freeleech:
		return "🔥 FREELEECH 🔥"
	case n.Item.HalfDownload:
		return "🌟 50% DOWNLOAD 🌟"
	}
	return ""
}

func (n *Notification) UploadFlag() string {
	if n.Item.UploadBonus > 0 {
		return fmt.Sprintf("💎 %d%% UPLOAD 💎", n.Item.UploadBonus)
	}
	return ""
}

// Title falls back to the placeholder for untitled items.
func (n *Notification) Title() string {
	if n.Item.Title == "" {
		return Placeholder
	}
	return n.Item.Title
}
