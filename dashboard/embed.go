// Package dashboard embeds the LectureAssist web page.
//
// The page lists followed lectures, shows the selected one with its summary
// and transcript, and drives the local API: follow, unfollow, upload and
// text download. Live updates arrive over /api/sse. Reading preferences
// (text size, spacing, theme, reading mode) are kept in the browser only.
//
// The server package renders assets/index.html at "/", substituting
// {{.Title}} with the HTML-escaped dashboard title.
package dashboard

import "embed"

// Assets holds assets/index.html, a single page with inline CSS and
// JavaScript.
//
//go:embed assets/*
var Assets embed.FS
