// Package dispatch classifies reply bodies and delivers them through
// the Bot API, including the wait-message lifecycle around a send.
package dispatch

import (
	"strconv"
	"strings"
	"time"
)

// Method is the outbound Bot API call a classified body maps to.
type Method string

const (
	MethodText     Method = "text"
	MethodPhoto    Method = "photo"
	MethodDocument Method = "document"
)

// Classification is the outcome of inspecting a reply body for a
// sendable media URL.
type Classification struct {
	Method  Method
	URL     string // media URL, empty for MethodText
	Caption string // body with URLs stripped, empty for MethodText
	Dynamic bool   // keyword-matched image endpoint, needs cache busting
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// imageKeywords marks dynamic image-serving endpoints that return an
// image without a file extension in the URL.
var imageKeywords = []string{"image", "img", "photo", "pic", "avatar", "unsplash", "picsum", "placehold"}

var documentExtensions = []string{
	".zip", ".rar", ".7z", ".tar", ".gz",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".csv",
	".apk", ".exe",
	".mp4", ".avi", ".mkv", ".mov",
}

// firstURL returns the first http(s) URL in the body, or "".
func firstURL(body string) string {
	for _, field := range strings.Fields(body) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return field
		}
	}
	return ""
}

// stripURLs removes every URL from the body and collapses whitespace,
// producing the caption for photo and document sends.
func stripURLs(body string) string {
	fields := strings.Fields(body)
	kept := fields[:0]
	for _, field := range fields {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

// hasExtension checks the URL path (query string excluded) against a
// list of file extensions, case-insensitively.
func hasExtension(url string, extensions []string) bool {
	path := strings.ToLower(url)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func matchesImageKeyword(url string) bool {
	lower := strings.ToLower(url)
	for _, keyword := range imageKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Classify decides how a substituted body should be sent. A URL with a
// known image extension or an image-service keyword becomes a photo, a
// known document extension becomes a document, everything else goes out
// as plain text with URLs kept inline. The keyword heuristic is
// deliberately approximate; misclassified sends fall back to text at
// dispatch time.
func Classify(body string) Classification {
	url := firstURL(body)
	if url == "" {
		return Classification{Method: MethodText}
	}

	if hasExtension(url, imageExtensions) {
		return Classification{Method: MethodPhoto, URL: url, Caption: stripURLs(body)}
	}
	if matchesImageKeyword(url) {
		return Classification{Method: MethodPhoto, URL: url, Caption: stripURLs(body), Dynamic: true}
	}
	if hasExtension(url, documentExtensions) {
		return Classification{Method: MethodDocument, URL: url, Caption: stripURLs(body)}
	}

	return Classification{Method: MethodText}
}

// cacheBust appends a timestamp query parameter so upstream caches and
// Telegram's own file cache do not pin one image for a dynamic endpoint.
func cacheBust(url string, now time.Time) string {
	sep := "?"
	if strings.ContainsRune(url, '?') {
		sep = "&"
	}
	return url + sep + "t=" + strconv.FormatInt(now.UnixMilli(), 10)
}
