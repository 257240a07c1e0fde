package dispatch

import (
	"strings"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMethod  Method
		wantURL     string
		wantCaption string
		wantDynamic bool
	}{
		{
			name:       "plain text",
			body:       "Hello there",
			wantMethod: MethodText,
		},
		{
			name:        "image by extension",
			body:        "Check this https://example.com/cat.jpg out",
			wantMethod:  MethodPhoto,
			wantURL:     "https://example.com/cat.jpg",
			wantCaption: "Check this out",
		},
		{
			name:        "image extension with query string",
			body:        "https://example.com/photo.PNG?size=large",
			wantMethod:  MethodPhoto,
			wantURL:     "https://example.com/photo.PNG?size=large",
			wantCaption: "",
		},
		{
			name:        "dynamic image by keyword",
			body:        "Random: https://picsum.photos/200",
			wantMethod:  MethodPhoto,
			wantURL:     "https://picsum.photos/200",
			wantCaption: "Random:",
			wantDynamic: true,
		},
		{
			name:        "document by extension",
			body:        "Manual https://files.example.net/guide.pdf",
			wantMethod:  MethodDocument,
			wantURL:     "https://files.example.net/guide.pdf",
			wantCaption: "Manual",
		},
		{
			name:       "unclassified url stays text",
			body:       "Visit https://example.net/about for details",
			wantMethod: MethodText,
		},
		{
			name:       "no scheme means no url",
			body:       "see example.com/cat.jpg",
			wantMethod: MethodText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.body)
			if got.Method != tt.wantMethod {
				t.Errorf("Method = %s, want %s", got.Method, tt.wantMethod)
			}
			if got.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tt.wantURL)
			}
			if got.Caption != tt.wantCaption {
				t.Errorf("Caption = %q, want %q", got.Caption, tt.wantCaption)
			}
			if got.Dynamic != tt.wantDynamic {
				t.Errorf("Dynamic = %v, want %v", got.Dynamic, tt.wantDynamic)
			}
		})
	}
}

func TestCacheBust(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	got := cacheBust("https://picsum.photos/200", now)
	if got != "https://picsum.photos/200?t=1700000000000" {
		t.Errorf("cacheBust() = %q", got)
	}

	got = cacheBust("https://picsum.photos/200?grayscale", now)
	if !strings.HasSuffix(got, "&t=1700000000000") {
		t.Errorf("cacheBust() with existing query = %q, want & separator", got)
	}
}
