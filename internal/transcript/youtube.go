// Package transcript fetches video metadata and caption text and
// persists the fetched transcript as the durable source document.
package transcript

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrBadURL means the video id could not be extracted from the URL.
	ErrBadURL = errors.New("cannot extract video id from url")
	// ErrNoTranscript means the video has no captions in the requested language.
	ErrNoTranscript = errors.New("no transcript available for this video")
)

// VideoInfo identifies a video and carries its human-readable title.
type VideoInfo struct {
	VideoID string
	Title   string
}

// Fetcher is the narrow collaborator interface the session depends on
// for transcript acquisition.
type Fetcher interface {
	VideoInfo(ctx context.Context, rawURL string) (VideoInfo, error)
	Transcript(ctx context.Context, videoID, lang string) (string, error)
}

// YouTubeClient fetches video titles from the watch page and captions
// from the timedtext endpoint.
type YouTubeClient struct {
	client       *http.Client
	timedtextURL string
}

func NewYouTubeClient(timeout time.Duration) *YouTubeClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &YouTubeClient{
		client:       &http.Client{Timeout: timeout},
		timedtextURL: "https://video.google.com/timedtext",
	}
}

// ParseVideoID extracts the stable video identifier from watch,
// youtu.be and shorts URL forms.
func ParseVideoID(rawURL string) (string, error) {
	var id string
	switch {
	case strings.Contains(rawURL, "v="):
		id = strings.SplitN(strings.SplitN(rawURL, "v=", 2)[1], "&", 2)[0]
	case strings.Contains(rawURL, "youtu.be/"):
		id = strings.SplitN(strings.SplitN(rawURL, "youtu.be/", 2)[1], "?", 2)[0]
	case strings.Contains(rawURL, "shorts/"):
		id = strings.SplitN(strings.SplitN(rawURL, "shorts/", 2)[1], "?", 2)[0]
	}
	id = strings.TrimSuffix(id, "/")
	if id == "" {
		return "", ErrBadURL
	}
	return id, nil
}

// VideoInfo resolves a video URL to its id and page title.
func (c *YouTubeClient) VideoInfo(ctx context.Context, rawURL string) (VideoInfo, error) {
	id, err := ParseVideoID(rawURL)
	if err != nil {
		return VideoInfo{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("fetch title: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("fetch title: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return VideoInfo{}, fmt.Errorf("fetch title: unexpected status %s", resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("parse page: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return VideoInfo{}, fmt.Errorf("fetch title: page has no title")
	}
	return VideoInfo{VideoID: id, Title: title}, nil
}

type timedtextXML struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Transcript fetches the caption track for the video in the given
// language and concatenates the caption lines with spaces.
func (c *YouTubeClient) Transcript(ctx context.Context, videoID, lang string) (string, error) {
	if lang == "" {
		lang = "en"
	}
	q := url.Values{}
	q.Set("lang", lang)
	q.Set("v", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.timedtextURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch transcript: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	// An empty body means no caption track exists for this language.
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrNoTranscript
	}
	var parsed timedtextXML
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}
	lines := make([]string, 0, len(parsed.Texts))
	for _, t := range parsed.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Value))
		if text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", ErrNoTranscript
	}
	return strings.Join(lines, " "), nil
}
