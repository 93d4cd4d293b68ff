// Package youtube fetches caption tracks for YouTube videos.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/transcript"
	"github.com/ethanbaker/learnwithai/pkg/utils"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

const (
	DefaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxPageBytes   = 6 * 1024 * 1024
	maxTrackBytes  = 2 * 1024 * 1024
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Client implements transcript.Source against youtube.com
type Client struct {
	baseURL    string
	httpClient *http.Client
	captions   *ytapi.Service
}

// Options configures a Client
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	APIKey          string // enables Data API language listing
	DataAPIEndpoint string
}

// New creates a youtube client
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
	}

	if opts.APIKey != "" {
		clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
		if opts.DataAPIEndpoint != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(opts.DataAPIEndpoint))
		}

		svc, err := ytapi.NewService(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create youtube data api client: %w", err)
		}
		c.captions = svc
	}

	return c, nil
}

// NewFromConfig creates a client from YOUTUBE_* and HTTP_TIMEOUT settings
func NewFromConfig(ctx context.Context, cfg *utils.Config) (*Client, error) {
	return New(ctx, Options{
		BaseURL:         cfg.GetWithDefault("YOUTUBE_BASE_URL", DefaultBaseURL),
		Timeout:         cfg.GetDurationWithDefault("HTTP_TIMEOUT", 60*time.Second),
		APIKey:          cfg.Get("YOUTUBE_API_KEY"),
		DataAPIEndpoint: cfg.Get("YOUTUBE_DATA_API_ENDPOINT"),
	})
}

// ListLanguages returns the caption languages of a video in upstream order
func (c *Client) ListLanguages(ctx context.Context, videoID string) ([]transcript.Language, error) {
	if c.captions != nil {
		langs, err := c.listFromDataAPI(ctx, videoID)
		if err == nil && len(langs) > 0 {
			return langs, nil
		}
		log.Printf("[YOUTUBE]: Data API listing failed for %s, scraping watch page: %v", videoID, err)
	}

	tracks, err := c.captionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tracks))
	langs := make([]transcript.Language, 0, len(tracks))
	for _, track := range tracks {
		if track.LanguageCode == "" || seen[track.LanguageCode] {
			continue
		}
		seen[track.LanguageCode] = true

		name := track.Name.String()
		if name == "" {
			name = track.LanguageCode
		}
		langs = append(langs, transcript.Language{Code: track.LanguageCode, Name: name})
	}

	if len(langs) == 0 {
		return nil, apperrors.NewRetrieval("no transcripts are available for this video", nil)
	}
	return langs, nil
}

func (c *Client) listFromDataAPI(ctx context.Context, videoID string) ([]transcript.Language, error) {
	resp, err := c.captions.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var langs []transcript.Language
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.Language == "" || seen[item.Snippet.Language] {
			continue
		}
		seen[item.Snippet.Language] = true

		name := item.Snippet.Name
		if name == "" {
			name = item.Snippet.Language
		}
		langs = append(langs, transcript.Language{Code: item.Snippet.Language, Name: name})
	}
	return langs, nil
}

// Fetch downloads the transcript for one language and joins its segments with single spaces
func (c *Client) Fetch(ctx context.Context, videoID, languageCode string) (string, error) {
	tracks, err := c.captionTracks(ctx, videoID)
	if err != nil {
		return "", err
	}

	track, ok := pickTrack(tracks, languageCode)
	if !ok {
		return "", apperrors.NewRetrieval(fmt.Sprintf("no usable transcript in language %q", languageCode), nil)
	}

	text, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return "", apperrors.NewRetrieval("could not download the transcript", err)
	}
	if text == "" {
		return "", apperrors.NewRetrieval("the transcript is empty", nil)
	}
	return text, nil
}

// captionTracks scrapes the watch page's player response for caption tracks
func (c *Client) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	body, err := c.get(ctx, watchURL, maxPageBytes)
	if err != nil {
		return nil, apperrors.NewRetrieval("could not load the video page", err)
	}

	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, apperrors.NewRetrieval("video page has no player response", nil)
	}

	// Decode stops after the first complete JSON value
	var player playerResponse
	dec := json.NewDecoder(bytes.NewReader(body[idx+len(playerResponseMarker):]))
	if err := dec.Decode(&player); err != nil {
		return nil, apperrors.NewRetrieval("could not parse the player response", err)
	}

	if player.Captions == nil || len(player.Captions.TracklistRenderer.CaptionTracks) == 0 {
		reason := "no transcripts are available for this video"
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			reason = fmt.Sprintf("%s (%s)", reason, player.PlayabilityStatus.Reason)
		}
		return nil, apperrors.NewRetrieval(reason, nil)
	}
	return player.Captions.TracklistRenderer.CaptionTracks, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only)
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack prefers a manual track over an auto-generated one for the language
func pickTrack(tracks []captionTrack, languageCode string) (captionTrack, bool) {
	var generated *captionTrack
	for i, track := range tracks {
		if track.LanguageCode != languageCode || needsPoToken(track.BaseURL) {
			continue
		}
		if track.Kind != "asr" {
			return track, true
		}
		if generated == nil {
			generated = &tracks[i]
		}
	}

	if generated != nil {
		return *generated, true
	}
	return captionTrack{}, false
}

func (c *Client) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	body, err := c.get(ctx, baseURL, maxTrackBytes)
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	lines := tt.Lines
	if len(lines) == 0 {
		lines = tt.Paragraphs
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if text := cleanSegment(line.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// cleanSegment strips nested markup and entities from a caption line
func cleanSegment(raw string) string {
	text := tagPattern.ReplaceAllString(raw, "")
	// Captions are often double escaped (&amp;#39;)
	text = html.UnescapeString(html.UnescapeString(text))
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

func (c *Client) get(ctx context.Context, target string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
