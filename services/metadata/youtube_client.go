package metadata

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// youtubeClient is the general video-search fallback used only when a
// catalog has no native trailer for a title.

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

type youtubeClient struct {
	apiKey  string
	httpc   *http.Client
	timeout time.Duration
}

func newYouTubeClient(apiKey string, httpc *http.Client, timeout time.Duration) *youtubeClient {
	if httpc == nil {
		httpc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &youtubeClient{apiKey: apiKey, httpc: httpc, timeout: timeout}
}

func (c *youtubeClient) isConfigured() bool {
	return c != nil && strings.TrimSpace(c.apiKey) != ""
}

// searchEmbedURL runs a single one-result video search and builds the embed
// URL for the first hit. No hit is ("", nil).
func (c *youtubeClient) searchEmbedURL(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" || !c.isConfigured() {
		return "", nil
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", "1")
	q.Set("q", query)
	q.Set("safeSearch", "strict")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeSearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := decodeJSONResponse(c.httpc, req, "youtube", &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	videoID := strings.TrimSpace(resp.Items[0].ID.VideoID)
	if videoID == "" {
		return "", nil
	}
	return youtubeEmbedURL(videoID), nil
}

func youtubeEmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID + "?rel=0"
}
