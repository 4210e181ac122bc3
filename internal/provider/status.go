package provider

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

// statuspageAPIPath is the standard Statuspage.io API path for current status.
const statuspageAPIPath = "/api/v2/status.json"

const statusTimeout = 10 * time.Second

// FetchStatuspageStatus fetches status from a Statuspage.io base URL
// (e.g. "https://status.anthropic.com").
func FetchStatuspageStatus(ctx context.Context, baseURL string) models.ProviderStatus {
	url := strings.TrimSuffix(baseURL, "/") + statuspageAPIPath
	return fetchStatuspageStatusFromURL(ctx, url)
}

func fetchStatuspageStatusFromURL(ctx context.Context, url string) models.ProviderStatus {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	resp, err := httpclient.Shared().Get(ctx, url)
	if err != nil || !resp.OK() {
		return models.ProviderStatus{Level: models.StatusUnknown}
	}
	var data struct {
		Status struct {
			Indicator   string `json:"indicator"`
			Description string `json:"description"`
		} `json:"status"`
	}
	if err := resp.DecodeJSON(&data); err != nil {
		return models.ProviderStatus{Level: models.StatusUnknown}
	}

	now := time.Now().UTC()
	return models.ProviderStatus{
		Level:       indicatorToLevel(data.Status.Indicator),
		Description: data.Status.Description,
		UpdatedAt:   &now,
	}
}

func indicatorToLevel(indicator string) models.StatusLevel {
	switch strings.ToLower(indicator) {
	case "none":
		return models.StatusOperational
	case "minor":
		return models.StatusDegraded
	case "major":
		return models.StatusPartialOutage
	case "critical":
		return models.StatusMajorOutage
	default:
		return models.StatusUnknown
	}
}

// onlineOrNotRSSPath is the standard OnlineOrNot RSS feed path.
const onlineOrNotRSSPath = "/incidents.rss"

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

// FetchOnlineOrNotStatus fetches status from an OnlineOrNot base URL
// (e.g. "https://status.openrouter.ai").
func FetchOnlineOrNotStatus(ctx context.Context, baseURL string) models.ProviderStatus {
	rssURL := strings.TrimSuffix(baseURL, "/") + onlineOrNotRSSPath
	return fetchOnlineOrNotStatusFromURL(ctx, rssURL)
}

func fetchOnlineOrNotStatusFromURL(ctx context.Context, rssURL string) models.ProviderStatus {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	resp, err := httpclient.Shared().Get(ctx, rssURL)
	if err != nil || !resp.OK() {
		return models.ProviderStatus{Level: models.StatusUnknown}
	}
	var feed rssFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return models.ProviderStatus{Level: models.StatusUnknown}
	}
	return parseOnlineOrNotFeed(feed)
}

// parseOnlineOrNotFeed reports degraded when any incident from the last 24
// hours lacks a "resolved" marker in its description.
func parseOnlineOrNotFeed(feed rssFeed) models.ProviderStatus {
	now := time.Now().UTC()
	operational := models.ProviderStatus{
		Level:       models.StatusOperational,
		Description: "All systems operational",
		UpdatedAt:   &now,
	}

	cutoff := now.Add(-24 * time.Hour)
	for _, item := range feed.Channel.Items {
		pubDate, err := time.Parse(time.RFC1123, item.PubDate)
		if err != nil || pubDate.Before(cutoff) {
			continue
		}
		if !strings.Contains(strings.ToLower(item.Description), "resolved") {
			return models.ProviderStatus{
				Level:       models.StatusDegraded,
				Description: item.Title,
				UpdatedAt:   &now,
			}
		}
	}
	return operational
}
