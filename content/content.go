// Package content fetches the posts that get typed into the target app.
package content

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Post is one unit of text content to paste and save.
type Post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Client fetches posts from the content source. Plain GETs, so transient
// failures are left to retryablehttp's transport-level retries.
type Client struct {
	url  string
	http *retryablehttp.Client
}

func New(rawURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = 10 * time.Second
	return &Client{
		url:  strings.TrimRight(rawURL, "/"),
		http: rc,
	}
}

// Fetch returns up to limit posts. The caller decides whether an empty or
// failed fetch ends the run.
func (c *Client) Fetch(limit int) ([]Post, error) {
	url := fmt.Sprintf("%s?limit=%d", c.url, limit)
	log.Printf("[API] Fetching posts: %s", url)

	resp, err := c.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %v", err)
	}
	defer resp.Body.Close()

	log.Printf("[API] Posts status code: %d", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("posts request returned status %d", resp.StatusCode)
	}

	var body struct {
		Posts []Post `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode posts response: %v", err)
	}

	log.Printf("[API] Fetched %d posts", len(body.Posts))
	return body.Posts, nil
}

// Format renders a post the way it is pasted into the editor.
func Format(p Post) string {
	return fmt.Sprintf("Title: %s\n\n%s", p.Title, p.Body)
}
