package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// oauthBaseURL is Reddit's API host for authenticated calls.
const oauthBaseURL = "https://oauth.reddit.com"

// defaultUploadTimeout bounds how long a single image upload attempt may
// take before the surrounding context is expected to have its own deadline.
const defaultUploadTimeout = 30 * time.Second

// apiClient is the concrete Client backed by Reddit's OAuth2 API. Construct
// it with NewClient.
type apiClient struct {
	http      *http.Client
	userAgent string
	baseURL   string // overridable in tests
}

// NewClient returns a Client authenticated with creds. ctx is retained only
// for the lifetime of the underlying token source, not per-call; callers
// still pass a ctx to every method for deadlines and cancellation.
func NewClient(ctx context.Context, creds Credentials) Client {
	return &apiClient{
		http:      newHTTPClient(ctx, creds),
		userAgent: creds.UserAgent(),
		baseURL:   oauthBaseURL,
	}
}

func (c *apiClient) SubmitText(ctx context.Context, p SubmitTextParams) error {
	form := url.Values{
		"sr":    {p.Subreddit},
		"kind":  {"self"},
		"title": {p.Title},
		"text":  {p.Body},
	}
	addFlair(form, p.FlairID)
	return c.retry(ctx, func() error { return c.postForm(ctx, "/api/submit", form) })
}

func (c *apiClient) SubmitPoll(ctx context.Context, p SubmitPollParams) error {
	optionsJSON, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("reddit: marshal poll options: %w", err)
	}
	form := url.Values{
		"sr":        {p.Subreddit},
		"kind":      {"poll"},
		"title":     {p.Title},
		"text":      {p.Selftext},
		"options":   {string(optionsJSON)},
	}
	if p.DurationDays > 0 {
		form.Set("duration", strconv.Itoa(int(p.DurationDays)))
	}
	addFlair(form, p.FlairID)
	return c.retry(ctx, func() error { return c.postForm(ctx, "/api/submit_poll_post", form) })
}

func (c *apiClient) SubmitImage(ctx context.Context, p SubmitImageParams) error {
	return c.retry(ctx, func() error {
		assetURL, websocketURL, err := c.leaseImageUpload(ctx, p.ImagePath)
		if err != nil {
			return err
		}
		if err := c.uploadToLease(ctx, assetURL, p.ImagePath); err != nil {
			return err
		}

		form := url.Values{
			"sr":            {p.Subreddit},
			"kind":          {"image"},
			"title":         {p.Title},
			"url":           {assetURL},
			"websocket_url": {websocketURL},
			"nsfw":          {strconv.FormatBool(p.NSFW)},
		}
		addFlair(form, p.FlairID)
		return c.postForm(ctx, "/api/submit", form)
	})
}

func (c *apiClient) SubmitURL(ctx context.Context, p SubmitURLParams) error {
	form := url.Values{
		"sr":    {p.Subreddit},
		"kind":  {"link"},
		"title": {p.Title},
		"url":   {p.URL},
	}
	addFlair(form, p.FlairID)
	return c.retry(ctx, func() error { return c.postForm(ctx, "/api/submit", form) })
}

func (c *apiClient) ListUserSelectableFlairs(ctx context.Context, subreddit string) ([]Flair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/r/"+url.PathEscape(subreddit)+"/api/link_flair_v2", nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: build flair request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: list flairs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil, fmt.Errorf("reddit: read flair response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reddit: list flairs: status %d: %.200s", resp.StatusCode, string(body))
	}

	var raw []struct {
		ID   string `json:"flair_template_id"`
		Text string `json:"flair_text"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("reddit: unmarshal flair response: %w", err)
	}

	flairs := make([]Flair, len(raw))
	for i, r := range raw {
		flairs[i] = Flair{ID: r.ID, Text: r.Text}
	}
	return flairs, nil
}

// ─── HELPERS ──────────────────────────────────────────────────────────────────

func addFlair(form url.Values, flairID string) {
	if flairID != "" {
		form.Set("flair_id", flairID)
	}
}

// postForm posts form-encoded params and interprets Reddit's "errors" array
// response shape, which is how submit endpoints report per-field problems
// (spec §6's "structured exception ... {error_type, message} items").
func (c *apiClient) postForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("reddit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reddit: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return fmt.Errorf("reddit: read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		// Transient — let the caller's backoff.Retry try again.
		return fmt.Errorf("reddit: %s: server error %d: %.200s", path, resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 400 {
		return backoff.Permanent(&SubmissionError{
			Items: []ItemError{{ErrorType: "http_" + strconv.Itoa(resp.StatusCode), Message: string(body)}},
		})
	}

	var parsed struct {
		JSON struct {
			Errors [][]string `json:"errors"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Not every successful Reddit response is this shape (image lease
		// responses aren't); a parse failure on a 2xx is not itself fatal.
		return nil
	}
	if len(parsed.JSON.Errors) > 0 {
		items := make([]ItemError, len(parsed.JSON.Errors))
		for i, e := range parsed.JSON.Errors {
			items[i] = itemErrorFromTuple(e)
		}
		return backoff.Permanent(&SubmissionError{Items: items})
	}

	return nil
}

func itemErrorFromTuple(e []string) ItemError {
	switch len(e) {
	case 0:
		return ItemError{ErrorType: "unknown", Message: "unknown error"}
	case 1:
		return ItemError{ErrorType: e[0], Message: e[0]}
	default:
		return ItemError{ErrorType: e[0], Message: e[1]}
	}
}

// leaseImageUpload requests a one-time upload lease for the image at path,
// mirroring Reddit's two-step media upload flow: first a lease naming an
// upload URL, then a direct upload to that URL (uploadToLease).
func (c *apiClient) leaseImageUpload(ctx context.Context, path string) (assetURL, websocketURL string, err error) {
	form := url.Values{
		"filepath":    {path},
		"mimetype":    {"image/" + extFromPath(path)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/media/asset.json", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("reddit: build lease request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("reddit: lease request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", "", fmt.Errorf("reddit: read lease response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("reddit: lease request: status %d: %.200s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Args struct {
			Action string `json:"action"`
		} `json:"args"`
		Asset struct {
			AssetID      string `json:"asset_id"`
			WebsocketURL string `json:"websocket_url"`
		} `json:"asset"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("reddit: unmarshal lease response: %w", err)
	}

	return parsed.Args.Action, parsed.Asset.WebsocketURL, nil
}

// uploadToLease streams the file at path to the S3-style lease URL returned
// by leaseImageUpload. The upload gets its own bounded deadline on top of
// whatever the caller's ctx already carries, since a large image on a slow
// link should not be allowed to run indefinitely.
func (c *apiClient) uploadToLease(ctx context.Context, assetURL, path string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultUploadTimeout)
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reddit: open image %q: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", path)
	if err != nil {
		return fmt.Errorf("reddit: build upload body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reddit: copy image into upload body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("reddit: close upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, assetURL, &body)
	if err != nil {
		return fmt.Errorf("reddit: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reddit: upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reddit: upload image: status %d", resp.StatusCode)
	}
	return nil
}

// retry wraps fn in an exponential backoff of up to 3 attempts, per
// steveyegge-beads's cenkalti/backoff usage. fn must return
// backoff.Permanent(err) for failures that retrying cannot fix (validation,
// auth, 4xx). postForm does so; leaseImageUpload and uploadToLease return
// plain errors for every non-2xx status, so SubmitImage retries those
// regardless of status.
func (c *apiClient) retry(ctx context.Context, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(fn, b)
}

func extFromPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return "png"
}
