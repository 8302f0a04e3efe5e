// Package imagestore is the client for the external image-upload
// collaborator. The core never interprets the returned handle, it only
// stores and forwards it.
package imagestore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/observability"
)

const defaultBaseURL = "https://api.cloudinary.com"

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	// BaseURL overrides the upload API host, mainly for tests
	BaseURL string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	prom       *observability.Prom
}

func New(cfg Config, prom *observability.Prom) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		prom: prom,
	}
}

func (c *Client) observe(op string, fn func() error) error {
	if c.prom != nil {
		return c.prom.ObserveCollaborator("imagestore", op, fn)
	}
	return fn()
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

type destroyResponse struct {
	Result string `json:"result"`
}

// Upload sends the picture source (a data URL or a remote URL) to the store
// under a caller-chosen public id and folder, and returns the opaque handle.
func (c *Client) Upload(ctx context.Context, source, publicID, folder string) (user.ImageRef, error) {
	params := url.Values{}
	params.Set("file", source)
	params.Set("public_id", publicID)

	if folder != "" {
		params.Set("folder", folder)
	}

	var out uploadResponse

	err := c.observe("upload", func() error {
		return c.post(ctx, "/image/upload", params, &out)
	})

	if err != nil {
		return user.ImageRef{}, err
	}

	return user.ImageRef{PublicID: out.PublicID, URL: out.SecureURL}, nil
}

// Destroy removes a previously uploaded image by public id.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	params := url.Values{}
	params.Set("public_id", publicID)

	var out destroyResponse

	err := c.observe("destroy", func() error {
		return c.post(ctx, "/image/destroy", params, &out)
	})

	if err != nil {
		return err
	}

	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("image store destroy result %q", out.Result)
	}

	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	params.Set("timestamp", ts)
	params.Set("signature", c.sign(params))
	params.Set("api_key", c.cfg.APIKey)

	fullURL := fmt.Sprintf("%s/v1_1/%s%s", c.cfg.BaseURL, c.cfg.CloudName, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(params.Encode()))

	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return fmt.Errorf("image store call: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image store status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	return nil
}

// sign builds the request signature the upload API expects: the sorted
// non-auth params joined with &, secret appended, SHA-1 over the lot.
func (c *Client) sign(params url.Values) string {
	keys := make([]string, 0, len(params))

	for k := range params {
		if k == "file" || k == "api_key" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))

	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.cfg.APISecret))

	return hex.EncodeToString(sum[:])
}
