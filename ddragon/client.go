// Package ddragon reads patch versions and static champion data from Riot's
// Data Dragon CDN. It uses ordinary certificate verification; nothing here
// shares the relaxed trust of the local client session.
package ddragon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DefaultEndpoint is the public Data Dragon host.
const DefaultEndpoint = "https://ddragon.leagueoflegends.com"

const maxBody = 32 << 20

// ErrNoVersions is returned when the versions list is empty.
var ErrNoVersions = errors.New("ddragon: versions list is empty")

// Client talks to Data Dragon. Debug lines go to Logger, or to the standard
// logger when Logger is nil.
type Client struct {
	Endpoint string
	Logger   *log.Logger
	Debug    bool
	client   *http.Client
}

// Champion is the subset of champion.json used by uggo.
type Champion struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// NewClient builds a client for endpoint, defaulting to DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Versions lists every published patch, newest first.
func (c *Client) Versions(ctx context.Context) ([]string, error) {
	var versions []string
	if err := c.getJSON(ctx, "/api/versions.json", &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// LatestVersion returns the newest patch.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	versions, err := c.Versions(ctx)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", ErrNoVersions
	}
	return versions[0], nil
}

// Champions returns the champion roster for version sorted by name.
func (c *Client) Champions(ctx context.Context, version string) ([]Champion, error) {
	if version == "" {
		return nil, errors.New("ddragon: version required")
	}
	var payload struct {
		Data map[string]Champion `json:"data"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/cdn/%s/data/en_US/champion.json", version), &payload); err != nil {
		return nil, err
	}
	champs := make([]Champion, 0, len(payload.Data))
	for _, champ := range payload.Data {
		champs = append(champs, champ)
	}
	sort.Slice(champs, func(i, j int) bool { return champs[i].Name < champs[j].Name })
	return champs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			return fmt.Errorf("ddragon error: %s: %s", resp.Status, detail)
		}
		return fmt.Errorf("ddragon error: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return err
	}
	c.logf("GET %s -> %d bytes", path, len(body))
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("ddragon: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) getHTTPClient() *http.Client {
	if c.client != nil {
		return c.client
	}
	c.client = &http.Client{Timeout: 15 * time.Second}
	return c.client
}

func (c *Client) logf(format string, args ...interface{}) {
	if !c.Debug {
		return
	}
	logger := c.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[ddragon] "+format, args...)
}
