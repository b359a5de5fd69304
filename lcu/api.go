package lcu

import (
	"context"
	"fmt"
)

const (
	currentSummonerPath = "/lol-summoner/v1/current-summoner"
	runePagesPath       = "/lol-perks/v1/pages"
	currentRunePagePath = "/lol-perks/v1/currentpage"
)

// CurrentSummoner returns the signed-in player.
func (c *Client) CurrentSummoner(ctx context.Context) (Summoner, error) {
	return Get[Summoner](ctx, c, currentSummonerPath)
}

// RunePages lists every rune page, including the built-in ones.
func (c *Client) RunePages(ctx context.Context) ([]RunePage, error) {
	return Get[[]RunePage](ctx, c, runePagesPath)
}

// CurrentRunePage returns the page currently selected in the client.
func (c *Client) CurrentRunePage(ctx context.Context) (RunePage, error) {
	return Get[RunePage](ctx, c, currentRunePagePath)
}

// DeleteRunePage removes page id. A missing page surfaces as a StatusError
// with Code 404.
func (c *Client) DeleteRunePage(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("%s/%d", runePagesPath, id))
}

// CreateRunePage stores draft as a new page and returns it as created.
func (c *Client) CreateRunePage(ctx context.Context, draft NewRunePage) (RunePage, error) {
	return Post[NewRunePage, RunePage](ctx, c, runePagesPath, draft)
}
