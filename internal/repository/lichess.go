package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

type LichessClient struct {
	platformClient
}

func NewLichessClient(baseURL string, timeout time.Duration) *LichessClient {
	return &LichessClient{platformClient: newPlatformClient(baseURL, timeout)}
}

// FetchGames exports the user's latest games as one multi-game PGN.
func (c *LichessClient) FetchGames(ctx context.Context, username string, limit int) ([]string, error) {
	u := fmt.Sprintf("%s/api/games/user/%s?max=%d&clocks=false&evals=false&opening=false",
		c.baseURL, url.PathEscape(username), limit)

	body, err := doRequest(ctx, c.platformClient, u, "application/x-chess-pgn")
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return []string{string(body)}, nil
}
