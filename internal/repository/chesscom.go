package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

type ChessComClient struct {
	platformClient
}

func NewChessComClient(baseURL string, timeout time.Duration) *ChessComClient {
	return &ChessComClient{platformClient: newPlatformClient(baseURL, timeout)}
}

type chessComArchives struct {
	Archives []string `json:"archives"`
}

type chessComGames struct {
	Games []struct {
		URL     string `json:"url"`
		PGN     string `json:"pgn"`
		EndTime int64  `json:"end_time"`
	} `json:"games"`
}

// FetchGames walks the monthly archives from the newest backwards until max
// games are collected. Games come back newest first.
func (c *ChessComClient) FetchGames(ctx context.Context, username string, limit int) ([]string, error) {
	archives, err := doJSON[chessComArchives](ctx, c.platformClient,
		fmt.Sprintf("%s/pub/player/%s/games/archives", c.baseURL, url.PathEscape(username)))
	if err != nil {
		return nil, err
	}

	var pgns []string
	for i := len(archives.Archives) - 1; i >= 0 && len(pgns) < limit; i-- {
		month, err := doJSON[chessComGames](ctx, c.platformClient, archives.Archives[i])
		if err != nil {
			return nil, err
		}
		for j := len(month.Games) - 1; j >= 0 && len(pgns) < limit; j-- {
			if pgn := month.Games[j].PGN; pgn != "" {
				pgns = append(pgns, pgn)
			}
		}
	}
	return pgns, nil
}
