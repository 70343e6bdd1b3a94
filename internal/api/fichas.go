package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
)

// Ficha is a cohort of apprentices enrolled together in a training program.
type Ficha struct {
	ID      int64  `json:"id"`
	Number  string `json:"number"`
	Program struct {
		Name string `json:"name"`
	} `json:"program"`
	Active bool `json:"active"`
}

type paginate struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// Fichas lists every ficha visible to the logged-in user, following the
// server's pagination.
func (c *Client) Fichas(ctx context.Context) ([]Ficha, error) {
	if cached, ok := c.fichas.get(); ok {
		return slices.Clone(cached), nil
	}

	var all []Ficha
	page := 1
	pageSize := 100

	for {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(pageSize)},
		}
		resp, err := c.Get(ctx, "fichas", query)
		if err != nil {
			return nil, fmt.Errorf("getting fichas: %w", err)
		}
		if err := resp.Err(); err != nil {
			return nil, fmt.Errorf("getting fichas: %w", err)
		}

		var fichas []Ficha
		if len(resp.Data) == 0 || string(resp.Data) == "null" {
			break
		}
		if err := json.Unmarshal(resp.Data, &fichas); err != nil {
			return nil, fmt.Errorf("parsing fichas response: %w", err)
		}
		all = append(all, fichas...)

		var p paginate
		if len(resp.Paginate) == 0 || json.Unmarshal(resp.Paginate, &p) != nil || p.CurrentPage >= p.LastPage || len(fichas) == 0 {
			break
		}
		page++
	}

	c.fichas.set(slices.Clone(all))
	return all, nil
}
