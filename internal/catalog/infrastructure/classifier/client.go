package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/skotsonis/paperflow/internal/catalog/domain"
)

// Client resolves descriptions through a remote classification service.
// The service receives the raw term plus the valid catalog names and answers
// with the chosen item id, or matched=false when nothing fits.
type Client struct {
	log      *slog.Logger
	http     *http.Client
	endpoint string
}

func NewClient(log *slog.Logger, endpoint string) *Client {
	return &Client{
		log:      log,
		http:     &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
}

type resolveRequest struct {
	Term  string   `json:"term"`
	Names []string `json:"names"`
}

type resolveResponse struct {
	ItemID  string `json:"item_id"`
	Matched bool   `json:"matched"`
}

func (c *Client) Resolve(ctx context.Context, rawDescription string, catalog domain.Catalog) (domain.Item, bool, error) {
	names := make([]string, 0, catalog.Len())
	for _, it := range catalog.Items() {
		names = append(names, it.Name)
	}

	body, err := json.Marshal(resolveRequest{Term: rawDescription, Names: names})
	if err != nil {
		return domain.Item{}, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Item{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Item{}, false, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Item{}, false, fmt.Errorf("classifier status %d", resp.StatusCode)
	}

	var out resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Item{}, false, fmt.Errorf("classifier decode: %w", err)
	}
	if !out.Matched {
		return domain.Item{}, false, nil
	}

	it, ok := catalog.ByID(out.ItemID)
	if !ok {
		c.log.Warn("classifier returned unknown item id", "item_id", out.ItemID, "term", rawDescription)
		return domain.Item{}, false, nil
	}
	return it, true, nil
}
