package bulletin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gitlab.com/openqna/candour/internal/models"
)

// HTTPBoard talks to an external bulletin board service. The service holds
// the Merkle tree and its journal; this client stays a thin carrier of the
// Board contract.
type HTTPBoard struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBoard(baseURL string) *HTTPBoard {
	return &HTTPBoard{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type appendResponse struct {
	Hash models.HashValue `json:"hash"`
}

func (b *HTTPBoard) Append(ctx context.Context, entry []byte) (models.HashValue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/leaf", bytes.NewReader(entry))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: append returned %s", ErrUnavailable, resp.Status)
	}
	var out appendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding append response: %v", ErrUnavailable, err)
	}
	return out.Hash, nil
}

func (b *HTTPBoard) Fetch(ctx context.Context, leaf models.HashValue) (Leaf, error) {
	u := b.baseURL + "/leaf/" + url.PathEscape(string(leaf))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Leaf{}, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return Leaf{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Leaf{}, ErrNoSuchLeaf
	default:
		return Leaf{}, fmt.Errorf("%w: fetch returned %s", ErrUnavailable, resp.Status)
	}
	var out Leaf
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Leaf{}, fmt.Errorf("%w: decoding leaf: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (b *HTTPBoard) Censor(ctx context.Context, leaf models.HashValue) error {
	u := b.baseURL + "/leaf/" + url.PathEscape(string(leaf)) + "/censor"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNoSuchLeaf
	default:
		return fmt.Errorf("%w: censor returned %s", ErrUnavailable, resp.Status)
	}
}
