package external

import (
	"context"
	"fmt"
)

type catResponse []struct {
	URL string `json:"url"`
}

type dogResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// CatImage returns the URL of a random cat picture
func (c *Client) CatImage(ctx context.Context) (string, error) {
	url := c.cfg.Cat.BaseURL
	if c.cfg.Cat.APIKey != "" {
		url += "?api_key=" + c.cfg.Cat.APIKey
	}

	var resp catResponse
	if err := c.getJSON(ctx, "cat", url, &resp); err != nil {
		return "", err
	}
	if len(resp) == 0 || resp[0].URL == "" {
		return "", fmt.Errorf("cat response has no image")
	}
	return resp[0].URL, nil
}

// DogImage returns the URL of a random dog picture
func (c *Client) DogImage(ctx context.Context) (string, error) {
	var resp dogResponse
	if err := c.getJSON(ctx, "dog", c.cfg.Dog.BaseURL, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" || (resp.Status != "" && resp.Status != "success") {
		return "", fmt.Errorf("dog response has no image")
	}
	return resp.Message, nil
}
