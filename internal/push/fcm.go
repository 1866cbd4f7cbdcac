// Package push delivers device notifications through the FCM HTTP endpoint.
package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/httpclient"
)

var ErrNotConfigured = errors.New("push server key is not configured")

type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Client struct {
	client    *httpclient.Client
	serverKey string
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func NewClient(cfg config.PushConfig, log *zap.Logger) *Client {
	return &Client{
		client:    httpclient.New("fcm", cfg.URL, cfg.Timeout, log),
		serverKey: cfg.ServerKey,
	}
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.serverKey == "" {
		return ErrNotConfigured
	}
	if msg.Token == "" {
		return errors.New("push: empty device token")
	}

	var result fcmResponse
	_, err := c.client.Do(func(r *resty.Request) (*resty.Response, error) {
		return r.SetContext(ctx).
			SetHeader("Authorization", "key="+c.serverKey).
			SetHeader("Content-Type", "application/json").
			SetBody(fcmRequest{
				To:           msg.Token,
				Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
				Data:         msg.Data,
			}).
			SetResult(&result).
			Post("")
	})
	if err != nil {
		return fmt.Errorf("push send: %w", err)
	}
	if result.Failure > 0 {
		reason := "unknown"
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			reason = result.Results[0].Error
		}
		return fmt.Errorf("push rejected: %s", reason)
	}
	return nil
}
