// Package upload stores images on Cloudinary.
package upload

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/httpclient"
)

var ErrNotConfigured = errors.New("cloudinary is not configured")

type Cloudinary struct {
	client    *httpclient.Client
	cloudName string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

func NewCloudinary(cfg config.CloudinaryConfig, log *zap.Logger) *Cloudinary {
	return &Cloudinary{
		client:    httpclient.New("cloudinary", cfg.BaseURL, cfg.Timeout, log),
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		now:       time.Now,
	}
}

// Upload sends a base64 image (raw or as a data URI) to folder and returns its secure URL.
func (c *Cloudinary) Upload(ctx context.Context, data, folder string) (string, error) {
	if c.cloudName == "" || c.apiKey == "" || c.apiSecret == "" {
		return "", ErrNotConfigured
	}
	if data == "" {
		return "", errors.New("empty image payload")
	}
	if !strings.HasPrefix(data, "data:") {
		data = "data:image/png;base64," + data
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	var result uploadResponse
	_, err := c.client.Do(func(r *resty.Request) (*resty.Response, error) {
		return r.SetContext(ctx).
			SetFormData(map[string]string{
				"file":      data,
				"folder":    folder,
				"timestamp": timestamp,
				"api_key":   c.apiKey,
				"signature": c.sign(folder, timestamp),
			}).
			SetResult(&result).
			Post("/" + c.cloudName + "/image/upload")
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.SecureURL == "" {
		return "", errors.New("cloudinary upload: response has no secure_url")
	}
	return result.SecureURL, nil
}

// sign computes the request signature: sha1 over the alphabetically ordered signed
// parameters followed by the API secret.
func (c *Cloudinary) sign(folder, timestamp string) string {
	sum := sha1.Sum([]byte("folder=" + folder + "&timestamp=" + timestamp + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
