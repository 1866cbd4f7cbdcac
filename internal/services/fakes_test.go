package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harentsoaR/clinic-api/internal/models"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type fakeUploader struct {
	folders []string
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, _ string, folder string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.folders = append(u.folders, folder)
	return "https://cdn.test/" + folder + ".png", nil
}

type notification struct {
	recipient string
	title     string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, recipient *models.Account, title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{recipient: recipient.ID.Hex(), title: title})
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.title)
	}
	return out
}

type stubTokens struct{}

func (stubTokens) Issue(userID, _, _, role string) (string, error) {
	if userID == "" {
		return "", errors.New("empty subject")
	}
	return "token-" + role + "-" + userID, nil
}
