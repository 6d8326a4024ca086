package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	captchaAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	captchaLength   = 6
)

// ErrCaptchaMismatch is returned when a captcha answer is wrong, unknown or expired.
var ErrCaptchaMismatch = errors.New("captcha does not match")

// Captcha is an issued challenge. Code is shown to the user and echoed back on login.
type Captcha struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CaptchaStore holds issued captchas in memory until they are answered or expire.
type CaptchaStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]Captcha
}

// NewCaptchaStore creates a store whose captchas live for ttl.
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	return &CaptchaStore{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]Captcha),
	}
}

// Issue creates a new captcha.
func (s *CaptchaStore) Issue() (Captcha, error) {
	code, err := captchaCode()
	if err != nil {
		return Captcha{}, err
	}

	c := Captcha{
		ID:        uuid.NewString(),
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.pending[c.ID] = c
	s.mu.Unlock()
	return c, nil
}

// Verify checks answer against the captcha with the given id. A captcha can be
// answered once, right or wrong.
func (s *CaptchaStore) Verify(id, answer string) error {
	s.mu.Lock()
	c, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok || !s.now().Before(c.ExpiresAt) || c.Code != answer {
		return ErrCaptchaMismatch
	}
	return nil
}

// Purge drops expired captchas and returns how many were dropped.
func (s *CaptchaStore) Purge() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, c := range s.pending {
		if !now.Before(c.ExpiresAt) {
			delete(s.pending, id)
			n++
		}
	}
	return n
}

// Len returns the number of pending captchas.
func (s *CaptchaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func captchaCode() (string, error) {
	limit := big.NewInt(int64(len(captchaAlphabet)))
	code := make([]byte, captchaLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate captcha: %w", err)
		}
		code[i] = captchaAlphabet[n.Int64()]
	}
	return string(code), nil
}
