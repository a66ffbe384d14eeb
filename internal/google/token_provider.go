package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token is stored for a user.
var ErrNoToken = errors.New("no valid Google OAuth token found")

// TokenProvider is an interface for providing OAuth tokens for Google APIs.
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified user
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified user
	HasTokenForAccount(account string) bool
}

var accountPattern = regexp.MustCompile(`^[A-Za-z0-9_@-][A-Za-z0-9_.@-]*$`)

// validateAccountName ensures the account can be used as a file name.
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if len(account) > 128 {
		return fmt.Errorf("account name is too long")
	}
	if !accountPattern.MatchString(account) {
		return fmt.Errorf("account name contains invalid characters: %q", account)
	}
	return nil
}

// FileTokenProvider stores one JSON token file per user below dir.
type FileTokenProvider struct {
	dir string
	mu  sync.Mutex
}

// NewFileTokenProvider creates a file-based token provider rooted at dir.
func NewFileTokenProvider(dir string) *FileTokenProvider {
	return &FileTokenProvider{dir: dir}
}

func (p *FileTokenProvider) tokenPath(account string) string {
	return filepath.Join(p.dir, "google-"+account+".token")
}

// GetTokenForAccount reads the stored token for account.
func (p *FileTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.tokenPath(account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrNoToken
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	return &token, nil
}

// HasTokenForAccount checks if a token file exists for account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(p.tokenPath(account))
	return err == nil
}

// SaveToken writes token for account, replacing any previous one.
func (p *FileTokenProvider) SaveToken(account string, token *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(p.tokenPath(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// ExchangeAndSave exchanges an authorization code and stores the result.
func (p *FileTokenProvider) ExchangeAndSave(ctx context.Context, conf *oauth2.Config, account, code string) error {
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return p.SaveToken(account, token)
}

// StaticTokenProvider serves tokens from memory.
type StaticTokenProvider struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewStaticTokenProvider returns a provider seeded with tokens.
func NewStaticTokenProvider(tokens map[string]*oauth2.Token) *StaticTokenProvider {
	p := &StaticTokenProvider{tokens: make(map[string]*oauth2.Token, len(tokens))}
	for k, v := range tokens {
		p.tokens[k] = v
	}
	return p
}

// Set stores token for account.
func (p *StaticTokenProvider) Set(account string, token *oauth2.Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[account] = token
}

func (p *StaticTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	token, ok := p.tokens[account]
	if !ok {
		return nil, ErrNoToken
	}
	return token, nil
}

func (p *StaticTokenProvider) HasTokenForAccount(account string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.tokens[account]
	return ok
}
