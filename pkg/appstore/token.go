// Package appstore provides the App Store Connect API transport: signed
// token generation and paginated review fetching.
package appstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/apperrors"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

// Audience is the fixed audience claim required by App Store Connect.
const Audience = "appstoreconnect-v1"

// DefaultTokenTTL is the default signed token lifetime. Apple rejects tokens
// valid for more than 20 minutes; 10 leaves margin for clock skew and
// in-flight pagination.
const DefaultTokenTTL = 10 * time.Minute

// TokenProvider mints ES256-signed bearer tokens for App Store Connect and
// caches one token per account. Construct one provider per sync run so the
// cache never outlives the run or leaks across runs.
type TokenProvider struct {
	ttl    time.Duration
	now    func() time.Time
	cache  map[int64]string
	logger *zap.Logger
}

// NewTokenProvider creates a token provider with an empty per-run cache.
func NewTokenProvider(ttl time.Duration, logger *zap.Logger) *TokenProvider {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenProvider{
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[int64]string),
		logger: logger.Named("appstore-token"),
	}
}

// Token returns a signed bearer token for the account, minting one on first
// use and reusing it for the rest of the run. Malformed credentials fail
// account-scoped; the caller decides whether to continue with other accounts.
func (p *TokenProvider) Token(account *models.Account) (string, error) {
	if token, ok := p.cache[account.ID]; ok {
		return token, nil
	}

	token, err := p.sign(account)
	if err != nil {
		return "", err
	}

	p.cache[account.ID] = token
	p.logger.Debug("Minted App Store Connect token",
		zap.Int64("account_id", account.ID),
		zap.Duration("ttl", p.ttl))

	return token, nil
}

func (p *TokenProvider) sign(account *models.Account) (string, error) {
	if !account.HasCredentials() {
		return "", fmt.Errorf("account %d: %w", account.ID, apperrors.ErrMissingCredentials)
	}

	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(NormalizePrivateKey(account.PrivateKey)))
	if err != nil {
		return "", fmt.Errorf("account %d: parse private key: %w", account.ID, err)
	}

	now := p.now()
	claims := jwt.RegisteredClaims{
		Issuer:    account.IssuerID,
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = account.KeyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("account %d: sign token: %w", account.ID, err)
	}

	return signed, nil
}

// NormalizePrivateKey converts literal \n escape sequences into real
// newlines. Keys pasted into env vars or web forms commonly arrive escaped.
func NormalizePrivateKey(pem string) string {
	return strings.ReplaceAll(pem, `\n`, "\n")
}
