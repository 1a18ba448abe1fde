package google

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/servar-dev/servar/internal/instrumentation"
	"github.com/servar-dev/servar/internal/logging"
)

// persistingTokenSource wraps the config's refreshing token source and
// rewrites the token file whenever a new access token is issued.
type persistingTokenSource struct {
	ctx  context.Context
	cred *Credential
	base oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(ctx context.Context, cred *Credential) *persistingTokenSource {
	return &persistingTokenSource{
		ctx:  ctx,
		cred: cred,
		base: cred.Config.TokenSource(ctx, cred.Token),
		last: cred.Token.AccessToken,
	}
}

// Token implements oauth2.TokenSource.
func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	provider := s.cred.Provider.String()

	tok, err := s.base.Token()
	if err != nil {
		s.cred.metrics.RecordOAuthTokenRefresh(s.ctx, provider, instrumentation.OAuthResultFailure)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken
	s.cred.metrics.RecordOAuthTokenRefresh(s.ctx, provider, instrumentation.OAuthResultSuccess)

	if err := writeTokenFile(s.cred.TokenPath, newAuthorizedUser(s.cred.Config, tok)); err != nil {
		// The refreshed token is still usable for this process.
		s.cred.log().Warn("failed to persist refreshed token", logging.Path(s.cred.TokenPath), logging.Err(err))
	} else {
		s.cred.log().Debug("persisted refreshed token", logging.Path(s.cred.TokenPath))
	}
	return tok, nil
}
