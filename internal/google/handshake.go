package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/servar-dev/servar/internal/logging"
)

// Handshaker obtains a fresh token from the resource owner.
type Handshaker interface {
	Handshake(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// LocalServerHandshake runs the installed-app flow: it listens on a loopback
// port, sends the user to the consent page and exchanges the returned code.
type LocalServerHandshake struct {
	// Addr is the listen address (default: 127.0.0.1:0, an ephemeral port).
	Addr string

	// OpenBrowser is called with the consent URL. Nil only prints it.
	OpenBrowser func(url string) error

	// Out receives the consent URL (default: os.Stderr).
	Out io.Writer

	// Timeout bounds the wait for the callback. Zero waits for ctx.
	Timeout time.Duration

	Logger *slog.Logger
}

// Handshake implements Handshaker.
func (h *LocalServerHandshake) Handshake(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	addr := h.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	out := h.Out
	if out == nil {
		out = os.Stderr
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	state, err := randomState()
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	flow := *cfg
	flow.RedirectURL = "http://" + ln.Addr().String() + "/"

	codes := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, codes),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("callback listener stopped", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := flow.AuthCodeURL(state, oauth2.AccessTypeOffline)
	_, _ = fmt.Fprintf(out, "Open the following URL in your browser to authorize access:\n\n%s\n\n", authURL)
	if h.OpenBrowser != nil {
		if err := h.OpenBrowser(authURL); err != nil {
			logger.Info("could not open browser automatically", logging.Err(err))
		}
	}

	select {
	case res := <-codes:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := flow.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		return tok, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrHandshakeTimeout
		}
		return nil, ctx.Err()
	}
}

type callbackResult struct {
	code string
	err  error
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	send := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "Invalid state parameter.", http.StatusBadRequest)
			send(callbackResult{err: ErrStateMismatch})
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization was denied.", http.StatusForbidden)
			send(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}

		code := q.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
			send(callbackResult{err: errors.New("callback carried no authorization code")})
			return
		}

		_, _ = io.WriteString(w, "The authorization flow has completed. You may close this window.\n")
		send(callbackResult{code: code})
	})
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
