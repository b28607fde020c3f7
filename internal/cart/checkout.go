package cart

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// Checkout reconciles the remote cart with the mirror and returns the URL of
// the hosted checkout page.
//
//  1. ensure a session (seeded from the mirror when created)
//  2. fetch remote lines and add max(0, desired-actual) per variant;
//     a failed addition is logged and checkout continues
//  3. re-fetch the checkout URL and rewrite its host to the canonical one
//
// If any step other than the addition fails, the session is cleared, a new
// one is created from the full mirror and the URL fetch is retried once.
// If that fails too an error notice is raised and the error returned.
func (p *Page) Checkout(ctx context.Context) (string, error) {
	checkoutURL, err := p.reconcileAndFetch(ctx)
	if err == nil {
		return checkoutURL, nil
	}

	p.logger.Warn("checkout failed, recreating remote cart",
		slog.String("error", err.Error()))

	checkoutURL, err = p.recreateAndFetch(ctx)
	if err != nil {
		p.logger.Error("checkout failed after recreating remote cart",
			slog.String("error", err.Error()))
		p.notify(LevelError, "Checkout is unavailable right now. Please try again.")
		return "", fmt.Errorf("checkout: %w", err)
	}
	return checkoutURL, nil
}

func (p *Page) reconcileAndFetch(ctx context.Context) (string, error) {
	if _, _, err := p.session.EnsureSession(ctx, p.mirror.Inputs()); err != nil {
		return "", fmt.Errorf("ensuring session: %w", err)
	}

	remote, err := p.session.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching cart lines: %w", err)
	}

	delta := reconcile.PositiveDelta(remote.QuantitiesByVariant(), p.mirror.Desired())
	if !delta.IsEmpty() {
		lines := make([]model.LineInput, 0, len(delta.ToAdd))
		for _, item := range delta.ToAdd {
			lines = append(lines, model.LineInput{VariantID: item.VariantID, Quantity: item.Quantity})
		}
		if _, err := p.session.AddLines(ctx, lines); err != nil {
			p.logger.Warn("reconciling cart before checkout failed, continuing",
				slog.Int("missing_lines", len(lines)),
				slog.String("error", err.Error()))
		} else {
			p.logger.Info("reconciled cart before checkout", slog.Int("added_lines", len(lines)))
		}
	}

	return p.fetchCheckoutURL(ctx)
}

func (p *Page) recreateAndFetch(ctx context.Context) (string, error) {
	if err := p.session.Clear(ctx); err != nil {
		return "", err
	}
	if _, _, err := p.session.EnsureSession(ctx, p.mirror.Inputs()); err != nil {
		return "", fmt.Errorf("recreating session: %w", err)
	}
	return p.fetchCheckoutURL(ctx)
}

func (p *Page) fetchCheckoutURL(ctx context.Context) (string, error) {
	remote, err := p.session.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching checkout url: %w", err)
	}
	if remote.CheckoutURL == "" {
		return "", model.NewNotFoundError("checkout url")
	}
	return RewriteHost(remote.CheckoutURL, p.svc.checkoutHost)
}

// RewriteHost replaces the host of rawURL with canonicalHost when they
// differ, keeping scheme, path, query and fragment. A port on rawURL is kept
// unless canonicalHost names its own. An empty canonicalHost leaves rawURL
// unchanged.
func RewriteHost(rawURL, canonicalHost string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid checkout url %q", rawURL)
	}
	if canonicalHost == "" {
		return rawURL, nil
	}

	wantHost, wantPort := canonicalHost, ""
	if h, port, err := net.SplitHostPort(canonicalHost); err == nil {
		wantHost, wantPort = h, port
	}
	if strings.EqualFold(u.Hostname(), wantHost) && (wantPort == "" || wantPort == u.Port()) {
		return rawURL, nil
	}

	port := u.Port()
	if wantPort != "" {
		port = wantPort
	}
	if port != "" {
		u.Host = net.JoinHostPort(wantHost, port)
	} else {
		u.Host = wantHost
	}
	return u.String(), nil
}
