package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"chapterhub/internal/cli"
	"chapterhub/internal/config"
	gsheet "chapterhub/internal/sheets/google"
)

// oauth-init obtains a refresh token for the budget export. The OAuth client
// must list http://localhost:<OAUTH_REDIRECT_PORT>/callback as a redirect URI.
func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	oauthCfg, err := gsheet.LoadOAuthConfig(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	tok, err := gsheet.Authorize(ctx, oauthCfg, cfg.OAuthRedirectPort, func(url string) {
		fmt.Printf("Open this URL to authorize:\n%s\n", url)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "authorization failed:", err)
		os.Exit(1)
	}

	out := cfg.GoogleOAuthTokenFile
	if out == "" {
		out = "token.json"
	}
	if err := gsheet.SaveToken(out, tok); err != nil {
		fmt.Fprintln(os.Stderr, "save token:", err)
		os.Exit(1)
	}
	fmt.Printf("Saved token to %s\n", out)
}
