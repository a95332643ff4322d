package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reposync/internal/auth"
	"reposync/pkg/config"
	"reposync/pkg/github"
)

var (
	authLoginWeb   bool
	authLoginStdin bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long: `Commands for managing the GitHub token.

The token is looked up in GITHUB_TOKEN, then github_token in the configuration
file, then the system keyring where 'auth login' stores it.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Validate a GitHub token and store it in the system keyring",
	Long: `Prompt for a GitHub token, check it against the API and store it in the
system keyring.

Classic tokens need the repo scope. Fine-grained tokens need read and write
access to repository contents.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the token comes from and whether it works",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the token from the system keyring",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

func init() {
	authLoginCmd.Flags().BoolVar(&authLoginWeb, "web", false, "Open the token creation page in the browser first")
	authLoginCmd.Flags().BoolVar(&authLoginStdin, "with-token", false, "Read the token from standard input")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

// browserOpener is replaced in tests
var browserOpener auth.BrowserOpener = auth.NewBrowserOpener()

func loadFileConfig() (*config.Config, error) {
	path, err := config.NewFileStore(cfgFile).Path()
	if err != nil {
		return nil, err
	}
	return config.LoadConfigFromPath(path)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	if authLoginWeb {
		pageURL, err := auth.TokenPageURL(cfg.GitHubAPIURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "🌐 Create a token at: %s\n", pageURL)
		if err := browserOpener.Open(pageURL); err != nil {
			fmt.Fprintf(out, "⚠️  Could not open the browser: %v\n", err)
		}
	}

	token, err := readToken(cmd)
	if err != nil {
		return err
	}

	am := github.NewAuthManager(github.WithEnterpriseURL(cfg.GitHubAPIURL))
	if err := am.Authenticate(token); err != nil {
		return err
	}

	info, err := am.ValidateToken(cmd.Context())
	if err != nil {
		printAuthError(cmd.ErrOrStderr(), err)
		return errReported
	}

	store := tokenStore()
	if err := store.Set(token); err != nil {
		printAuthError(cmd.ErrOrStderr(), err)
		return errReported
	}

	fmt.Fprintf(out, "✅ Logged in as %s\n", info.User)
	fmt.Fprintf(out, "🔑 Token stored in %s\n", store.Name())
	if os.Getenv(config.TokenEnvVar) != "" || strings.TrimSpace(cfg.GitHubToken) != "" {
		fmt.Fprintln(out, "⚠️  GITHUB_TOKEN or github_token is set and takes precedence over the stored token")
	}
	return nil
}

// readToken prompts without echo on a terminal, otherwise reads one line
func readToken(cmd *cobra.Command) (string, error) {
	var token string
	if !authLoginStdin && stdinIsTerminal() {
		fmt.Fprint(cmd.OutOrStdout(), "Paste your GitHub token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		token = string(raw)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("no token provided")
	}
	return token, nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	token, source := resolveToken(cfg)
	if token == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s\n\n%s\n", auth.ErrNoToken.Message, github.GetAuthInstructions())
		return errReported
	}
	fmt.Fprintf(out, "Token source: %s\n", source)

	info, err := validateToken(cmd.Context(), cfg, token)
	if err != nil {
		printAuthError(cmd.ErrOrStderr(), err)
		return errReported
	}

	fmt.Fprintf(out, "✅ Authenticated as %s\n", info.User)
	if len(info.Scopes) > 0 {
		fmt.Fprintf(out, "Scopes: %s\n", strings.Join(info.Scopes, ", "))
	} else {
		fmt.Fprintln(out, "Scopes: none reported (fine-grained token)")
	}
	return nil
}

// resolveToken mirrors the order used by sync passes and names the source
func resolveToken(cfg *config.Config) (string, string) {
	if token := strings.TrimSpace(os.Getenv(config.TokenEnvVar)); token != "" {
		return token, "environment (" + config.TokenEnvVar + ")"
	}
	if token := strings.TrimSpace(cfg.GitHubToken); token != "" {
		return token, "configuration file"
	}
	store := tokenStore()
	if token, err := store.Get(); err == nil && token != "" {
		return token, store.Name()
	}
	return "", ""
}

func validateToken(ctx context.Context, cfg *config.Config, token string) (*github.TokenInfo, error) {
	resolved := *cfg
	resolved.GitHubToken = token
	return github.NewAuthManager(github.WithEnterpriseURL(cfg.GitHubAPIURL)).AuthenticateFromConfig(ctx, &resolved)
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	store := tokenStore()
	if err := store.Delete(); err != nil {
		printAuthError(cmd.ErrOrStderr(), err)
		return errReported
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Token removed from %s\n", store.Name())
	return nil
}

func printAuthError(w io.Writer, err error) {
	classified := auth.ClassifyError(err)
	fmt.Fprintf(w, "❌ %s\n", classified.Message)
	if msg := classified.GetTroubleshootingMessage(); msg != "" {
		fmt.Fprint(w, msg)
	}
}
