package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/internal/config"
	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
	loginAPIKey   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a Jellyfin server",
	Long: `Sign in to a Jellyfin server and store the session for later use.

The server address and username are prompted for when not given as
flags. The resulting access token is written to the credentials file
(~/.config/jellyctl/credentials.json by default); the password itself is
never stored.

To use a server-issued API key instead of a user account, pass
--api-key. API keys are not tied to a user, so user-scoped commands
like search will not work with them.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the stored session",
	Long: `Revoke the current session on the server and clear the stored access
token. The server stays in the credentials file so 'jellyctl login' can
reconnect to it.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringVarP(&loginServer, "server", "s", "", "Server address, e.g. http://jellyfin.local:8096")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username to sign in with")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginAPIKey, "api-key", "", "Use a server API key instead of a user account")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	server := loginServer
	if server == "" {
		server = cfg.Server
	}
	if server == "" {
		fmt.Print("Server address: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read server address: %w", err)
		}
		server = strings.TrimSpace(line)
	}
	if server == "" {
		return fmt.Errorf("server address is required")
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	// Probe first so an unreachable or mistyped address fails before any
	// credentials are asked for.
	info, err := client.ConnectToAddress(ctx, server)
	if err != nil {
		return fmt.Errorf("cannot reach server: %w", err)
	}
	fmt.Printf("Connected to %s (version %s)\n", info.ServerName, info.Version)

	if loginAPIKey != "" {
		if err := loginWithAPIKey(ctx, client, cfg, server, info.ID); err != nil {
			return err
		}
	} else {
		if err := loginWithPassword(ctx, client, cfg, server, reader); err != nil {
			return err
		}
	}

	// Remember the server and the device id actually used, so future
	// sessions present the same device.
	cfg.Server = server
	cfg.DeviceID = client.DeviceID()
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := saveSession(client, cfg); err != nil {
		return err
	}

	fmt.Printf("\n✓ Signed in\n")
	fmt.Printf("✓ Session saved to %s\n", cfg.CredentialsFile)
	return nil
}

func loginWithPassword(ctx context.Context, client *jellyfin.Client, cfg *config.Config, server string, reader *bufio.Reader) error {
	username := loginUsername
	if username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	password := loginPassword
	if password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	result, err := client.Login(ctx, server, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Signed in as %s\n", result.User.Name)
	return nil
}

func loginWithAPIKey(ctx context.Context, client *jellyfin.Client, cfg *config.Config, server, serverID string) error {
	store := client.Credentials()
	store.AddOrUpdate(jellyfin.ServerCredential{
		ID:          serverID,
		Address:     server,
		AccessToken: loginAPIKey,
	})
	if err := store.SetActive(serverID); err != nil {
		return err
	}

	// Validate the key with a call any key can make.
	if _, err := client.System().Info(ctx); err != nil {
		return fmt.Errorf("API key rejected: %w", err)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, cfg, err := loadSession(ctx)
	if err != nil {
		return err
	}

	if err := client.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	if err := saveSession(client, cfg); err != nil {
		return err
	}

	fmt.Println("Signed out")
	return nil
}
