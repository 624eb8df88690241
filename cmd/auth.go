package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}

	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authRegisterCmd())
	cmd.AddCommand(authStatusCmd())
	cmd.AddCommand(authLogoutCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	var email string
	var password string
	var authFile string
	authFileDefault := os.Getenv("TOOLRENT_AUTH_FILE")

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the marketplace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if authFile != "" {
				fileEmail, filePassword, err := readAuthFile(authFile)
				if err != nil {
					return err
				}
				if email == "" {
					email = fileEmail
				}
				if password == "" {
					password = filePassword
				}
			}

			email, password, err := promptCredentials(email, password)
			if err != nil {
				return err
			}

			resp, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := sessions.Login(resp.Token, resp.User); err != nil {
				return err
			}

			logger.Info().Int64("user_id", resp.User.ID).Msg("logged in")
			fmt.Fprintf(stdout, "Logged in as %s.\n", sessions.Current().DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&authFile, "auth-file", authFileDefault, "Load credentials from file (default: $TOOLRENT_AUTH_FILE)")
	return cmd
}

func authRegisterCmd() *cobra.Command {
	var name string
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			email, password, err := promptCredentials(email, password)
			if err != nil {
				return err
			}

			resp, err := client.Register(cmd.Context(), strings.TrimSpace(name), email, password)
			if err != nil {
				return err
			}
			if resp.Token == "" {
				fmt.Fprintf(stdout, "Account created for %s. Run 'toolrent auth login' to sign in.\n", email)
				return nil
			}
			if err := sessions.Login(resp.Token, resp.User); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Account created. Logged in as %s.\n", sessions.Current().DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func authStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check auth status",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := sessions.Current()
			type status struct {
				LoggedIn  bool   `json:"logged_in"`
				User      string `json:"user,omitempty"`
				Admin     bool   `json:"admin"`
				Expired   bool   `json:"expired"`
				ExpiresAt string `json:"expires_at,omitempty"`
			}
			out := status{LoggedIn: current.LoggedIn()}
			if current.LoggedIn() {
				out.User = current.DisplayName()
				out.Admin = current.IsAdmin()
				out.Expired = current.Expired(now())
				if claims, err := current.Claims(); err == nil && claims.ExpiresAt != nil {
					out.ExpiresAt = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
				}
			}

			if outputJSON {
				return writeJSON(out)
			}
			if !out.LoggedIn {
				fmt.Fprintln(stdout, "Not logged in.")
				return nil
			}
			if out.Expired {
				fmt.Fprintf(stdout, "Token expired for %s. Run 'toolrent auth login' to re-authenticate.\n", out.User)
				return nil
			}
			role := "user"
			if out.Admin {
				role = "admin"
			}
			fmt.Fprintf(stdout, "Logged in as %s (%s).\n", out.User, role)
			if out.ExpiresAt != "" {
				fmt.Fprintf(stdout, "Token expires: %s\n", out.ExpiresAt)
			}
			return nil
		},
	}

	return cmd
}

func authLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Logout and clear the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sessions.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Logged out.")
			return nil
		},
	}

	return cmd
}

func promptCredentials(email, password string) (string, string, error) {
	if email == "" {
		fmt.Fprint(stdout, "Email: ")
		reader := bufio.NewReader(stdin)
		value, err := reader.ReadString('\n')
		if err != nil {
			return "", "", err
		}
		email = strings.TrimSpace(value)
	}
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", "", err
		}
		password = strings.TrimSpace(string(bytes))
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required")
	}
	return email, password, nil
}

func readAuthFile(path string) (string, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var email string
	var password string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "[email]", "[username]":
			if scanner.Scan() {
				email = strings.TrimSpace(scanner.Text())
			}
		case "[password]":
			if scanner.Scan() {
				password = strings.TrimSpace(scanner.Text())
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	return email, password, nil
}
