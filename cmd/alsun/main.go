package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"alsun-go/internal/app"
	"alsun-go/internal/config"
	"alsun-go/internal/model"
	"alsun-go/internal/sealing"
	"alsun-go/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp assembles the client. The caller must defer a.Close(runErr).
// operation identifies the CLI command being run (e.g. "Login", "Upload").
func newApp(operation string, params map[string]string) (*app.App, error) {
	a, err := app.New(operation, params)
	if err != nil {
		return nil, fmt.Errorf("initializing client: %w", err)
	}
	return a, nil
}

// promptPassword reads a password without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

var rootCmd = &cobra.Command{
	Use:   "alsun",
	Short: "Alsun Academy client",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		deviceID := uuid.New().String()
		cfg := config.NewConfig(deviceID, defaults["base_dir"])
		if url, _ := cmd.Flags().GetString("base-url"); url != "" {
			cfg.BaseURL = url
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Device ID: %s\n", deviceID)
		fmt.Printf("Base URL:  %s\n", cfg.BaseURL)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Device ID: %s\n", cfg.DeviceID)
		fmt.Printf("Base URL:  %s\n", cfg.BaseURL)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Storage:   %s (%s)\n", cfg.Storage.Type, cfg.Storage.DataDir)
		fmt.Printf("Sealing:   %s\n", cfg.Sealing.Type)
		return nil
	},
}

var configSealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Generate a session encryption key and enable sealing",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		sealer := sealing.NewAgeSealer(cfg.Sealing)
		if err := sealer.Setup(); err != nil {
			return fmt.Errorf("generating key: %w", err)
		}

		cfg.Sealing.Type = "age"
		if err := config.Save(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("updating config: %w", err)
		}

		fmt.Printf("Session sealing enabled.\n")
		fmt.Printf("Recipient: %s\n", cfg.Sealing.RecipientPath)
		fmt.Printf("Identity:  %s\n", cfg.Sealing.IdentityPath)
		return nil
	},
}

// session commands
var loginCmd = &cobra.Command{
	Use:   "login CODE",
	Short: "Sign in and persist the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("Login", map[string]string{"code": args[0]})
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		user, err := a.Service.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}

		fmt.Printf("Signed in as %s (%s), %s / %s\n", user.Username, user.Role, user.Department, user.Division)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("Logout", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		if err := a.Service.Logout(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active session",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("Whoami", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		user, ok := a.Service.RestoreSession()
		if !ok {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("%s — %s (%s), %s / %s\n", user.Code, user.Username, user.Role, user.Department, user.Division)
		return nil
	},
}

// content commands
var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Browse and manage content",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List content in your department and division",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("ListContent", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		user, ok := a.Service.RestoreSession()
		if !ok {
			return fmt.Errorf("not signed in")
		}

		items, err := a.Service.Content(cmd.Context(), user.Department, user.Division)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No content.")
			return nil
		}

		for _, c := range items {
			fmt.Printf("%-8s  %-30s  .%-4s  %s  %s\n", c.ID, c.Title, c.FileType, c.UploadedBy, c.UploadDate)
		}
		return nil
	},
}

var contentUploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a content file (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		title, _ := cmd.Flags().GetString("title")
		desc, _ := cmd.Flags().GetString("description")

		a, err := newApp("Upload", map[string]string{"title": title})
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		a.Service.RestoreSession()
		if err := a.Service.Upload(cmd.Context(), title, args[0], desc); err != nil {
			return err
		}
		fmt.Printf("Uploaded %s\n", title)
		return nil
	},
}

var contentRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a content record (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("DeleteContent", map[string]string{"id": args[0]})
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		user, ok := a.Service.RestoreSession()
		if !ok {
			return fmt.Errorf("not signed in")
		}

		if err := a.Service.DeleteContent(cmd.Context(), args[0], user.Department, user.Division); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var contentOpenCmd = &cobra.Command{
	Use:   "open ID",
	Short: "Open a content file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("OpenContent", map[string]string{"id": args[0]})
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		user, ok := a.Service.RestoreSession()
		if !ok {
			return fmt.Errorf("not signed in")
		}

		items, err := a.Service.Content(cmd.Context(), user.Department, user.Division)
		if err != nil {
			return err
		}

		for _, c := range items {
			if c.ID != args[0] {
				continue
			}
			if model.ViewerFor(c.FileType) == model.ViewerText {
				text, err := a.Service.FetchText(cmd.Context(), c.FilePath)
				if err != nil {
					return err
				}
				fmt.Println(text)
				return nil
			}
			fmt.Println(a.Service.FileURL(c.FilePath))
			return nil
		}
		return fmt.Errorf("no content with id %s", args[0])
	},
}

// chat commands
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Department chat",
}

var chatLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the chat transcript",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("ListMessages", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		user, ok := a.Service.RestoreSession()
		if !ok {
			return fmt.Errorf("not signed in")
		}

		msgs, err := a.Service.Messages(cmd.Context(), user.Department, user.Division)
		if err != nil {
			return err
		}
		printMessages(msgs, user.Code)
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send MESSAGE...",
	Short: "Send a chat message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("SendMessage", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		a.Service.RestoreSession()
		if err := a.Service.Send(cmd.Context(), strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Println("Sent.")
		return nil
	},
}

var chatWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the chat, refreshing on the poll interval",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("WatchMessages", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		user, ok := a.Service.RestoreSession()
		if !ok {
			return fmt.Errorf("not signed in")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		msgs, err := a.Service.Messages(ctx, user.Department, user.Division)
		if err != nil {
			return err
		}
		printMessages(msgs, user.Code)
		seen := len(msgs)

		ticker := time.NewTicker(a.Config.PollInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				msgs, err := a.Service.RefreshMessages(ctx, user.Department, user.Division)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
					continue
				}
				if len(msgs) > seen {
					printMessages(msgs[seen:], user.Code)
				}
				seen = len(msgs)
			}
		}
	},
}

func printMessages(msgs []model.Message, selfCode string) {
	for _, msg := range msgs {
		sender := msg.Username
		if sender == "" {
			sender = msg.SenderID
		}
		if msg.SenderID == selfCode {
			sender = "you"
		}
		fmt.Printf("[%s] %s: %s\n", msg.Timestamp, sender, msg.Content)
	}
}

// users commands
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts (admin)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("ListUsers", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		a.Service.RestoreSession()
		users, err := a.Service.Users(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%-10s  %-20s  %-6s  %s / %s\n", u.Code, u.Username, u.Role, u.Department, u.Division)
		}
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add CODE",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		username, _ := cmd.Flags().GetString("username")
		department, _ := cmd.Flags().GetString("department")
		division, _ := cmd.Flags().GetString("division")
		role, _ := cmd.Flags().GetString("role")

		a, err := newApp("AddUser", map[string]string{"code": args[0], "role": role})
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		password, err := promptPassword("Password for new account: ")
		if err != nil {
			return err
		}

		a.Service.RestoreSession()
		err = a.Service.AddUser(cmd.Context(), model.NewUser{
			Code:       args[0],
			Username:   username,
			Department: department,
			Division:   division,
			Role:       role,
			Password:   password,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s)\n", args[0], role)
		return nil
	},
}

var usersRmCmd = &cobra.Command{
	Use:   "rm CODE",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("RemoveUser", map[string]string{"code": args[0]})
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		a.Service.RestoreSession()
		if err := a.Service.RemoveUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// ops command
var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "View recent client operations",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		ops, err := a.Store.RecentOperations(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("%-15s  %s  %-8s  %s  %s\n",
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// ui command
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Start the interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) (runErr error) {
		a, err := newApp("UI", nil)
		if err != nil {
			return err
		}
		defer func() { a.Close(runErr) }()

		return ui.Run(a.Service, a.Config, a.Logger)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("base-url", "", "Backend base URL")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSealCmd)

	// content subcommands
	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentUploadCmd)
	contentUploadCmd.Flags().StringP("title", "t", "", "Content title")
	contentUploadCmd.Flags().StringP("description", "d", "", "Content description")
	contentCmd.AddCommand(contentRmCmd)
	contentCmd.AddCommand(contentOpenCmd)

	// chat subcommands
	chatCmd.AddCommand(chatLogCmd)
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatWatchCmd)

	// users subcommands
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersAddCmd.Flags().StringP("username", "u", "", "Display name")
	usersAddCmd.Flags().String("department", "", "Department")
	usersAddCmd.Flags().String("division", "", "Division")
	usersAddCmd.Flags().String("role", model.RoleMember, "Role: admin or member")
	usersCmd.AddCommand(usersRmCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(opsCmd)
	opsCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(uiCmd)
}
