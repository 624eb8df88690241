package cmd

import (
	"fmt"
	"strings"

	"toolrent-cli/api"
	"toolrent-cli/availability"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users, tools and rentals",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			_, err := requireAdmin()
			return err
		},
	}

	cmd.AddCommand(adminUsersCmd())
	cmd.AddCommand(adminToolsCmd())
	cmd.AddCommand(adminRentsCmd())
	cmd.AddCommand(adminAnalyticsCmd())
	return cmd
}

func adminUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	cmd.AddCommand(adminUsersListCmd())
	cmd.AddCommand(adminUsersUpdateCmd())
	cmd.AddCommand(adminUsersDeleteCmd())
	return cmd
}

func adminUsersListCmd() *cobra.Command {
	var search string
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			users = filterUsers(users, search, role)

			if outputJSON {
				return writeJSON(users)
			}
			if len(users) == 0 {
				fmt.Fprintln(stdout, "No users found.")
				return nil
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME\tEMAIL\tROLE")
			}
			for _, user := range users {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", user.ID, truncate(user.Name, 28), user.Email, user.Role)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Match name or email")
	cmd.Flags().StringVar(&role, "role", "", "Only this role (ADMIN, USER)")
	return cmd
}

func adminUsersUpdateCmd() *cobra.Command {
	var name string
	var email string
	var role string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user's name, email or role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			update := api.UserUpdate{
				Name:  strings.TrimSpace(name),
				Email: strings.TrimSpace(email),
				Role:  strings.ToUpper(strings.TrimSpace(role)),
			}
			if update == (api.UserUpdate{}) {
				return fmt.Errorf("nothing to update: pass --name, --email or --role")
			}
			if update.Role != "" && update.Role != api.RoleAdmin && update.Role != api.RoleUser {
				return fmt.Errorf("invalid role %q (expected ADMIN or USER)", role)
			}

			user, err := client.UpdateUser(cmd.Context(), id, update)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(user)
			}
			fmt.Fprintf(stdout, "Updated user %d: %s <%s> %s\n", user.ID, user.Name, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&role, "role", "", "New role (ADMIN, USER)")
	return cmd
}

func adminUsersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete user %d? [Y/n] ", id))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if err := client.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Deleted user %d.\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	return cmd
}

type toolFlags struct {
	name        string
	description string
	category    string
	price       float64
	imageURL    string
	available   bool
}

func (f *toolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Tool name")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.category, "category", "", "Category")
	cmd.Flags().Float64Var(&f.price, "price", 0, "Daily price")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "Image URL")
	cmd.Flags().BoolVar(&f.available, "available", true, "Listed as available")
}

// apply overlays the flags the user set onto base.
func (f *toolFlags) apply(cmd *cobra.Command, base api.ToolInput) api.ToolInput {
	flags := cmd.Flags()
	if flags.Changed("name") {
		base.Name = strings.TrimSpace(f.name)
	}
	if flags.Changed("description") {
		base.Description = f.description
	}
	if flags.Changed("category") {
		base.Category = strings.TrimSpace(f.category)
	}
	if flags.Changed("price") {
		base.DailyPrice = f.price
	}
	if flags.Changed("image-url") {
		base.ImageURL = f.imageURL
	}
	if flags.Changed("available") {
		base.Available = f.available
	}
	return base
}

func validateToolInput(input api.ToolInput) error {
	if input.Name == "" {
		return fmt.Errorf("--name is required")
	}
	if input.DailyPrice <= 0 {
		return fmt.Errorf("--price must be greater than 0")
	}
	return nil
}

func adminToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage the catalog",
	}

	cmd.AddCommand(adminToolsCreateCmd())
	cmd.AddCommand(adminToolsUpdateCmd())
	cmd.AddCommand(adminToolsDeleteCmd())
	return cmd
}

func adminToolsCreateCmd() *cobra.Command {
	flags := &toolFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := flags.apply(cmd, api.ToolInput{Available: true})
			if err := validateToolInput(input); err != nil {
				return err
			}
			tool, err := client.CreateTool(cmd.Context(), input)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(tool)
			}
			fmt.Fprintf(stdout, "Created tool %d: %s (%s/day)\n", tool.ID, tool.Name, formatMoney(tool.DailyPrice))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func adminToolsUpdateCmd() *cobra.Command {
	flags := &toolFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			current, err := client.GetTool(ctx, id)
			if err != nil {
				return err
			}
			input := flags.apply(cmd, api.ToolInput{
				Name:        current.Name,
				Description: current.Description,
				Category:    current.Category,
				DailyPrice:  current.DailyPrice,
				ImageURL:    current.ImageURL,
				Available:   current.Available,
			})
			if err := validateToolInput(input); err != nil {
				return err
			}
			tool, err := client.UpdateTool(ctx, id, input)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(tool)
			}
			fmt.Fprintf(stdout, "Updated tool %d: %s (%s/day)\n", tool.ID, tool.Name, formatMoney(tool.DailyPrice))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func adminToolsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete tool %d? [Y/n] ", id))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if err := client.DeleteTool(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Deleted tool %d.\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	return cmd
}

func adminRentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rents",
		Short: "Review rentals",
	}

	cmd.AddCommand(adminRentsListCmd())
	cmd.AddCommand(adminRentsSetStatusCmd())
	return cmd
}

func adminRentsListCmd() *cobra.Command {
	var toolFilter string
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rentals",
		RunE: func(cmd *cobra.Command, args []string) error {
			var toolID int64
			if toolFilter != "" {
				id, err := parseID(toolFilter)
				if err != nil {
					return err
				}
				toolID = id
			}
			rents, err := client.ListRents(cmd.Context(), toolID)
			if err != nil {
				return err
			}
			if status != "" {
				filtered := rents[:0]
				for _, rent := range rents {
					if strings.EqualFold(rent.Status, status) {
						filtered = append(filtered, rent)
					}
				}
				rents = filtered
			}

			if outputJSON {
				return writeJSON(rents)
			}
			if len(rents) == 0 {
				fmt.Fprintln(stdout, "No rentals found.")
				return nil
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tTOOL\tUSER\tFROM\tTO\tSTATUS\tPRICE")
			}
			for _, rent := range rents {
				tool := rent.ToolName()
				if tool == "" {
					tool = fmt.Sprintf("#%d", rent.ToolRef())
				}
				fmt.Fprintf(writer, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n", rent.ID, truncate(tool, 28), rent.UserRef(), shortDate(rent.StartDate), shortDate(rent.EndDate), strings.ToLower(rent.Status), formatMoney(rent.TotalPrice))
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&toolFilter, "tool", "", "Only rentals of this tool id")
	cmd.Flags().StringVar(&status, "status", "", "Only this status")
	return cmd
}

var settableStatuses = []string{api.StatusApproved, api.StatusRejected, api.StatusCancelled, api.StatusCompleted}

func adminRentsSetStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Approve, reject, cancel or complete a rental",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := strings.ToUpper(strings.TrimSpace(args[1]))
			valid := false
			for _, s := range settableStatuses {
				if s == status {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid status %q (expected one of %s)", args[1], strings.Join(settableStatuses, ", "))
			}

			rent, err := client.UpdateRentStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(rent)
			}
			fmt.Fprintf(stdout, "Rental %d is now %s.\n", rent.ID, strings.ToLower(rent.Status))
			return nil
		},
	}

	return cmd
}

func adminAnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize tools, users and rentals",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tools []api.Tool
			var users []api.User
			var rents []api.Rental

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				tools, err = client.ListTools(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				users, err = client.ListUsers(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				rents, err = client.ListRents(ctx, 0)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			stats := computeAnalytics(tools, users, rents)
			if outputJSON {
				return writeJSON(stats)
			}

			fmt.Fprintf(stdout, "Tools: %d (%d available)\n", stats.TotalTools, stats.AvailableTools)
			fmt.Fprintf(stdout, "Users: %d (%d admins)\n", stats.TotalUsers, stats.Admins)
			fmt.Fprintf(stdout, "Rentals: %d\n", stats.TotalRentals)
			for _, status := range sortedKeys(stats.ByStatus) {
				fmt.Fprintf(stdout, "  %s: %d\n", strings.ToLower(status), stats.ByStatus[status])
			}
			fmt.Fprintf(stdout, "Revenue: %s\n", formatMoney(stats.Revenue))
			if stats.TopTool != nil {
				fmt.Fprintf(stdout, "Top tool: %s (%d rentals)\n", stats.TopTool.ToolName, stats.TopTool.Rentals)
			}
			if len(stats.ByCategory) > 0 {
				fmt.Fprintln(stdout, "Categories:")
				for _, category := range sortedKeys(stats.ByCategory) {
					fmt.Fprintf(stdout, "  %s: %d\n", category, stats.ByCategory[category])
				}
			}
			return nil
		},
	}

	return cmd
}

func shortDate(value string) string {
	if day, ok := availability.ParseDate(value); ok {
		return day.Format("2006-01-02")
	}
	return value
}
