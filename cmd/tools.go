package cmd

import (
	"fmt"
	"strings"

	"toolrent-cli/api"
	"toolrent-cli/availability"
	"toolrent-cli/catalog"

	"github.com/spf13/cobra"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Browse the tool catalog",
	}

	cmd.AddCommand(toolsListCmd())
	cmd.AddCommand(toolsShowCmd())
	cmd.AddCommand(toolsCategoriesCmd())
	return cmd
}

func toolsListCmd() *cobra.Command {
	var search string
	var category string
	var sortOrder string
	var ignoreCase bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools, optionally filtered and sorted",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := catalog.ParseSortOrder(sortOrder)
			if err != nil {
				return err
			}

			tools, err := client.ListTools(cmd.Context())
			if err != nil {
				return err
			}

			filtered := catalog.Filter(tools, catalog.Query{
				Search:     search,
				Category:   category,
				Sort:       order,
				IgnoreCase: ignoreCase,
			})

			if outputJSON {
				return writeJSON(filtered)
			}
			if len(filtered) == 0 {
				fmt.Fprintln(stdout, "No tools found.")
				return nil
			}

			if outputCompact {
				for _, tool := range filtered {
					fmt.Fprintf(stdout, "#%d %s %s/day\n", tool.ID, tool.Name, formatMoney(tool.DailyPrice))
				}
				return nil
			}

			writer := newTable()
			fmt.Fprintln(writer, "ID\tNAME\tCATEGORY\tPRICE/DAY\tAVAILABLE")
			for _, tool := range filtered {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n", tool.ID, truncate(tool.Name, 40), tool.Category, formatMoney(tool.DailyPrice), yesNo(tool.Available))
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Text to find in name or description")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	cmd.Flags().StringVar(&sortOrder, "sort", string(catalog.SortRelevance), "relevance, price-asc or price-desc")
	cmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "Case-insensitive search")
	return cmd
}

type ToolDetailsOutput struct {
	Tool    api.Tool                 `json:"tool"`
	Blocked []availability.DateRange `json:"blocked"`
}

func toolsShowCmd() *cobra.Command {
	var month string
	var months int

	cmd := &cobra.Command{
		Use:   "show <tool-id>",
		Short: "Show a tool with its availability calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolID, err := parseID(args[0])
			if err != nil {
				return err
			}
			first, err := parseMonthInput(month)
			if err != nil {
				return err
			}
			if months <= 0 {
				months = cfg.Checkout.CalendarMonths
			}

			view, err := loadToolAvailability(cmd.Context(), toolID)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(ToolDetailsOutput{Tool: view.Tool, Blocked: view.Blocked})
			}

			tool := view.Tool
			fmt.Fprintf(stdout, "%s (#%d)\n", tool.Name, tool.ID)
			if tool.Category != "" {
				fmt.Fprintf(stdout, "Category: %s\n", tool.Category)
			}
			fmt.Fprintf(stdout, "Price: %s/day\n", formatMoney(tool.DailyPrice))
			if tool.Description != "" {
				fmt.Fprintf(stdout, "%s\n", tool.Description)
			}
			fmt.Fprintln(stdout)

			if outputCompact {
				return renderBlockedList(view.Blocked)
			}

			for i := 0; i < months; i++ {
				m := first.AddDate(0, i, 0)
				if err := availability.RenderMonth(stdout, m.Year(), m.Month(), view.Blocked, now()); err != nil {
					return err
				}
				fmt.Fprintln(stdout)
			}
			fmt.Fprintln(stdout, "x approved   * pending   > today")
			return renderBlockedList(view.Blocked)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "First month to show (YYYY-MM, default: current)")
	cmd.Flags().IntVar(&months, "months", 0, "Number of months to show (default from config)")
	return cmd
}

func renderBlockedList(blocked []availability.DateRange) error {
	if len(blocked) == 0 {
		fmt.Fprintln(stdout, "No blocked dates.")
		return nil
	}
	writer := newTable()
	fmt.Fprintln(writer, "FROM\tTO\tSTATUS\tSOURCE")
	for _, r := range blocked {
		source := "server"
		if r.Local {
			source = "local"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), strings.ToLower(r.Status), source)
	}
	return writer.Flush()
}

func toolsCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List tool categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := client.ListTools(cmd.Context())
			if err != nil {
				return err
			}
			categories := catalog.Categories(tools)
			if outputJSON {
				return writeJSON(categories)
			}
			if len(categories) == 0 {
				fmt.Fprintln(stdout, "No categories.")
				return nil
			}
			fmt.Fprintln(stdout, strings.Join(categories, "\n"))
			return nil
		},
	}

	return cmd
}
