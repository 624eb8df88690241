package cmd

import (
	"sort"
	"strings"

	"toolrent-cli/api"
)

type ToolRentals struct {
	ToolID   int64  `json:"tool_id"`
	ToolName string `json:"tool_name"`
	Rentals  int    `json:"rentals"`
}

type Analytics struct {
	TotalTools     int            `json:"total_tools"`
	AvailableTools int            `json:"available_tools"`
	TotalUsers     int            `json:"total_users"`
	Admins         int            `json:"admins"`
	TotalRentals   int            `json:"total_rentals"`
	ByStatus       map[string]int `json:"by_status"`
	Revenue        float64        `json:"revenue"`
	TopTool        *ToolRentals   `json:"top_tool,omitempty"`
	ByCategory     map[string]int `json:"by_category"`
}

// computeAnalytics counts revenue from APPROVED and COMPLETED rentals only.
// Ties for the top tool go to the lower tool id.
func computeAnalytics(tools []api.Tool, users []api.User, rents []api.Rental) Analytics {
	out := Analytics{
		TotalTools:   len(tools),
		TotalUsers:   len(users),
		TotalRentals: len(rents),
		ByStatus:     map[string]int{},
		ByCategory:   map[string]int{},
	}

	names := make(map[int64]string, len(tools))
	for _, tool := range tools {
		names[tool.ID] = tool.Name
		if tool.Available {
			out.AvailableTools++
		}
		category := tool.Category
		if category == "" {
			category = "uncategorized"
		}
		out.ByCategory[category]++
	}
	for _, user := range users {
		if user.IsAdmin() {
			out.Admins++
		}
	}

	perTool := map[int64]int{}
	for _, rent := range rents {
		status := strings.ToUpper(rent.Status)
		out.ByStatus[status]++
		switch status {
		case api.StatusApproved, api.StatusCompleted:
			out.Revenue += rent.TotalPrice
		}
		if id := rent.ToolRef(); id != 0 {
			perTool[id]++
			if names[id] == "" {
				names[id] = rent.ToolName()
			}
		}
	}
	out.Revenue = roundMoney(out.Revenue)

	ids := make([]int64, 0, len(perTool))
	for id := range perTool {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if out.TopTool == nil || perTool[id] > out.TopTool.Rentals {
			out.TopTool = &ToolRentals{ToolID: id, ToolName: names[id], Rentals: perTool[id]}
		}
	}
	return out
}

// filterUsers matches text against name and email, case-insensitively.
func filterUsers(users []api.User, text, role string) []api.User {
	text = strings.ToLower(strings.TrimSpace(text))
	role = strings.ToUpper(strings.TrimSpace(role))
	out := make([]api.User, 0, len(users))
	for _, user := range users {
		if role != "" && !strings.EqualFold(user.Role, role) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(user.Name), text) &&
			!strings.Contains(strings.ToLower(user.Email), text) {
			continue
		}
		out = append(out, user)
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
