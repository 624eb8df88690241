package api

const (
	StatusApproved  = "APPROVED"
	StatusPending   = "PENDING"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Tool struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	DailyPrice  float64 `json:"dailyPrice"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Available   bool    `json:"available"`
	OwnerID     int64   `json:"ownerId,omitempty"`
}

type ToolInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	DailyPrice  float64 `json:"dailyPrice"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Available   bool    `json:"available"`
}

type RentalTool struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RentalUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Rental mirrors the backend record. Older endpoints send toolId, newer ones embed the tool.
type Rental struct {
	ID            int64       `json:"id"`
	ToolID        int64       `json:"toolId,omitempty"`
	Tool          *RentalTool `json:"tool,omitempty"`
	UserID        int64       `json:"userId,omitempty"`
	User          *RentalUser `json:"user,omitempty"`
	Status        string      `json:"status"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
	TotalPrice    float64     `json:"totalPrice,omitempty"`
	PayPalOrderID string      `json:"paypalOrderId,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty"`
}

func (r Rental) ToolRef() int64 {
	if r.ToolID != 0 {
		return r.ToolID
	}
	if r.Tool != nil {
		return r.Tool.ID
	}
	return 0
}

func (r Rental) ToolName() string {
	if r.Tool != nil {
		return r.Tool.Name
	}
	return ""
}

func (r Rental) UserRef() int64 {
	if r.UserID != 0 {
		return r.UserID
	}
	if r.User != nil {
		return r.User.ID
	}
	return 0
}

type RentalInput struct {
	ToolID        int64   `json:"toolId"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	TotalPrice    float64 `json:"totalPrice"`
	PayPalOrderID string  `json:"paypalOrderId,omitempty"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type UserUpdate struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
