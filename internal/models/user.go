package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user in the system
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword  string     `gorm:"column:encrypted_password;not null" json:"-"`
	FullName           string     `json:"full_name"`
	Phone              string     `json:"phone"`
	Role               string     `gorm:"default:student;index" json:"role"`
	Status             string     `gorm:"default:active" json:"status"`
	IsApproved         bool       `gorm:"default:false;index" json:"is_approved"`
	IsBanned           bool       `gorm:"default:false;index" json:"is_banned"`
	BannedUntil        *time.Time `json:"banned_until"`
	BanReason          *string    `gorm:"type:text" json:"ban_reason"`
	RecoveryCode       *string    `json:"-"`
	RecoveryCodeSentAt *time.Time `json:"-"`
	DiscardedAt        *time.Time `gorm:"index" json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Associations
	Departments   []Department   `gorm:"many2many:user_departments" json:"departments,omitempty"`
	IssueRequests []IssueRequest `gorm:"foreignKey:UserID" json:"issue_requests,omitempty"`
	IssueRecords  []IssueRecord  `gorm:"foreignKey:UserID" json:"issue_records,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// Role constants
const (
	RoleStudent     = "student"
	RoleFaculty     = "faculty"
	RoleStaff       = "staff"
	RoleIncharge    = "incharge"
	RoleAdmin       = "admin"
	RoleProcurement = "procurement"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Roles lists every valid role value
var Roles = []string{RoleStudent, RoleFaculty, RoleStaff, RoleIncharge, RoleAdmin, RoleProcurement}

// IsValidRole reports whether role is one of the known role values
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsIncharge returns true if user has incharge role
func (u *User) IsIncharge() bool {
	return u.Role == RoleIncharge
}

// IsActive returns true if user status is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DiscardedAt == nil
}

// IsDiscarded returns true if user is soft-deleted
func (u *User) IsDiscarded() bool {
	return u.DiscardedAt != nil
}

// InchargeOf reports whether the user is an incharge assigned to the department
func (u *User) InchargeOf(departmentID uint) bool {
	if !u.IsIncharge() {
		return false
	}
	for _, d := range u.Departments {
		if d.ID == departmentID {
			return true
		}
	}
	return false
}

// BanKind discriminates the possible ban states of a user
type BanKind int

const (
	// NotBanned means the user is in good standing
	NotBanned BanKind = iota
	// BannedUntilDate is a timed ban with a future end date
	BannedUntilDate
	// BannedIndefinitely is an open-ended ban (compensation pending), cleared
	// only by an explicit administrative revoke
	BannedIndefinitely
	// ExpiredTimedBan is a timed ban whose end date has passed but whose
	// stored flag has not been cleared yet. Request approval still treats
	// these users as banned; the kind exists so admin views can surface them.
	ExpiredTimedBan
)

// BanStanding is the resolved ban state of a user at a point in time
type BanStanding struct {
	Kind  BanKind
	Until *time.Time
}

// BanStanding resolves the stored (is_banned, banned_until) pair into a
// single unambiguous state. is_banned with a nil date means indefinite.
func (u *User) BanStanding(now time.Time) BanStanding {
	if !u.IsBanned {
		return BanStanding{Kind: NotBanned}
	}
	if u.BannedUntil == nil {
		return BanStanding{Kind: BannedIndefinitely}
	}
	if now.After(*u.BannedUntil) {
		return BanStanding{Kind: ExpiredTimedBan, Until: u.BannedUntil}
	}
	return BanStanding{Kind: BannedUntilDate, Until: u.BannedUntil}
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	IsApproved  bool       `json:"is_approved"`
	IsBanned    bool       `json:"is_banned"`
	BannedUntil *time.Time `json:"banned_until"`
	BanReason   *string    `json:"ban_reason"`
	Departments []string   `json:"departments,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Phone:       u.Phone,
		Role:        u.Role,
		Status:      u.Status,
		IsApproved:  u.IsApproved,
		IsBanned:    u.IsBanned,
		BannedUntil: u.BannedUntil,
		BanReason:   u.BanReason,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	for _, d := range u.Departments {
		resp.Departments = append(resp.Departments, d.Code)
	}
	return resp
}
