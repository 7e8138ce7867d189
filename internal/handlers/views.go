package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/gdg-garage/ecopoints-api/internal/auth"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
)

const dateLayout = "2006-01-02"

// Decimal renders CO2 amounts as strings with two decimal places.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{Type: huma.TypeString, Format: "decimal", Examples: []any{"2.50"}}
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.StringFixed(2) + `"`), nil
}

func formatDate(d datatypes.Date) string {
	return time.Time(d).Format(dateLayout)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, services.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f).Round(2)
	return &d
}

// currentPrincipal returns the caller stored by the auth middleware.
func currentPrincipal(ctx context.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return auth.Principal{}, huma.Error401Unauthorized("Unauthorized")
	}
	return p, nil
}

type UserSummary struct {
	ID              uint    `json:"id"`
	Username        string  `json:"username"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Avatar          string  `json:"avatar"`
	PointsTotal     int     `json:"pointsTotal"`
	Level           int     `json:"level"`
	CO2AvoidedTotal Decimal `json:"co2AvoidedTotal"`
}

func userSummary(u models.User) UserSummary {
	return UserSummary{
		ID:              u.ID,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Avatar:          u.Avatar,
		PointsTotal:     u.PointsTotal,
		Level:           u.Level,
		CO2AvoidedTotal: Decimal{u.CO2AvoidedTotal},
	}
}

type UserDetail struct {
	UserSummary
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	BirthDate         *string   `json:"birthDate"`
	Phone             string    `json:"phone"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"createdAt"`
	CompletedTasks    *int64    `json:"completedTasks,omitempty"`
	AchievementsCount *int64    `json:"achievementsCount,omitempty"`
}

func userDetail(u models.User) UserDetail {
	detail := UserDetail{
		UserSummary: userSummary(u),
		Email:       u.Email,
		Role:        string(u.Role),
		Phone:       u.Phone,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
	}
	if u.BirthDate != nil {
		s := formatDate(*u.BirthDate)
		detail.BirthDate = &s
	}
	return detail
}

func profileDetail(p services.Profile) UserDetail {
	detail := userDetail(p.User)
	detail.CompletedTasks = &p.CompletedTasks
	detail.AchievementsCount = &p.AchievementsCount
	return detail
}

type TaskTypeView struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	CO2PerAction  Decimal `json:"co2PerAction"`
	PointsAwarded int     `json:"pointsAwarded"`
	Icon          string  `json:"icon"`
	Active        bool    `json:"active"`
}

func taskTypeView(t models.TaskType) TaskTypeView {
	return TaskTypeView{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		Category:      string(t.Category),
		CO2PerAction:  Decimal{t.CO2PerAction},
		PointsAwarded: t.PointsAwarded,
		Icon:          t.Icon,
		Active:        t.Active,
	}
}

type TaskEntryView struct {
	ID           uint         `json:"id"`
	User         *UserSummary `json:"user,omitempty"`
	TaskType     TaskTypeView `json:"taskType"`
	DateOccurred string       `json:"dateOccurred"`
	CO2Avoided   Decimal      `json:"co2Avoided"`
	PointsGained int          `json:"pointsGained"`
	Notes        string       `json:"notes"`
	Photo        string       `json:"photo"`
	Validated    bool         `json:"validated"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// taskEntryView embeds the owner only when it was loaded, which happens for
// admin listings.
func taskEntryView(e models.TaskEntry) TaskEntryView {
	view := TaskEntryView{
		ID:           e.ID,
		TaskType:     taskTypeView(e.TaskType),
		DateOccurred: formatDate(e.DateOccurred),
		CO2Avoided:   Decimal{e.CO2Avoided},
		PointsGained: e.PointsGained,
		Notes:        e.Notes,
		Photo:        e.Photo,
		Validated:    e.Validated,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.User.ID != 0 {
		owner := userSummary(e.User)
		view.User = &owner
	}
	return view
}

type AchievementView struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Tier           string  `json:"tier"`
	Icon           string  `json:"icon"`
	PointsRequired int     `json:"pointsRequired"`
	TasksRequired  int     `json:"tasksRequired"`
	CO2Required    Decimal `json:"co2Required"`
}

func achievementView(a models.Achievement) AchievementView {
	return AchievementView{
		ID:             a.ID,
		Name:           a.Name,
		Description:    a.Description,
		Tier:           string(a.Tier),
		Icon:           a.Icon,
		PointsRequired: a.PointsRequired,
		TasksRequired:  a.TasksRequired,
		CO2Required:    Decimal{a.CO2Required},
	}
}

type AwardView struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"userId"`
	Achievement AchievementView `json:"achievement"`
	AwardedAt   time.Time       `json:"awardedAt"`
}

func awardView(a models.AchievementAward) AwardView {
	return AwardView{
		ID:          a.ID,
		UserID:      a.UserID,
		Achievement: achievementView(a.Achievement),
		AwardedAt:   a.AwardedAt,
	}
}

type GroupView struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatorID   *uint     `json:"creatorId"`
	Image       string    `json:"image"`
	Public      bool      `json:"public"`
	CreatedAt   time.Time `json:"createdAt"`
	MemberCount int64     `json:"memberCount"`
	PointsTotal int64     `json:"pointsTotal"`
}

func groupView(s services.GroupSummary) GroupView {
	return GroupView{
		ID:          s.Group.ID,
		Name:        s.Group.Name,
		Description: s.Group.Description,
		CreatorID:   s.Group.CreatorID,
		Image:       s.Group.Image,
		Public:      s.Group.Public,
		CreatedAt:   s.Group.CreatedAt,
		MemberCount: s.MemberCount,
		PointsTotal: s.PointsTotal,
	}
}

type MemberView struct {
	User     UserSummary `json:"user"`
	IsAdmin  bool        `json:"isAdmin"`
	JoinedAt time.Time   `json:"joinedAt"`
}

type MembershipView struct {
	GroupID  uint      `json:"groupId"`
	UserID   uint      `json:"userId"`
	IsAdmin  bool      `json:"isAdmin"`
	JoinedAt time.Time `json:"joinedAt"`
}

type MessageBody struct {
	Message string `json:"message"`
}
