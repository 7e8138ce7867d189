package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Accounts without a
// password hash (Discord-only) never match.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type IdentityService struct {
	Deps
}

func NewIdentityService(deps Deps) *IdentityService {
	return &IdentityService{Deps: deps.withDefaults()}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	verr := &ValidationError{}
	if in.Username == "" {
		verr.Add("username", "is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if len(in.Password) < MinPasswordLength {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	} else if in.Password != in.PasswordConfirm {
		verr.Add("password", "password fields didn't match")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		Role:            models.RoleUser,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Level:           LevelFor(0),
		CO2AvoidedTotal: decimal.Zero,
		Active:          true,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return &ConflictError{Message: "username already taken"}
		}
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return &ConflictError{Message: "email already registered"}
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, translate(err, "", "username or email already registered")
	}

	s.Log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return &user, nil
}

// Authenticate checks a username (or email) and password pair.
func (s *IdentityService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)

	var user models.User
	err := s.DB.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &AuthenticationError{Message: "invalid credentials"}
	}
	if err != nil {
		return nil, translate(err, "", "")
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, &AuthenticationError{Message: "invalid credentials"}
	}
	if !user.Active {
		return nil, &AuthorizationError{Message: "account is disabled"}
	}
	return &user, nil
}

func (s *IdentityService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &user, nil
}

type Profile struct {
	User              models.User
	CompletedTasks    int64
	AchievementsCount int64
}

func (s *IdentityService) Profile(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := Profile{User: *user}
	db := s.DB.WithContext(ctx)
	if err := db.Model(&models.TaskEntry{}).
		Where("user_id = ? AND validated = ?", id, true).
		Count(&profile.CompletedTasks).Error; err != nil {
		return nil, translate(err, "", "")
	}
	if err := db.Model(&models.AchievementAward{}).
		Where("user_id = ?", id).
		Count(&profile.AchievementsCount).Error; err != nil {
		return nil, translate(err, "", "")
	}
	return &profile, nil
}

// UpdateProfileInput holds the user-editable profile fields. Counters,
// username and role are not editable here.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	BirthDate *time.Time
	Phone     *string
	Avatar    *string
}

func (s *IdentityService) UpdateProfile(ctx context.Context, id uint, in UpdateProfileInput) (*Profile, error) {
	updates := map[string]interface{}{}
	verr := &ValidationError{}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			verr.Add("email", "must be a valid email address")
		}
		updates["email"] = email
	}
	if in.BirthDate != nil {
		if inFuture(s.Deps, *in.BirthDate) {
			verr.Add("birthDate", "must not be in the future")
		}
		updates["birth_date"] = DateOf(*in.BirthDate)
	}
	if in.Phone != nil {
		if len(*in.Phone) > 15 {
			verr.Add("phone", "must be at most 15 characters")
		}
		updates["phone"] = *in.Phone
	}
	if in.FirstName != nil {
		updates["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		updates["last_name"] = *in.LastName
	}
	if in.Avatar != nil {
		updates["avatar"] = *in.Avatar
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error, "", "email already registered")
		}
		if res.RowsAffected == 0 {
			return nil, &NotFoundError{Message: "user not found"}
		}
	}

	return s.Profile(ctx, id)
}

func (s *IdentityService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Where("active = ?", true).Order("username ASC").Find(&users).Error; err != nil {
		return nil, translate(err, "", "")
	}
	return users, nil
}

// Deactivate soft-deletes an account. The ledger and awards stay in place.
func (s *IdentityService) Deactivate(ctx context.Context, viewer Viewer, id uint) error {
	if viewer.UserID == id {
		return NewValidationError("path.id", "administrators cannot deactivate themselves")
	}

	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return translate(res.Error, "", "")
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Message: "user not found"}
	}

	s.Log.WithFields(logrus.Fields{"user_id": id, "deactivated_by": viewer.UserID}).Info("user deactivated")
	return nil
}

// EnsureAdmin creates the bootstrap administrator, or promotes and
// reactivates an existing account with that username.
func (s *IdentityService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ?", username).First(&user).Error
		if err == nil {
			return tx.Model(&user).Updates(map[string]interface{}{"role": models.RoleAdmin, "active": true}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		user = models.User{
			Username:        username,
			Email:           strings.ToLower(email),
			PasswordHash:    hash,
			Role:            models.RoleAdmin,
			Level:           LevelFor(0),
			CO2AvoidedTotal: decimal.Zero,
			Active:          true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, translate(err, "", "admin email already registered")
	}
	return &user, nil
}

type DiscordProfile struct {
	ID       string
	Username string
	Email    string
	Avatar   string
}

// LoginWithDiscord returns the account linked to a Discord identity, creating
// one on first login. An existing password account with the same email is
// never linked implicitly.
func (s *IdentityService) LoginWithDiscord(ctx context.Context, p DiscordProfile) (*models.User, error) {
	if p.ID == "" {
		return nil, &AuthenticationError{Message: "discord identity missing"}
	}

	var user models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("discord_id = ?", p.ID).First(&user).Error
		if err == nil {
			if p.Avatar != "" && p.Avatar != user.Avatar {
				if err := tx.Model(&user).Update("avatar", p.Avatar).Error; err != nil {
					return err
				}
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		email := strings.ToLower(strings.TrimSpace(p.Email))
		if email == "" {
			email = p.ID + "@users.discord.invalid"
		}
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return &ConflictError{Message: "an account with this email already exists"}
		}

		username, err := freeUsername(tx, p.Username, p.ID)
		if err != nil {
			return err
		}

		discordID := p.ID
		user = models.User{
			Username:        username,
			Email:           email,
			DiscordID:       &discordID,
			Role:            models.RoleUser,
			Avatar:          p.Avatar,
			Level:           LevelFor(0),
			CO2AvoidedTotal: decimal.Zero,
			Active:          true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, translate(err, "", "account already exists")
	}
	if !user.Active {
		return nil, &AuthorizationError{Message: "account is disabled"}
	}
	return &user, nil
}

func freeUsername(tx *gorm.DB, base, fallback string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "discord-" + fallback
	}
	candidate := base
	for i := 1; i <= 50; i++ {
		var taken int64
		if err := tx.Model(&models.User{}).Where("username = ?", candidate).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "discord-" + fallback, nil
}
