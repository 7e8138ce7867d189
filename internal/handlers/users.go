package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/auth"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
)

type UserHandler struct {
	identity    *services.IdentityService
	reports     *services.ReportService
	authHandler *auth.AuthHandler
	log         logrus.FieldLogger
}

func NewUserHandler(identity *services.IdentityService, reports *services.ReportService, authHandler *auth.AuthHandler, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{identity: identity, reports: reports, authHandler: authHandler, log: log}
}

type AuthResponse struct {
	Body struct {
		User   UserDetail     `json:"user"`
		Tokens auth.TokenPair `json:"tokens"`
	}
}

func (h *UserHandler) authResponse(user *models.User) (*AuthResponse, error) {
	pair, err := h.authHandler.Tokens().Issue(user.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	res := &AuthResponse{}
	res.Body.User = userDetail(*user)
	res.Body.Tokens = pair
	return res, nil
}

type RegisterRequest struct {
	Body struct {
		Username        string `json:"username" minLength:"1" maxLength:"150"`
		Email           string `json:"email" format:"email" maxLength:"254"`
		Password        string `json:"password" minLength:"8"`
		PasswordConfirm string `json:"passwordConfirm"`
		FirstName       string `json:"firstName,omitempty" maxLength:"150"`
		LastName        string `json:"lastName,omitempty" maxLength:"150"`
	}
}

func (h *UserHandler) HandleRegister(ctx context.Context, input *RegisterRequest) (*AuthResponse, error) {
	user, err := h.identity.Register(ctx, services.RegisterInput{
		Username:        input.Body.Username,
		Email:           input.Body.Email,
		Password:        input.Body.Password,
		PasswordConfirm: input.Body.PasswordConfirm,
		FirstName:       input.Body.FirstName,
		LastName:        input.Body.LastName,
	})
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return h.authResponse(user)
}

type LoginRequest struct {
	Body struct {
		Username string `json:"username" doc:"Username or email"`
		Password string `json:"password"`
	}
}

func (h *UserHandler) HandleLogin(ctx context.Context, input *LoginRequest) (*AuthResponse, error) {
	user, err := h.identity.Authenticate(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return h.authResponse(user)
}

type RefreshRequest struct {
	Body struct {
		Refresh string `json:"refresh"`
	}
}

type RefreshResponse struct {
	Body auth.TokenPair
}

func (h *UserHandler) HandleRefresh(ctx context.Context, input *RefreshRequest) (*RefreshResponse, error) {
	pair, _, err := h.authHandler.Refresh(ctx, input.Body.Refresh)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &RefreshResponse{Body: pair}, nil
}

type ProfileResponse struct {
	Body UserDetail
}

func (h *UserHandler) HandleGetProfile(ctx context.Context, _ *struct{}) (*ProfileResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := h.identity.Profile(ctx, p.User.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &ProfileResponse{Body: profileDetail(*profile)}, nil
}

type UpdateProfileRequest struct {
	Body struct {
		Email     *string `json:"email,omitempty" format:"email"`
		FirstName *string `json:"firstName,omitempty" maxLength:"150"`
		LastName  *string `json:"lastName,omitempty" maxLength:"150"`
		BirthDate *string `json:"birthDate,omitempty" format:"date"`
		Phone     *string `json:"phone,omitempty" maxLength:"15"`
		Avatar    *string `json:"avatar,omitempty"`
	}
}

func (h *UserHandler) HandleUpdateProfile(ctx context.Context, input *UpdateProfileRequest) (*ProfileResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	birth, err := parseOptionalDate("birthDate", input.Body.BirthDate)
	if err != nil {
		return nil, humaError(h.log, err)
	}

	profile, err := h.identity.UpdateProfile(ctx, p.User.ID, services.UpdateProfileInput{
		Email:     input.Body.Email,
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
		BirthDate: birth,
		Phone:     input.Body.Phone,
		Avatar:    input.Body.Avatar,
	})
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &ProfileResponse{Body: profileDetail(*profile)}, nil
}

type RankingRequest struct {
	Limit int `query:"limit" minimum:"0" doc:"Maximum number of users, capped at the configured ranking size"`
}

type RankingResponse struct {
	Body []UserSummary
}

func (h *UserHandler) HandleRanking(ctx context.Context, input *RankingRequest) (*RankingResponse, error) {
	users, err := h.reports.Ranking(ctx, input.Limit)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]UserSummary, 0, len(users))
	for _, u := range users {
		body = append(body, userSummary(u))
	}
	return &RankingResponse{Body: body}, nil
}

type ListUsersResponse struct {
	Body []UserDetail
}

func (h *UserHandler) HandleListUsers(ctx context.Context, _ *struct{}) (*ListUsersResponse, error) {
	users, err := h.identity.ListUsers(ctx)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]UserDetail, 0, len(users))
	for _, u := range users {
		body = append(body, userDetail(u))
	}
	return &ListUsersResponse{Body: body}, nil
}

type UserIDPath struct {
	ID uint `path:"id"`
}

func (h *UserHandler) HandleDeactivate(ctx context.Context, input *UserIDPath) (*struct{}, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.identity.Deactivate(ctx, p.Viewer(), input.ID); err != nil {
		return nil, humaError(h.log, err)
	}
	return nil, nil
}

// parseOptionalDate is shared by handlers that accept an optional date.
func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
