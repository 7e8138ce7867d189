package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/services"
)

type GroupHandler struct {
	groups *services.GroupService
	log    logrus.FieldLogger
}

func NewGroupHandler(groups *services.GroupService, log logrus.FieldLogger) *GroupHandler {
	return &GroupHandler{groups: groups, log: log}
}

type CreateGroupRequest struct {
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"100"`
		Description string `json:"description,omitempty"`
		Image       string `json:"image,omitempty" doc:"Object storage reference"`
		Public      *bool  `json:"public,omitempty" doc:"Defaults to true"`
	}
}

type GroupResponse struct {
	Body GroupView
}

func (h *GroupHandler) HandleCreate(ctx context.Context, input *CreateGroupRequest) (*GroupResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := h.groups.Create(ctx, p.User.ID, services.CreateGroupInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Image:       input.Body.Image,
		Public:      input.Body.Public,
	})
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &GroupResponse{Body: groupView(*summary)}, nil
}

type ListGroupsResponse struct {
	Body []GroupView
}

func (h *GroupHandler) HandleList(ctx context.Context, _ *struct{}) (*ListGroupsResponse, error) {
	summaries, err := h.groups.List(ctx)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]GroupView, 0, len(summaries))
	for _, s := range summaries {
		body = append(body, groupView(s))
	}
	return &ListGroupsResponse{Body: body}, nil
}

type GroupIDPath struct {
	ID uint `path:"id"`
}

func (h *GroupHandler) HandleGet(ctx context.Context, input *GroupIDPath) (*GroupResponse, error) {
	summary, err := h.groups.Get(ctx, input.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &GroupResponse{Body: groupView(*summary)}, nil
}

type JoinGroupResponse struct {
	Body MembershipView
}

func (h *GroupHandler) HandleJoin(ctx context.Context, input *GroupIDPath) (*JoinGroupResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	m, err := h.groups.Join(ctx, p.User.ID, input.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &JoinGroupResponse{Body: MembershipView{
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		IsAdmin:  m.IsAdmin,
		JoinedAt: m.JoinedAt,
	}}, nil
}

type LeaveGroupResponse struct {
	Body MessageBody
}

func (h *GroupHandler) HandleLeave(ctx context.Context, input *GroupIDPath) (*LeaveGroupResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.groups.Leave(ctx, p.User.ID, input.ID); err != nil {
		return nil, humaError(h.log, err)
	}
	return &LeaveGroupResponse{Body: MessageBody{Message: "left the group"}}, nil
}

type GroupMembersResponse struct {
	Body []MemberView
}

func (h *GroupHandler) HandleMembers(ctx context.Context, input *GroupIDPath) (*GroupMembersResponse, error) {
	members, err := h.groups.Members(ctx, input.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]MemberView, 0, len(members))
	for _, m := range members {
		body = append(body, MemberView{User: userSummary(m.User), IsAdmin: m.IsAdmin, JoinedAt: m.JoinedAt})
	}
	return &GroupMembersResponse{Body: body}, nil
}
