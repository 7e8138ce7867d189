package services

import (
	"context"
	"strings"

	"github.com/gdg-garage/ecopoints-api/internal/metrics"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupService struct {
	Deps
}

func NewGroupService(deps Deps) *GroupService {
	return &GroupService{Deps: deps.withDefaults()}
}

// GroupSummary is a group with its on-demand aggregates.
type GroupSummary struct {
	Group       models.Group
	MemberCount int64
	PointsTotal int64
}

type CreateGroupInput struct {
	Name        string
	Description string
	Image       string
	Public      *bool
}

// Create inserts the group and the creator's admin membership together.
func (s *GroupService) Create(ctx context.Context, creatorID uint, in CreateGroupInput) (*GroupSummary, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}

	creator := creatorID
	group := models.Group{
		Name:        name,
		Description: in.Description,
		CreatorID:   &creator,
		Image:       in.Image,
		Public:      true,
		Active:      true,
	}
	if in.Public != nil {
		group.Public = *in.Public
	}

	var owner models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&owner, creatorID).Error; err != nil {
			return translate(err, "user not found", "")
		}
		if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
			return err
		}
		membership := models.Membership{
			UserID:   creatorID,
			GroupID:  group.ID,
			IsAdmin:  true,
			JoinedAt: s.Now().UTC(),
		}
		return tx.Omit(clause.Associations).Create(&membership).Error
	})
	if err != nil {
		return nil, translate(err, "user not found", "a group with this name already exists")
	}

	log := s.Log.WithFields(logrus.Fields{"group_id": group.ID, "creator_id": creatorID})
	log.Info("group created")
	if err := s.Notifier.NotifyGroupCreated(group, owner); err != nil {
		log.WithError(err).Warn("group notification failed")
	}

	return &GroupSummary{Group: group, MemberCount: 1, PointsTotal: int64(owner.PointsTotal)}, nil
}

// List returns active groups, newest first.
func (s *GroupService) List(ctx context.Context) ([]GroupSummary, error) {
	var groups []models.Group
	err := s.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&groups).Error
	if err != nil {
		return nil, translate(err, "", "")
	}
	return s.summarize(ctx, groups)
}

func (s *GroupService) Get(ctx context.Context, id uint) (*GroupSummary, error) {
	group, err := s.activeGroup(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	summaries, err := s.summarize(ctx, []models.Group{*group})
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

// Join adds the user to a public group. A second join for the same pair is a
// conflict, whether caught here or by the unique index.
func (s *GroupService) Join(ctx context.Context, userID, groupID uint) (*models.Membership, error) {
	var membership models.Membership
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := s.activeGroup(tx, groupID)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND group_id = ?", userID, groupID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &ConflictError{Message: "already a member of this group"}
		}
		if !group.Public {
			return &AuthorizationError{Message: "group is private"}
		}

		membership = models.Membership{
			UserID:   userID,
			GroupID:  groupID,
			JoinedAt: s.Now().UTC(),
		}
		return tx.Omit(clause.Associations).Create(&membership).Error
	})
	if err != nil {
		return nil, translate(err, "group not found", "already a member of this group")
	}

	metrics.MembershipChanges.WithLabelValues("join").Inc()
	s.Log.WithFields(logrus.Fields{"group_id": groupID, "user_id": userID}).Info("group joined")
	return &membership, nil
}

// Leave removes the user's membership. The last admin may leave.
func (s *GroupService) Leave(ctx context.Context, userID, groupID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.activeGroup(tx, groupID); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND group_id = ?", userID, groupID).Delete(&models.Membership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Message: "not a member of this group"}
		}
		return nil
	})
	if err != nil {
		return translate(err, "group not found", "")
	}

	metrics.MembershipChanges.WithLabelValues("leave").Inc()
	s.Log.WithFields(logrus.Fields{"group_id": groupID, "user_id": userID}).Info("group left")
	return nil
}

// Members lists the group's memberships with their users, oldest first.
func (s *GroupService) Members(ctx context.Context, groupID uint) ([]models.Membership, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.activeGroup(db, groupID); err != nil {
		return nil, err
	}

	var members []models.Membership
	err := db.Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, translate(err, "", "")
	}
	return members, nil
}

// PointsTotal sums the current members' point totals.
func (s *GroupService) PointsTotal(ctx context.Context, groupID uint) (int64, error) {
	summary, err := s.Get(ctx, groupID)
	if err != nil {
		return 0, err
	}
	return summary.PointsTotal, nil
}

func (s *GroupService) activeGroup(db *gorm.DB, id uint) (*models.Group, error) {
	var group models.Group
	if err := db.Where("active = ?", true).First(&group, id).Error; err != nil {
		return nil, translate(err, "group not found", "")
	}
	return &group, nil
}

type groupAggregate struct {
	GroupID     uint
	MemberCount int64
	PointsTotal int64
}

func (s *GroupService) summarize(ctx context.Context, groups []models.Group) ([]GroupSummary, error) {
	summaries := make([]GroupSummary, len(groups))
	if len(groups) == 0 {
		return summaries, nil
	}

	ids := make([]uint, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}

	var aggregates []groupAggregate
	err := s.DB.WithContext(ctx).
		Model(&models.Membership{}).
		Select("memberships.group_id AS group_id, COUNT(*) AS member_count, COALESCE(SUM(users.points_total), 0) AS points_total").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.group_id IN ?", ids).
		Group("memberships.group_id").
		Scan(&aggregates).Error
	if err != nil {
		return nil, translate(err, "", "")
	}

	byGroup := make(map[uint]groupAggregate, len(aggregates))
	for _, a := range aggregates {
		byGroup[a.GroupID] = a
	}
	for i, g := range groups {
		a := byGroup[g.ID]
		summaries[i] = GroupSummary{Group: g, MemberCount: a.MemberCount, PointsTotal: a.PointsTotal}
	}
	return summaries, nil
}
