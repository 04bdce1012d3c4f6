package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/YashVG/techprep-sub000/internal/models"
)

const groupSelect = `
SELECT g.id, g.name, g.description, g.creator_id, g.created_at, g.updated_at,
       u.username AS creator_username,
       (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id) AS member_count
FROM groups g
JOIN users u ON u.id = g.creator_id`

// GroupRepository manages groups and their memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns all groups, newest first.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := groupSelect + ` ORDER BY g.created_at DESC, g.id DESC`
	groups := []models.Group{}
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// ListByMember returns the groups userID belongs to.
func (r *GroupRepository) ListByMember(ctx context.Context, userID int64) ([]models.Group, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := groupSelect + `
JOIN group_members m ON m.group_id = g.id
WHERE m.user_id = $1
ORDER BY m.joined_at DESC, g.id DESC`
	groups := []models.Group{}
	if err := r.db.SelectContext(ctx, &groups, query, userID); err != nil {
		return nil, fmt.Errorf("list groups by member: %w", err)
	}
	return groups, nil
}

// FindByID returns a group by identifier.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := groupSelect + ` WHERE g.id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// ListMembers returns the members of a group in join order.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `
SELECT gm.group_id, gm.user_id, u.username, gm.joined_at
FROM group_members gm
JOIN users u ON u.id = gm.user_id
WHERE gm.group_id = $1
ORDER BY gm.joined_at ASC, gm.user_id ASC`
	members := []models.GroupMember{}
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// IsMember reports whether userID belongs to groupID.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, groupID, userID); err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return exists, nil
}

// ExistsByCreatorAndName reports whether creatorID already owns a group with
// this name, ignoring case. excludeID skips the group being renamed.
func (r *GroupRepository) ExistsByCreatorAndName(ctx context.Context, creatorID int64, name string, excludeID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM groups WHERE creator_id = $1 AND LOWER(name) = LOWER($2) AND id <> $3)`
	if err := r.db.GetContext(ctx, &exists, query, creatorID, name, excludeID); err != nil {
		return false, fmt.Errorf("check group name: %w", err)
	}
	return exists, nil
}

// CreateWithCreator inserts the group and its creator's membership atomically.
func (r *GroupRepository) CreateWithCreator(ctx context.Context, group *models.Group) (err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create group: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertGroup = `INSERT INTO groups (name, description, creator_id) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	if err = tx.QueryRowxContext(ctx, insertGroup, group.Name, group.Description, group.CreatorID).
		Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id, joined_at) VALUES ($1, $2, $3)`, group.ID, group.CreatorID, group.CreatedAt); err != nil {
		return fmt.Errorf("insert creator membership: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create group: %w", err)
	}
	group.MemberCount = 1
	return nil
}

// Update stores a new name and description and touches updated_at.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `UPDATE groups SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, group.ID, group.Name, group.Description, group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update group rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCascade removes the group together with its memberships, its scoped
// posts and their comments in one transaction.
func (r *GroupRepository) DeleteCascade(ctx context.Context, id int64) (err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete group: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	steps := []struct {
		label string
		query string
	}{
		{"delete group comments", `DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE group_id = $1)`},
		{"delete group posts", `DELETE FROM posts WHERE group_id = $1`},
		{"delete group members", `DELETE FROM group_members WHERE group_id = $1`},
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("%s: %w", step.label, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete group: %w", err)
	}
	return nil
}

// AddMember inserts a membership. Adding an existing member is a no-op.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int64, joinedAt time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO group_members (group_id, user_id, joined_at) VALUES ($1, $2, $3) ON CONFLICT (group_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID, joinedAt); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership, returning sql.ErrNoRows when absent.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove group member rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
