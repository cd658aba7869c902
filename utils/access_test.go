package utils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskhive/config"
	"taskhive/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.MigrateDB(db))
	return db
}

// seedProject creates a project with its owner and one member, mirroring what
// the create-project and add-member handlers do.
func seedProject(t *testing.T, db *gorm.DB) (models.Project, models.User, models.User, models.User) {
	t.Helper()

	owner := models.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	member := models.User{Name: "Member", Email: "member@example.com", PasswordHash: "x"}
	outsider := models.User{Name: "Outsider", Email: "outsider@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, db.Create(&outsider).Error)

	project := models.Project{
		Name:    "Launch",
		OwnerID: owner.ID,
		Members: []models.User{owner, member},
	}
	require.NoError(t, db.Create(&project).Error)

	return project, owner, member, outsider
}

func TestHasProjectAccess(t *testing.T) {
	db := openTestDB(t)
	resolver := NewAccessResolver(db)
	project, owner, member, outsider := seedProject(t, db)

	for name, tc := range map[string]struct {
		userID uint
		want   bool
	}{
		"owner":    {owner.ID, true},
		"member":   {member.ID, true},
		"outsider": {outsider.ID, false},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := resolver.HasProjectAccess(project.ID, tc.userID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	got, err := resolver.HasProjectAccess(99999, owner.ID)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestIsProjectOwnerAndMember(t *testing.T) {
	db := openTestDB(t)
	resolver := NewAccessResolver(db)
	project, owner, member, outsider := seedProject(t, db)

	isOwner, err := resolver.IsProjectOwner(project.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isOwner)

	isOwner, err = resolver.IsProjectOwner(project.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, isOwner)

	// The owner always has a membership row of its own.
	for _, id := range []uint{owner.ID, member.ID} {
		isMember, err := resolver.IsProjectMember(project.ID, id)
		require.NoError(t, err)
		assert.True(t, isMember)
	}

	isMember, err := resolver.IsProjectMember(project.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestAccessibleProjectIDs(t *testing.T) {
	db := openTestDB(t)
	resolver := NewAccessResolver(db)
	project, owner, member, outsider := seedProject(t, db)

	// A second project owned by the member, invisible to the first owner.
	second := models.Project{Name: "Private", OwnerID: member.ID, Members: []models.User{member}}
	require.NoError(t, db.Create(&second).Error)

	ids, err := resolver.AccessibleProjectIDs(owner.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{project.ID}, ids)

	ids, err = resolver.AccessibleProjectIDs(member.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{project.ID, second.ID}, ids)

	ids, err = resolver.AccessibleProjectIDs(outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTaskPermissions(t *testing.T) {
	db := openTestDB(t)
	resolver := NewAccessResolver(db)
	project, owner, member, outsider := seedProject(t, db)

	creator := models.User{Name: "Creator", Email: "creator@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&creator).Error)

	task := models.Task{
		Title:        "Write docs",
		ProjectID:    project.ID,
		CreatedByID:  creator.ID,
		AssignedToID: &member.ID,
	}
	require.NoError(t, db.Create(&task).Error)

	cases := []struct {
		name      string
		userID    uint
		canUpdate bool
		canManage bool
	}{
		{"creator", creator.ID, true, true},
		{"assignee", member.ID, true, false},
		{"project owner", owner.ID, true, true},
		{"outsider", outsider.ID, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			canUpdate, err := resolver.CanUpdateTask(&task, tc.userID)
			require.NoError(t, err)
			assert.Equal(t, tc.canUpdate, canUpdate)

			canManage, err := resolver.CanManageTask(&task, tc.userID)
			require.NoError(t, err)
			assert.Equal(t, tc.canManage, canManage)
		})
	}

	// With no assignee, only creator and owner can touch the task.
	task.AssignedToID = nil
	canUpdate, err := resolver.CanUpdateTask(&task, member.ID)
	require.NoError(t, err)
	assert.False(t, canUpdate)
}
