package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stanondieki/Infera-AI-sub003/internal/auth"
	"github.com/stanondieki/Infera-AI-sub003/internal/config"
	"github.com/stanondieki/Infera-AI-sub003/internal/database"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roster = `
users:
  - id: U1
    name: Ada
    email: ada@infera.ai
    skills: [labeling, english]
    roles: [worker]
  - id: A1
    name: Grace
    email: grace@infera.ai
    roles: [admin]
  - id: U9
    name: Former contractor
    email: former@infera.ai
    active: false
`

// relationRecorder 记录写入的关系
type relationRecorder struct {
	set []string
}

func (r *relationRecorder) SetRelation(_ context.Context, userID, relation, objectType, objectID string) error {
	r.set = append(r.set, userID+"#"+relation+"@"+objectType+":"+objectID)
	return nil
}

func (r *relationRecorder) DeleteRelation(context.Context, string, string, string, string) error {
	return nil
}

// TestRootCommand 测试子命令注册
func TestRootCommand(t *testing.T) {
	root := GetRootCmd()
	assert.Equal(t, "infera", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"server", "migrate", "seed-users"} {
		assert.True(t, names[name], name)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

// TestParseRoster 测试名单解析和校验
func TestParseRoster(t *testing.T) {
	parsed, err := ParseRoster(strings.NewReader(roster))
	require.NoError(t, err)
	require.Len(t, parsed.Users, 3)
	assert.Equal(t, []string{"labeling", "english"}, parsed.Users[0].Skills)

	_, err = ParseRoster(strings.NewReader("users:\n  - id: U1\n"))
	assert.Error(t, err)

	_, err = ParseRoster(strings.NewReader("users:\n  - id: U1\n    name: Ada\n    roles: [owner]\n"))
	assert.Error(t, err)

	_, err = ParseRoster(strings.NewReader("members: []\n"))
	assert.Error(t, err)
}

// TestSeedUsers 测试写入用户和授权关系,重复执行时原地更新
func TestSeedUsers(t *testing.T) {
	db, err := database.Connect(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "seed.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	users := repository.NewUserRepository(db)
	parsed, err := ParseRoster(strings.NewReader(roster))
	require.NoError(t, err)

	relations := &relationRecorder{}
	ctx := context.Background()
	require.NoError(t, seedUsers(ctx, parsed, users, relations))
	require.NoError(t, seedUsers(ctx, parsed, users, nil))

	ada, err := users.FindByID(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, ada.Active)
	assert.Equal(t, []string{"labeling", "english"}, []string(ada.Skills))

	former, err := users.FindByID(ctx, "U9")
	require.NoError(t, err)
	assert.False(t, former.Active)

	assert.Equal(t, []string{
		"U1#worker@" + auth.ConsoleType + ":" + auth.ConsoleID,
		"A1#admin@" + auth.ConsoleType + ":" + auth.ConsoleID,
	}, relations.set)
}
