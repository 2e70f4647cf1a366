/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stanondieki/Infera-AI-sub003/internal/auth"
	"github.com/stanondieki/Infera-AI-sub003/internal/container"
	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
)

// Roster 用户名单文件
type Roster struct {
	Users []RosterUser `yaml:"users"`
}

// RosterUser 名单中的一个用户
type RosterUser struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Email  string   `yaml:"email"`
	Active *bool    `yaml:"active"`
	Skills []string `yaml:"skills"`
	// Roles 写入 OpenFGA console 关系,未配置 OpenFGA 时忽略
	Roles []string `yaml:"roles"`
}

// ParseRoster 解析 YAML 用户名单
func ParseRoster(r io.Reader) (*Roster, error) {
	var roster Roster
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	for i, u := range roster.Users {
		if u.ID == "" || u.Name == "" {
			return nil, fmt.Errorf("roster entry %d: id and name are required", i)
		}
		for _, role := range u.Roles {
			if role != auth.RelationAdmin && role != auth.RelationWorker {
				return nil, fmt.Errorf("roster entry %d: unknown role %q", i, role)
			}
		}
	}
	return &roster, nil
}

// seedUsers 写入用户参考数据和可选的授权关系
func seedUsers(ctx context.Context, roster *Roster, users repository.UserRepository, relations auth.RelationWriter) error {
	for _, u := range roster.Users {
		active := true
		if u.Active != nil {
			active = *u.Active
		}
		record := &model.UserModel{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Active: active,
			Skills: datatypes.JSONSlice[string](u.Skills),
		}
		if err := users.Upsert(ctx, record); err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
		}

		if relations == nil {
			continue
		}
		for _, role := range u.Roles {
			if err := relations.SetRelation(ctx, u.ID, role, auth.ConsoleType, auth.ConsoleID); err != nil {
				return fmt.Errorf("failed to grant %s to %s: %w", role, u.ID, err)
			}
		}
	}
	return nil
}

// seedUsersCmd represents the seed-users command
var seedUsersCmd = &cobra.Command{
	Use:   "seed-users [roster.yaml]",
	Short: "Load the user roster",
	Long: `Load worker and admin reference data from a YAML roster.
Existing users are updated in place. When OpenFGA is configured the
roles listed for each user are written as console relations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open roster: %w", err)
		}
		defer f.Close()

		roster, err := ParseRoster(f)
		if err != nil {
			return err
		}

		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		if err := seedUsers(cmd.Context(), roster, ctr.UserRepository(), ctr.RelationWriter()); err != nil {
			return err
		}

		logrus.WithField("count", len(roster.Users)).Info("user roster loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedUsersCmd)
}
