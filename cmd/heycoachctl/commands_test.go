package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/heycoach-api/internal/database"
	"github.com/noah-isme/heycoach-api/internal/models"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDatabase(t *testing.T) string {
	t.Helper()
	url := "sqlite://" + filepath.Join(t.TempDir(), "ctl.db")
	t.Setenv("HEYCOACH_DATABASE_URL", url)
	return url
}

func TestSeedLoadsDemoData(t *testing.T) {
	url := tempDatabase(t)

	out, err := runCommand(t, "seed")
	require.NoError(t, err)
	require.Contains(t, out, "seeded demo-user-123: 3 sessions, 3 assignments")

	db, err := database.Open(url)
	require.NoError(t, err)
	var sessions int64
	require.NoError(t, db.Model(&models.CoachingSession{}).Where("user_id = ?", "demo-user-123").Count(&sessions).Error)
	require.EqualValues(t, 3, sessions)

	out, err = runCommand(t, "seed")
	require.NoError(t, err)
	require.Contains(t, out, "seeded demo-user-123")
}

func TestMigrateAndSweep(t *testing.T) {
	tempDatabase(t)

	out, err := runCommand(t, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "schema up to date")

	out, err = runCommand(t, "sweep-overdue")
	require.NoError(t, err)
	require.Contains(t, out, "0 assignments marked overdue")
}

func TestSendRequiresFlags(t *testing.T) {
	tempDatabase(t)

	_, err := runCommand(t, "send", "--to", "+15551234567")
	require.Error(t, err)
}

func TestSendWithoutCredentials(t *testing.T) {
	tempDatabase(t)

	_, err := runCommand(t, "send", "--to", "+15551234567", "--body", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "messaging unavailable")
}
