package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_success.db")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-email", "Test.User@Example.com", "-password", "secret", "-db", dbPath}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "User test.user@example.com created successfully")

	db, err := storage.NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	user, err := db.GetUserByEmail(context.Background(), "test.user@example.com")
	require.NoError(t, err, "email should be stored lowercase")
	assert.True(t, auth.CheckPassword("secret", user.PasswordHash))
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_duplicate.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	err := run([]string{"-email", "dup@example.com", "-password", "secret", "-db", dbPath}, stdin, stdout, stderr)
	require.NoError(t, err, "first run should succeed")

	stdout.Reset()
	stderr.Reset()
	err = run([]string{"-email", "DUP@example.com", "-password", "other", "-db", dbPath}, stdin, stdout, stderr)
	require.Error(t, err, "expected error on duplicate user")
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingEmailFlag(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	err := run([]string{"-password", "secret"}, stdin, stdout, stderr)
	require.Error(t, err, "expected error for missing email flag")
	assert.Contains(t, err.Error(), "missing required flags: email")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_InvalidEmail(t *testing.T) {
	err := run([]string{"-email", "not-an-email", "-password", "secret"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email")
}

func TestRun_InteractivePassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_interactive.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("interactive_secret\n")

	err := run([]string{"-email", "interactive@example.com", "-db", dbPath}, stdin, stdout, stderr)
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "Password: ")
	assert.Contains(t, output, "User interactive@example.com created successfully")
}

func TestRun_PasswordPolicy(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		wantErr string
	}{
		{"empty prompt", []string{"-email", "empty@example.com"}, "\n", "Password cannot be empty"},
		{"no input", []string{"-email", "eof@example.com"}, "", "Password cannot be empty"},
		{"too long", []string{"-email", "long@example.com", "-password", strings.Repeat("a", 73)}, "", "Maximum length is 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, bytes.NewBufferString(tt.stdin), new(bytes.Buffer), new(bytes.Buffer))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.ErrorIs(t, err, auth.ErrInvalidPassword)
		})
	}
}

func TestRun_EnvVarOverride(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_env.db")
	t.Setenv("DATABASE_URL", dbPath)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	err := run([]string{"-email", "env@example.com", "-password", "secret"}, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.FileExists(t, dbPath)
}

func TestRun_InvalidDBPath(t *testing.T) {
	// A directory cannot be opened as a database file.
	tmpDir := t.TempDir()

	err := run([]string{"-email", "fail@example.com", "-password", "secret", "-db", tmpDir}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err, "expected error for invalid db path")
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	err := run([]string{"-invalid"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err, "expected error for invalid flag")
	assert.Contains(t, err.Error(), "flag provided but not defined")
}
