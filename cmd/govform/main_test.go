package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "govform version "+strings.TrimSpace(govform.Version)+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
fullName: Jane Doe
email: jane@example.gov
phone: (555) 123-4567
dateOfBirth: "1990-04-01"
address: 742 Evergreen Terrace
city: Springfield
state: Oregon
postalCode: "97403"
serviceType: Passport Application
requestDetails: First passport for international travel.
urgencyLevel: standard
termsAccepted: true
`), 0o600))

	out, err := run(t, "validate", good)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Application is valid!")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fullName: Jane Doe\nemail: nope\n"), 0o600))
	out, err = run(t, "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "✘ Personal Information")
	assert.Contains(t, out, "email: ")
}

func TestSessionCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "session", "ls", "--store", "file", "--store-path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No saved applications found.")

	_, err = run(t, "session", "rm", "ghost", "--store", "file", "--store-path", dir)
	assert.Error(t, err)
}
