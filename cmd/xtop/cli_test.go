package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xtop/internal/config"
	"github.com/ibeckermayer/xtop/internal/timeline"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// runCLI executes the root command in-process with a config in dir
func runCLI(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.toml"), "--no-color"}, args...))

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// setupConfig writes a config that keeps all state inside dir
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(dir, "xtop.db")
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	require.NoError(t, cfg.SaveTo(filepath.Join(dir, "config.toml")))

	return dir
}

func writePayload(t *testing.T, dir string) string {
	t.Helper()

	entry := func(id string, age time.Duration, likes int) string {
		return fmt.Sprintf(`{"content":{"itemContent":{"tweet_results":{"result":{"rest_id":%q,
			"legacy":{"created_at":%q,"favorite_count":%d,"full_text":"post %s"}}}}}}`,
			id, now.Add(-age).Format(timeline.LegacyLayout), likes, id)
	}
	payload := `{"data":{"user":{"result":{"timeline_v2":{"timeline":{"instructions":[{"entries":[` +
		entry("1", time.Hour, 5) + "," + entry("2", 3*time.Hour, 80) + "," + entry("3", 30*time.Hour, 900) +
		`]}]}}}}}}`

	path := filepath.Join(dir, "page.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Equal(t, "xtop version "+version+"\n", out)
}

func TestFirstRunCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := runCLI(t, dir, "cookies", "status")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.Contains(t, stderr, "Created default config")
}

func TestRankOffline(t *testing.T) {
	dir := setupConfig(t)
	payload := writePayload(t, dir)

	out, _, err := runCLI(t, dir, "rank", "--user", "@jack", "--now", now.Format(time.RFC3339), payload)
	require.NoError(t, err)

	assert.Equal(t, "\n=== @jack | Top 3 in last 24h (likes) ===\n"+
		"1. https://x.com/jack/status/2  (♥ 80)\n"+
		"2. https://x.com/jack/status/1  (♥ 5)\n", out)

	_, err = os.Stat(filepath.Join(dir, "data"))
	assert.True(t, os.IsNotExist(err), "offline runs write no dumps")
}

func TestRankOverrides(t *testing.T) {
	dir := setupConfig(t)
	payload := writePayload(t, dir)

	out, _, err := runCLI(t, dir, "rank", "-u", "jack", "--now", now.Format(time.RFC3339),
		"--top", "1", "--window", "48h", "--base-url", "https://twitter.com/", payload)
	require.NoError(t, err)

	assert.Contains(t, out, "Top 1 in last 48h")
	assert.Contains(t, out, "1. https://twitter.com/jack/status/3  (♥ 900)")
	assert.NotContains(t, out, "2.")
}

func TestRankRequiresUser(t *testing.T) {
	dir := setupConfig(t)
	_, _, err := runCLI(t, dir, "rank", writePayload(t, dir))
	assert.ErrorContains(t, err, "user")
}

func TestRankRejectsBadNow(t *testing.T) {
	dir := setupConfig(t)
	_, _, err := runCLI(t, dir, "rank", "-u", "jack", "--now", "yesterday", writePayload(t, dir))
	assert.ErrorContains(t, err, "invalid --now")
}

func TestRankSaveAndHistory(t *testing.T) {
	dir := setupConfig(t)
	payload := writePayload(t, dir)

	out, _, err := runCLI(t, dir, "history", "jack")
	require.NoError(t, err)
	assert.Equal(t, "No rankings recorded for @jack.\n", out)

	_, _, err = runCLI(t, dir, "rank", "-u", "jack", "--now", now.Format(time.RFC3339), "--save", payload)
	require.NoError(t, err)

	out, _, err = runCLI(t, dir, "history", "@jack")
	require.NoError(t, err)
	assert.Contains(t, out, "RANKED AT")
	assert.Contains(t, out, "https://x.com/jack/status/2")

	out, _, err = runCLI(t, dir, "history", "jack", "--posts")
	require.NoError(t, err)
	assert.Contains(t, out, "post 3")
}

const cookieExport = `[
  {"domain": "x.com", "name": "auth_token", "value": "t", "expirationDate": 4102444800},
  {"domain": ".x.com", "name": "ct0", "value": "c", "sameSite": "strict", "expirationDate": 4102444800}
]`

func TestCookiesConvert(t *testing.T) {
	dir := setupConfig(t)
	export := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(export, []byte(cookieExport), 0644))

	out, _, err := runCLI(t, dir, "cookies", "convert", "--stdout", export)
	require.NoError(t, err)
	assert.Contains(t, out, `"domain": ".x.com"`)
	assert.Contains(t, out, `"sameSite": "Strict"`)
	assert.NoFileExists(t, filepath.Join(dir, "cookies.json"))

	out, _, err = runCLI(t, dir, "cookies", "convert", export)
	require.NoError(t, err)
	assert.Contains(t, out, "Converted 2 cookies")
	assert.FileExists(t, filepath.Join(dir, "cookies.json"))

	out, _, err = runCLI(t, dir, "cookies", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Session valid (2 cookies")

	out, _, err = runCLI(t, dir, "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out.\n", out)

	out, _, err = runCLI(t, dir, "cookies", "status")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", out)
}

func TestBadLogLevel(t *testing.T) {
	dir := setupConfig(t)
	_, _, err := runCLI(t, dir, "--log-level", "loud", "cookies", "status")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestOpenRejectsUnknownTarget(t *testing.T) {
	dir := setupConfig(t)
	_, _, err := runCLI(t, dir, "open", "downloads")
	assert.Error(t, err)
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("a\n b\tc", 10))
	assert.Equal(t, "abcdefg...", oneLine("abcdefghijklmnop", 10))
}

func TestLoginSkipsWhenAuthenticated(t *testing.T) {
	dir := setupConfig(t)
	export := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(export, []byte(cookieExport), 0644))
	_, _, err := runCLI(t, dir, "cookies", "convert", export)
	require.NoError(t, err)

	out, _, err := runCLI(t, dir, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Already logged in")
}
