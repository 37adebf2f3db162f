package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/auth"
	"github.com/digitaladdress/locator/internal/config"
	"github.com/digitaladdress/locator/internal/planner"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SIGNING_KEY", "")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, "token", "--subject", "ops@campus.example", "--scope", "admin", "-o", "json")
	require.NoError(t, err)

	var got tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ops@campus.example", got.Subject)
	assert.Equal(t, []string{auth.ScopeAdmin}, got.Scopes)

	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: config.DevSigningKey,
		Issuer:     "locator",
		Audience:   "locator-ops",
	})
	claims, err := tokens.ValidateOperatorToken(got.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops@campus.example", claims.Subject)
	assert.True(t, claims.HasScope(auth.ScopeAdmin))
}

func TestTokenCommand_TextOutputIsBareToken(t *testing.T) {
	out, err := execute(t, "token", "--subject", "ops")
	require.NoError(t, err)

	token := strings.TrimSpace(out)
	assert.Equal(t, 2, strings.Count(token, "."))
}

func TestTokenCommand_Errors(t *testing.T) {
	_, err := execute(t, "token")
	assert.Error(t, err)

	_, err = execute(t, "token", "--subject", "ops", "--scope", "root")
	assert.ErrorContains(t, err, `unknown scope "root"`)
}

func TestRouteCommand_RejectsUnknownMode(t *testing.T) {
	_, err := execute(t, "route", "--from", "DAL-042", "--to", "Swaraj Round", "--mode", "cycling")
	assert.ErrorIs(t, err, planner.ErrUnsupportedMode)
}

func TestResolveCommand_RejectsHalfPosition(t *testing.T) {
	_, err := execute(t, "resolve", "my", "location", "--lat", "10.5")
	assert.ErrorContains(t, err, "--lat and --lon must be given together")
}

func TestIdentifyCommand_ValidatesPoint(t *testing.T) {
	_, err := execute(t, "identify", "--lat", "95", "--lon", "76.2")
	assert.ErrorContains(t, err, "latitude")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dalctl version dev")
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, models.RoutePlanResponse{
		Origin:      models.ResolvedLocation{Label: "My Location"},
		Destination: models.ResolvedLocation{Label: "DAL-042"},
		Summary:     planner.Summary{DistanceDisplay: "1.6 km", DurationDisplay: "19 min", ModeLabel: "Walking"},
		Instructions: []models.Instruction{
			{Text: "Head north on Palace Road", Glyph: "🚩", DistanceDisplay: "1.6 km"},
			{Text: "Arrive at your destination", Glyph: "🏁"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "My Location -> DAL-042")
	assert.Contains(t, out, "Walking · 1.6 km · 19 min")
	assert.Contains(t, out, " 1. 🚩 Head north on Palace Road (1.6 km)")
	assert.Contains(t, out, " 2. 🏁 Arrive at your destination\n")
}

func TestPrint_UnknownFormat(t *testing.T) {
	opts := &globalOptions{output: "yaml"}
	err := opts.print(&bytes.Buffer{}, struct{}{}, nil)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestCodesCommand_EmptyRegistry(t *testing.T) {
	t.Setenv("DB_HOST", "")

	out, err := execute(t, "codes", "-o", "json", "--log-level", "error")
	require.NoError(t, err)

	var got []codeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got)
}

func TestCodesCommand_RejectsNonPositiveLimit(t *testing.T) {
	_, err := execute(t, "codes", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}

func TestPrintCodes(t *testing.T) {
	var buf bytes.Buffer
	printCodes(&buf, []codeOutput{{
		Code:      "DAL-THR-1A2B3C4D",
		OSMWayID:  4242,
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}})

	out := buf.String()
	assert.Contains(t, out, "CODE")
	assert.Contains(t, out, "DAL-THR-1A2B3C4D")
	assert.Contains(t, out, "4242")
	assert.Contains(t, out, "2026-03-01T09:30:00Z")

	buf.Reset()
	printCodes(&buf, nil)
	assert.Equal(t, "no building codes registered\n", buf.String())
}
