package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"onboarding-service/internal/config"
	"onboarding-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTransitionConfigOverlaysDefaults(t *testing.T) {
	var cfg config.Config
	disabled := false
	cfg.Transition.Enabled = &disabled
	cfg.Transition.MinDelay = "1s"
	cfg.Transition.CreatorInterval = "500ms"

	tc := transitionConfig(cfg)
	assert.False(t, tc.Enabled)
	assert.Equal(t, time.Second, tc.MinDelay)
	assert.Equal(t, 7*time.Second, tc.MaxDelay)
	assert.Equal(t, 500*time.Millisecond, tc.Intervals[domain.PersonaCreator])
	assert.Equal(t, 3*time.Second, tc.Intervals[domain.PersonaEntrepreneur])
}

func TestCatalogValidateCommand(t *testing.T) {
	out := runCLI(t, "catalog", "validate")
	assert.Contains(t, out, "creator: 7 questions ok")
	assert.Contains(t, out, "entrepreneur: 7 questions ok")
}

func TestCatalogShowYAML(t *testing.T) {
	out := runCLI(t, "catalog", "show", "creator")

	var c domain.Catalog
	require.NoError(t, yaml.Unmarshal([]byte(out), &c))
	assert.Equal(t, domain.PersonaCreator, c.Persona)
	assert.Len(t, c.Questions, 7)
	assert.Equal(t, domain.KindDropdown, c.Questions[5].Kind)
}

func TestCatalogShowJSON(t *testing.T) {
	out := runCLI(t, "catalog", "show", "entrepreneur", "-o", "json")

	var c domain.Catalog
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, "businessName", c.Questions[0].ID)
}

func TestCatalogShowUnknownPersona(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"catalog", "show", "investor"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, domain.ErrUnknownPersona)
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), strings.Join(args, " "))
	return buf.String()
}
