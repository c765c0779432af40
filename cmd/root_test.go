package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermage/skin-analysis-api/internal/config"
	"github.com/dermage/skin-analysis-api/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"serve", "analyze", "catalog"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "skin-api", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"questions", "image", "age", "skin-type"} {
		flag := analyzeCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "analyze should have --%s flag", flagName)
	}
}

func TestCatalogCommand_HasSubcommands(t *testing.T) {
	cmds := catalogCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"import", "warm", "preview"}
	for _, name := range expected {
		assert.True(t, names[name], "catalog should have subcommand %q", name)
	}
}

func TestLoadProfile(t *testing.T) {
	questions := []model.QuizAnswer{
		{Question: "Como está sua pele?", Answer: "Oleosa na zona T"},
	}
	raw, err := json.Marshal(questions)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	prof, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, questions, prof.Questions)
}

func TestLoadProfile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	_, err := loadProfile(path)
	assert.Error(t, err)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = &config.Config{}
	cfg.Catalog.Driver = "cassandra"

	_, err := initStore(context.Background())
	assert.Error(t, err)
}

func TestInitStore_DefaultIsFS(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = &config.Config{}
	cfg.Catalog.Dir = t.TempDir()

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Put(context.Background(), "DRY-SIMPLE-1", "doc"))
	raw, err := st.Get(context.Background(), "DRY-SIMPLE-1")
	require.NoError(t, err)
	assert.Equal(t, "doc", raw)
}
