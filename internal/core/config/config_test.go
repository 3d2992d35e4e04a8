package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, "25830", cfg.Code)
	assert.Equal(t, 0.01, cfg.AreaAbsTolerance)
	assert.Equal(t, 1e-4, cfg.AreaRelTolerance)
	assert.False(t, cfg.StrictArea)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("EPSG_DEFAULT", "25829")
	t.Setenv("STRICT_AREA", "yes")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("H3_RES", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, "25829", cfg.Code)
	assert.True(t, cfg.StrictArea)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, 9, cfg.H3Res, "unparsable values keep the default")
}

func TestLoad_FileThenDotEnvThenEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "epsg_default: \"25831\"\ncache_ttl: 5m\nbatch_workers: 2\nredis_addr: file:6379\n")
	writeFile(t, dir, ".env", "BATCH_WORKERS=6\nREDIS_ADDR=dotenv:6379\n")
	t.Setenv("REDIS_ADDR", "env:6379")
	t.Cleanup(func() { _ = os.Unsetenv("BATCH_WORKERS") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "25831", cfg.Code)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 6, cfg.BatchWorkers, ".env overrides the file")
	assert.Equal(t, "env:6379", cfg.RedisAddr, "process env wins over .env")
}

func TestLoad_MissingFilesAreFine(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Defaults().Addr, cfg.Addr)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "cache_ttl: [\n")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadFile_NotFound(t *testing.T) {
	cfg := Defaults()
	err := LoadFile(filepath.Join(t.TempDir(), FileName), &cfg)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Code = "4326"
	cfg.H3Res = 16
	cfg.AreaAbsTolerance = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epsg_default")
	assert.Contains(t, err.Error(), "h3_res")
	assert.Contains(t, err.Error(), "tolerances")
}
