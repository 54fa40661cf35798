package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_InvalidConfigReturnsError(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "設定の読み込みに失敗しました")
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestRun_InvalidLogLevelReturnsError(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "loud")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ロガーの初期化に失敗しました")
}
