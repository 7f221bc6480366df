// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Builtins(t *testing.T) {
	l := NewLoader()

	tests := []struct {
		key, company, code string
	}{
		{"茅台", "贵州茅台", "sh.600519"},
		{"比亚迪", "比亚迪", "sz.002594"},
		{"宁德时代", "宁德时代", "sz.300750"},
	}
	for _, tt := range tests {
		got, err := l.Load(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.company, got.Company)
		assert.Equal(t, tt.code, got.Code)
		assert.True(t, got.Builtin)
	}
}

func TestLoad_UnknownNamesKey(t *testing.T) {
	_, err := NewLoader().Load("腾讯")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
	assert.Contains(t, err.Error(), "腾讯")
}

func TestAdd_Extras(t *testing.T) {
	l := NewLoader()

	require.NoError(t, l.Add(Template{Key: " 平安 ", Company: "中国平安", Code: "sh.601318"}))
	got, err := l.Load("平安")
	require.NoError(t, err)
	assert.Equal(t, "sh.601318", got.Code)
	assert.False(t, got.Builtin)

	err = l.Add(Template{Key: "茅台", Company: "假茅台", Code: "sh.000000"})
	assert.True(t, errors.Is(err, ErrBuiltinTemplate))
	got, _ = l.Load("茅台")
	assert.Equal(t, "贵州茅台", got.Company)

	assert.True(t, errors.Is(l.Add(Template{Key: "x"}), ErrInvalidTemplate))
}

func TestSetExtras_ReplacesOnlyExtras(t *testing.T) {
	l := NewLoader()
	require.NoError(t, l.Add(Template{Key: "old", Company: "Old Co", Code: "sh.1"}))

	err := l.SetExtras([]Template{
		{Key: "new", Company: "New Co", Code: "sz.2"},
		{Key: "比亚迪", Company: "BYD", Code: "sz.3"},
	})
	assert.True(t, errors.Is(err, ErrBuiltinTemplate))

	_, err = l.Load("old")
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
	_, err = l.Load("new")
	assert.NoError(t, err)
	assert.Len(t, l.Keys(), 4)
}

func TestSetExtras_ReadersNeverSeeAPartialSet(t *testing.T) {
	l := NewLoader()
	extras := []Template{
		{Key: "平安", Company: "中国平安", Code: "sh.601318"},
		{Key: "招行", Company: "招商银行", Code: "sh.600036"},
	}
	require.NoError(t, l.SetExtras(extras))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	defer func() {
		close(stop)
		wg.Wait()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = l.SetExtras(extras)
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		_, err := l.Load("平安")
		require.NoError(t, err)
		require.Len(t, l.Keys(), 5)
	}
}

func TestKeys_Sorted(t *testing.T) {
	l := NewLoader()
	require.NoError(t, l.Add(Template{Key: "aaa", Company: "A", Code: "sh.1"}))

	keys := l.Keys()
	assert.True(t, sort.StringsAreSorted(keys))
	assert.Equal(t, "aaa", keys[0])

	all := l.All()
	require.Len(t, all, len(keys))
	for i, tpl := range all {
		assert.Equal(t, keys[i], tpl.Key)
	}
}
