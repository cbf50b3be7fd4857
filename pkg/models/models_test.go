package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultList(t *testing.T) {
	l := Default()
	assert.Equal(t, []string{"gpt-4.1", "gpt-4.1-nano", "gpt-5"}, l.IDs())
	for _, d := range l {
		assert.Equal(t, APIFormatResponses, d.Metadata.APIFormat, d.ID)
		assert.True(t, d.Streamable(), d.ID)
	}
	d, ok := l.Find("gpt-5")
	require.True(t, ok)
	assert.Equal(t, []map[string]any{{"type": "web_search"}}, d.RequestTools)
}

func TestLoadFile(t *testing.T) {
	l, err := LoadFile("testdata/models.yaml")
	require.NoError(t, err)
	require.Len(t, l, 3)

	assert.Equal(t, []string{"gpt-4.1-mini", "gpt-5"}, l.Active().IDs())
	assert.Equal(t, APIFormatResponses, l[0].Metadata.APIFormat)
	assert.Equal(t, "chat", l[2].Metadata.APIFormat)
	assert.False(t, l[1].Streamable())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader("- label: no id\n"))
	assert.Error(t, err)
	_, err = Load(strings.NewReader("{not: [a list"))
	assert.Error(t, err)
	_, err = LoadFile("testdata/missing.yaml")
	assert.Error(t, err)

	l, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, l)
}

func TestIDMatches(t *testing.T) {
	d := Descriptor{ID: "gpt-4.1"}
	assert.True(t, d.IDMatches("gpt-4.1"))
	assert.True(t, d.IDMatches(" GPT-4.1 "))
	assert.True(t, d.IDMatches("gpt-4.1-2025-04-14"))
	assert.False(t, d.IDMatches("gpt-4.1-nano"))
	assert.False(t, d.IDMatches("gpt-4.1-"))
	assert.False(t, d.IDMatches("gpt-4"))
}

func TestFindPrefersLongestID(t *testing.T) {
	l := Default()
	d, ok := l.Find("gpt-4.1-nano-2025-04-14")
	require.True(t, ok)
	assert.Equal(t, "gpt-4.1-nano", d.ID)

	_, ok = l.Find("o3")
	assert.False(t, ok)
}

func TestCapabilities(t *testing.T) {
	l, err := LoadFile("testdata/models.yaml")
	require.NoError(t, err)

	assert.True(t, IsCompatible("gpt-5-mini"))
	assert.False(t, IsCompatible("o3-mini"))

	assert.True(t, l.SupportsSearch("gpt-5"))
	assert.False(t, l.SupportsSearch("gpt-4.1"))
	assert.True(t, l.SupportsSearch("gpt-4o"))
	assert.True(t, l.SupportsSearch("o4-mini"))
	assert.False(t, l.SupportsSearch("gpt-3.5-turbo"))

	assert.False(t, l.SupportsStreaming("o1"))
	assert.False(t, l.SupportsStreaming("gpt-4.1"))
	assert.True(t, l.SupportsStreaming("gpt-4.1-mini"))
	assert.True(t, l.SupportsStreaming("gpt-6"))

	assert.Equal(t, []string{"gpt-4o", "gpt-5"}, FilterCompatible([]string{"o1", "gpt-4o", "dall-e-3", "gpt-5"}))
	assert.Equal(t, []string{}, FilterCompatible(nil))
}
