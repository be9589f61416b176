package format

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/BaSui01/uniai/llm"
)

func msg(role llm.Role, text ...string) llm.ChatMessage {
	return llm.ChatMessage{Role: role, Content: llm.Strings(text)}
}

func TestAlternate_SingleUser(t *testing.T) {
	system, turns := Alternate(llm.Prompt("Hi, who are you?"))
	assert.Empty(t, system)
	require.Len(t, turns, 1)
	assert.Equal(t, "Hi, who are you?", turns[0].User)
	assert.False(t, turns[0].Closed)
}

func TestAlternate_PairAndTrailingTurn(t *testing.T) {
	_, turns := Alternate([]llm.ChatMessage{
		msg(llm.RoleUser, "hello"),
		msg(llm.RoleAssistant, "hi"),
		msg(llm.RoleUser, "how are you"),
	})
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{User: "hello", Assistant: "hi", Closed: true}, turns[0])
	assert.Equal(t, Turn{User: "how are you"}, turns[1])
}

func TestAlternate_MergesConsecutiveUserMessages(t *testing.T) {
	system, turns := Alternate([]llm.ChatMessage{
		msg(llm.RoleSystem, "be brief"),
		msg(llm.RoleUser, "first"),
		msg(llm.RoleTool, "42"),
		{Role: llm.RoleUser, Content: llm.Strings{"a", " ", "b"}, Img: llm.Strings{"img-1"}},
		msg(llm.RoleSystem, "answer in English"),
		msg(llm.RoleAssistant, "ok"),
	})
	assert.Equal(t, "be brief\nanswer in English", system)
	require.Len(t, turns, 1)
	assert.Equal(t, "first\n42\na\nb", turns[0].User)
	assert.Equal(t, []string{"img-1"}, turns[0].Images)
	assert.True(t, turns[0].Closed)
}

func TestCheckTurns(t *testing.T) {
	_, turns := Alternate([]llm.ChatMessage{msg(llm.RoleSystem, "sys"), msg(llm.RoleUser, "  ")})
	err := CheckTurns(llm.ProviderBaidu, turns)
	assert.True(t, llm.IsCode(err, llm.ErrEmptyInput))

	_, turns = Alternate([]llm.ChatMessage{{Role: llm.RoleUser, Img: llm.Strings{"x"}}})
	assert.NoError(t, CheckTurns(llm.ProviderGoogle, turns))
}

func TestCheckMessages(t *testing.T) {
	assert.True(t, llm.IsCode(CheckMessages(llm.ProviderOpenAI, nil), llm.ErrEmptyInput))
	assert.True(t, llm.IsCode(CheckMessages(llm.ProviderOpenAI, []llm.ChatMessage{msg(llm.RoleUser, "", " ")}), llm.ErrEmptyInput))
	assert.NoError(t, CheckMessages(llm.ProviderOpenAI, []llm.ChatMessage{msg(llm.RoleUser, "hi")}))
}

// 特性: 轮次整理
// 属性: 闭合轮次数等于 assistant 消息数，且用户文本按原顺序保留。
func TestProperty_AlternateKeepsOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		roles := []llm.Role{llm.RoleUser, llm.RoleAssistant, llm.RoleSystem, llm.RoleTool}
		n := rapid.IntRange(0, 12).Draw(rt, "n")
		var (
			msgs      []llm.ChatMessage
			assistant int
			userTexts []string
		)
		for i := 0; i < n; i++ {
			role := rapid.SampledFrom(roles).Draw(rt, "role")
			text := rapid.StringMatching(`[a-z]{1,6}`).Draw(rt, "text")
			msgs = append(msgs, msg(role, text))
			switch role {
			case llm.RoleAssistant:
				assistant++
			case llm.RoleUser, llm.RoleTool:
				userTexts = append(userTexts, text)
			}
		}

		_, turns := Alternate(msgs)
		closed := 0
		var got []string
		for i, turn := range turns {
			if turn.Closed {
				closed++
			} else if i != len(turns)-1 {
				rt.Fatalf("open turn %d is not last", i)
			}
			if turn.User != "" {
				got = append(got, strings.Split(turn.User, "\n")...)
			}
		}
		if closed != assistant {
			rt.Fatalf("closed turns %d, assistant messages %d", closed, assistant)
		}
		if strings.Join(got, ",") != strings.Join(userTexts, ",") {
			rt.Fatalf("user text order changed: %v vs %v", got, userTexts)
		}
	})
}

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	jpegBytes = append([]byte("\xFF\xD8\xFF\xE0"), make([]byte, 16)...)
)

type fakeFetcher struct {
	data        []byte
	contentType string
	err         error
	urls        []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, string, error) {
	f.urls = append(f.urls, url)
	return f.data, f.contentType, f.err
}

func TestResolve_Sources(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cat.JPG")
	require.NoError(t, os.WriteFile(file, jpegBytes, 0o600))
	noExt := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(noExt, pngBytes, 0o600))

	raw := base64.StdEncoding.EncodeToString(pngBytes)
	ctx := context.Background()

	tests := []struct {
		name     string
		ref      string
		fetch    *fakeFetcher
		wantMIME string
		wantData string
	}{
		{name: "data uri", ref: "data:image/jpg;base64," + raw, wantMIME: "image/jpeg", wantData: raw},
		{name: "raw base64 sniffed", ref: raw, wantMIME: "image/png", wantData: raw},
		{name: "local file by extension", ref: file, wantMIME: "image/jpeg", wantData: base64.StdEncoding.EncodeToString(jpegBytes)},
		{name: "local file sniffed", ref: noExt, wantMIME: "image/png", wantData: raw},
		{
			name:     "url content type",
			ref:      "https://cdn.example.com/a?sig=1",
			fetch:    &fakeFetcher{data: pngBytes, contentType: "image/png; charset=binary"},
			wantMIME: "image/png",
			wantData: raw,
		},
		{
			name:     "url extension",
			ref:      "https://cdn.example.com/a.gif?sig=1",
			fetch:    &fakeFetcher{data: []byte("not really"), contentType: "application/octet-stream"},
			wantMIME: "image/gif",
			wantData: base64.StdEncoding.EncodeToString([]byte("not really")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Fetcher
			if tt.fetch != nil {
				f = tt.fetch
			}
			m, err := NewResolver(f).Resolve(ctx, llm.ProviderOpenAI, tt.ref, ImagePolicy(""))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, m.MIME)
			assert.Equal(t, tt.wantData, m.Data)
		})
	}
}

func TestResolve_Rejections(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(&fakeFetcher{err: errors.New("boom")})
	gif := "data:image/gif;base64," + base64.StdEncoding.EncodeToString([]byte("GIF89a"))

	tests := []struct {
		name   string
		ref    string
		policy Policy
	}{
		{"not allowed", "data:image/bmp;base64,AAAA", ImagePolicy("", "image/png", "image/jpeg")},
		{"wrong kind", gif, AudioPolicy()},
		{"garbage", "definitely not an image!", ImagePolicy("")},
		{"fetch failure", "https://example.com/x.png", ImagePolicy("")},
		{"plain data uri", "data:image/png,abc", ImagePolicy("")},
		{"empty", "  ", ImagePolicy("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(ctx, llm.ProviderAnthropic, tt.ref, tt.policy)
			require.Error(t, err)
			assert.True(t, llm.IsCode(err, llm.ErrUnsupportedFormat), err)
		})
	}
}

func TestResolveAll_DegradesUnlessStrict(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	raw := base64.StdEncoding.EncodeToString(pngBytes)
	refs := []string{"https://example.com/secret.png?token=abc", raw}

	r := NewResolver(&fakeFetcher{err: errors.New("unreachable")}, WithLogger(zap.New(core)))
	media, err := r.ResolveAll(context.Background(), llm.ProviderGoogle, refs, ImagePolicy(""))
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "image/png", media[0].MIME)
	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap()["ref"], "token")

	strict := NewResolver(&fakeFetcher{err: errors.New("unreachable")}, WithStrict(true))
	_, err = strict.ResolveAll(context.Background(), llm.ProviderGoogle, refs, ImagePolicy(""))
	assert.True(t, llm.IsCode(err, llm.ErrUnsupportedFormat))
	assert.True(t, strict.Strict())
}

func TestResolve_Audio(t *testing.T) {
	wav := append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 8)...)
	m, err := NewResolver(nil).Resolve(context.Background(), llm.ProviderOpenAI,
		base64.StdEncoding.EncodeToString(wav), AudioPolicy())
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", m.MIME)
	assert.Equal(t, "wav", m.Subtype())
	assert.True(t, strings.HasPrefix(m.DataURI(), "data:audio/wav;base64,"))
}
