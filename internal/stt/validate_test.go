package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxtool/vox/internal/audio"
	"github.com/voxtool/vox/internal/config"
)

func TestValidateTranscript(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		audio time.Duration
		want  string
	}{
		{name: "empty", text: "", audio: time.Second, want: ""},
		{name: "whitespace only", text: "  \n ", audio: time.Second, want: ""},
		{name: "normal japanese", text: "こんにちは", audio: 2 * time.Second, want: "こんにちは"},
		{name: "normal english", text: "hello world", audio: 2 * time.Second, want: "hello world"},
		{
			name:  "stock outro go-shichou",
			text:  "ご視聴ありがとうございました",
			audio: time.Second,
			want:  "",
		},
		{
			name:  "stock outro channel",
			text:  "チャンネル登録お願いします",
			audio: time.Second,
			want:  "",
		},
		{
			name:  "stock outro high rating",
			text:  "高評価お願いします",
			audio: time.Second,
			want:  "",
		},
		{
			name:  "stock outro english",
			text:  "Thank you for watching.",
			audio: time.Second,
			want:  "",
		},
		{
			name:  "triple repetition discarded",
			text:  "あいうあいうあいう",
			audio: 3 * time.Second,
			want:  "",
		},
		{
			name:  "double repetition passes",
			text:  "はいはい",
			audio: time.Second,
			want:  "はいはい",
		},
		{
			name:  "onegai shimasu is not an outro",
			text:  "しっかりと頑張るのでよろしくお願いします。",
			audio: 5 * time.Second,
			want:  "しっかりと頑張るのでよろしくお願いします。",
		},
		{
			name:  "impossible output rate on short audio",
			text:  "今日はとても良い天気で散歩に行きましょう。公園で友達と会いました。楽しかったです。",
			audio: 2 * time.Second,
			want:  "",
		},
		{
			name:  "decoder loop discarded regardless of rate",
			text:  strings.Repeat("あ", 50),
			audio: 10 * time.Second,
			want:  "",
		},
		{
			name:  "plausible output rate passes",
			text:  "今日はいい天気ですね。散歩に行きましょう。",
			audio: 5 * time.Second,
			want:  "今日はいい天気ですね。散歩に行きましょう。",
		},
		{
			name:  "rate check skipped at three seconds",
			text:  "今日はとても良い天気で散歩に行きましょう。公園で友達と会いました。楽しかったです。",
			audio: 3 * time.Second,
			want:  "今日はとても良い天気で散歩に行きましょう。公園で友達と会いました。楽しかったです。",
		},
		{
			name:  "rate check skipped for unknown duration",
			text:  "朝から雨が降っていたので、今日は家で本を読むことにしました。",
			audio: 0,
			want:  "朝から雨が降っていたので、今日は家で本を読むことにしました。",
		},
		{
			name:  "simplified chinese discarded",
			text:  "这是什么意思",
			audio: 2 * time.Second,
			want:  "",
		},
		{
			name:  "japanese kanji kept",
			text:  "音声認識のテストです",
			audio: 3 * time.Second,
			want:  "音声認識のテストです",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ValidateTranscript(tc.text, tc.audio))
		})
	}
}

func TestContainsSimplifiedChinese(t *testing.T) {
	require.True(t, containsSimplifiedChinese("这是一个测试"))
	require.True(t, containsSimplifiedChinese("テスト这"))
	require.False(t, containsSimplifiedChinese("これはテストです"))
	require.False(t, containsSimplifiedChinese("東京都渋谷区"))
	require.False(t, containsSimplifiedChinese("plain ascii"))
}

func TestTranscribeDiscardsHallucinatedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"ご視聴ありがとうございました"}`))
	}))
	defer server.Close()

	engine, err := New(config.STTConfig{
		Engine:     "whisper-server",
		BaseURL:    server.URL + "/v1",
		Model:      "whisper-1",
		TimeoutSec: 5,
	})
	require.NoError(t, err)

	text, err := engine.Transcribe(context.Background(), audio.Buffer{
		PCM:        make([]byte, 2*audio.SampleRate*2),
		SampleRate: 16000,
		Channels:   1,
	})
	require.NoError(t, err)
	require.Empty(t, text)
}
