package stt

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Whisper-family models emit stock closing lines on silence or noise. Any
// transcript containing one of these is discarded wholesale.
var hallucinatedPhrases = []string{
	"ご視聴ありがとうございました",
	"ご視聴ありがとうございます",
	"チャンネル登録お願いします",
	"チャンネル登録よろしくお願いします",
	"高評価お願いします",
	"最後までご視聴いただきありがとうございました",
	"Thank you for watching",
	"Thanks for watching",
	"Please subscribe",
	"Subtitles by the Amara.org community",
}

// Simplified-only Chinese characters that never occur in Japanese or English
// text. One of these in the output means the model drifted languages.
var simplifiedChinese = map[rune]struct{}{
	'这': {}, '们': {}, '个': {}, '么': {}, '说': {}, '对': {},
	'时': {}, '过': {}, '还': {}, '发': {}, '见': {}, '话': {},
	'习': {}, '实': {}, '现': {}, '电': {}, '关': {}, '问': {},
	'门': {}, '长': {}, '马': {}, '车': {}, '东': {}, '买': {},
	'卖': {}, '书': {}, '语': {}, '请': {}, '谢': {}, '测': {},
	'试': {}, '为': {}, '样': {},
}

const (
	// Transcripts from audio shorter than this get the chars-per-second check.
	ratioCheckMaxAudio = 3 * time.Second
	// Above this output rate on short audio the text cannot be real speech.
	maxCharsPerSecond = 15.0
	// A phrase must repeat this many times before the text is discarded.
	minRepetitions = 3
)

// ValidateTranscript screens a raw transcript against known transcription
// failure modes and returns it cleaned, or empty when the text is judged to
// be a hallucination. The caller treats an empty result as an aborted
// utterance.
func ValidateTranscript(text string, audioDuration time.Duration) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	for _, phrase := range hallucinatedPhrases {
		if strings.Contains(text, phrase) {
			return ""
		}
	}

	if containsSimplifiedChinese(text) {
		return ""
	}

	runes := []rune(text)
	if isRepeatedPhrase(runes) {
		return ""
	}

	if audioDuration > 0 && audioDuration < ratioCheckMaxAudio {
		rate := float64(utf8.RuneCountInString(text)) / audioDuration.Seconds()
		if rate > maxCharsPerSecond {
			return ""
		}
	}

	return text
}

func containsSimplifiedChinese(text string) bool {
	for _, r := range text {
		if _, ok := simplifiedChinese[r]; ok {
			return true
		}
	}
	return false
}

// isRepeatedPhrase reports whether the whole text is a single phrase
// repeated minRepetitions or more times, the signature of a decoder loop.
func isRepeatedPhrase(runes []rune) bool {
	n := len(runes)
	for phraseLen := 1; phraseLen <= n/minRepetitions; phraseLen++ {
		if n%phraseLen != 0 {
			continue
		}
		repeats := true
		for i := phraseLen; i < n; i++ {
			if runes[i] != runes[i%phraseLen] {
				repeats = false
				break
			}
		}
		if repeats {
			return true
		}
	}
	return false
}
