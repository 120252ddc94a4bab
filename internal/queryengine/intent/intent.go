// Package intent classifies a raw query string into counting / average /
// comparison intents and guesses the data category and activity the query
// targets. Classification is purely lexical: locale-specific pattern tables
// are matched case-insensitively against the whole string, so new locales
// are additive data rather than code changes.
package intent

import (
	"strings"

	"lifequery/internal/models"
)

// Locale identifies the language a pattern set belongs to. It only exists
// for readability of the tables; evaluation is uniform across locales.
type Locale string

const (
	LocaleEnglish    Locale = "en"
	LocaleSpanish    Locale = "es"
	LocaleFrench     Locale = "fr"
	LocaleGerman     Locale = "de"
	LocalePortuguese Locale = "pt"
	LocaleItalian    Locale = "it"
	LocaleChinese    Locale = "zh"
	LocaleJapanese   Locale = "ja"
	LocaleKorean     Locale = "ko"
)

// patternSet is one locale's literal phrases for one intent.
type patternSet struct {
	locale   Locale
	patterns []string
}

var countPatterns = []patternSet{
	{LocaleEnglish, []string{"how many", "how often", "number of times", "count of"}},
	{LocaleSpanish, []string{"cuántas veces", "cuantas veces", "cuántos", "cuántas"}},
	{LocaleFrench, []string{"combien de fois", "combien de"}},
	{LocaleGerman, []string{"wie oft", "wie viele"}},
	{LocalePortuguese, []string{"quantas vezes", "quantos", "quantas"}},
	{LocaleItalian, []string{"quante volte", "quanti", "quante"}},
	{LocaleChinese, []string{"多少次", "几次", "多少个"}},
	{LocaleJapanese, []string{"何回", "何度", "いくつ"}},
	{LocaleKorean, []string{"몇 번", "몇번", "몇 개"}},
}

var averagePatterns = []patternSet{
	{LocaleEnglish, []string{"average", "on average", "mean value"}},
	{LocaleSpanish, []string{"promedio", "media de"}},
	{LocaleFrench, []string{"moyenne", "en moyenne"}},
	{LocaleGerman, []string{"durchschnitt", "im schnitt"}},
	{LocalePortuguese, []string{"média", "em média"}},
	{LocaleItalian, []string{"media", "in media"}},
	{LocaleChinese, []string{"平均"}},
	{LocaleJapanese, []string{"平均"}},
	{LocaleKorean, []string{"평균"}},
}

var comparisonPatterns = []patternSet{
	{LocaleEnglish, []string{"compare", "compared to", "more than", "less than", "versus", " vs "}},
	{LocaleSpanish, []string{"comparar", "más que", "menos que"}},
	{LocaleFrench, []string{"comparer", "plus que", "moins que"}},
	{LocaleGerman, []string{"vergleich", "mehr als", "weniger als"}},
	{LocalePortuguese, []string{"comparar", "mais que", "menos que"}},
	{LocaleItalian, []string{"confronta", "più di", "meno di"}},
	{LocaleChinese, []string{"比较", "相比"}},
	{LocaleJapanese, []string{"比較", "比べて"}},
	{LocaleKorean, []string{"비교"}},
}

// dataTypeVocabulary maps each data category to its cross-language trigger
// words. Categories are evaluated in the order of dataTypePriority so that
// overlapping vocabulary resolves deterministically.
var dataTypeVocabulary = map[models.DataType][]string{
	models.DataTypePhoto: {
		"photo", "picture", "image", "selfie",
		"foto", "imagen", "bild", "imagem", "immagine",
		"照片", "图片", "写真", "사진",
	},
	models.DataTypeHealth: {
		"steps", "sleep", "heart rate", "workout", "exercise", "calories", "health",
		"pasos", "sueño", "salud",
		"pas ", "sommeil", "santé",
		"schritte", "schlaf", "gesundheit",
		"passos", "sono", "saúde",
		"passi", "salute",
		"步数", "睡眠", "健康", "运动",
		"歩数", "運動",
		"걸음", "수면", "건강", "운동",
	},
	models.DataTypeLocation: {
		"where", "place", "visit", "went", "location",
		"dónde", "donde", "lugar",
		"où", "endroit",
		"wo ", "ort",
		"onde", "local",
		"dove", "luogo",
		"哪里", "地点", "去过",
		"どこ", "場所",
		"어디", "장소",
	},
	models.DataTypeVoice: {
		"voice", "recording", "said", "audio",
		"voz", "grabación",
		"voix", "enregistrement",
		"stimme", "aufnahme",
		"gravação",
		"registrazione",
		"语音", "录音",
		"音声", "録音",
		"음성", "녹음",
	},
}

// dataTypePriority fixes the evaluation order for category suggestion:
// photo wins over health wins over location wins over voice.
var dataTypePriority = []models.DataType{
	models.DataTypePhoto,
	models.DataTypeHealth,
	models.DataTypeLocation,
	models.DataTypeVoice,
}

// activityVocabulary is the fixed cross-language list of activity tokens.
// The first token found as a substring of the query is returned verbatim.
var activityVocabulary = []string{
	"badminton", "gym", "running", "yoga", "swimming", "tennis",
	"football", "soccer", "basketball", "cycling", "hiking", "pilates", "golf",
	"gimnasio", "correr", "natación",
	"course à pied", "natation",
	"laufen", "schwimmen",
	"corrida", "natação",
	"corsa", "nuoto",
	"健身", "跑步", "游泳", "瑜伽", "羽毛球",
	"ジム", "ランニング", "水泳",
	"헬스", "달리기", "수영",
}

// Analyze classifies the query text. It is a pure function: no side
// effects, no errors, always a (possibly all-empty) result.
func Analyze(text string) models.IntentAnalysis {
	lowered := strings.ToLower(text)

	result := models.IntentAnalysis{
		IsCountQuery:      matchesAny(lowered, countPatterns),
		IsAverageQuery:    matchesAny(lowered, averagePatterns),
		IsComparisonQuery: matchesAny(lowered, comparisonPatterns),
	}

	for _, dataType := range dataTypePriority {
		if containsAny(lowered, dataTypeVocabulary[dataType]) {
			result.SuggestedDataType = dataType
			break
		}
	}

	for _, activity := range activityVocabulary {
		if strings.Contains(lowered, activity) {
			result.SuggestedActivity = activity
			break
		}
	}

	return result
}

// matchesAny reports whether any locale's pattern set matches. A hit in any
// language is enough; the flags are not mutually exclusive.
func matchesAny(lowered string, sets []patternSet) bool {
	for _, set := range sets {
		if containsAny(lowered, set.patterns) {
			return true
		}
	}
	return false
}

func containsAny(lowered string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
