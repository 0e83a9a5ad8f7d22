package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides values to embed in the message, such as "expected",
// "received", "min" or "max".
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":                "Expected {expected}, received {received}",
		"invalid_literal":             "Expected {expected}, received {received}",
		"invalid_date":                "Invalid date, received {received}",
		"too_small":                   "Expected a number >= {min}, received {received}",
		"too_big":                     "Expected a number <= {max}, received {received}",
		"too_short":                   "Expected at least {min} {unit}, received {received}",
		"too_long":                    "Expected at most {max} {unit}, received {received}",
		"no_match":                    "Expected one of {count} alternatives, received {received}",
		"invalid_union_discriminator": "Expected {key} to be one of {expected}, received {received}",
		"custom":                      "Invalid value, received {received}",
	},
	"ja": {
		"invalid_type":                "{expected} を期待しましたが {received} を受け取りました",
		"invalid_literal":             "{expected} を期待しましたが {received} を受け取りました",
		"invalid_date":                "日付が不正です: {received}",
		"too_small":                   "{min} 以上の数値が必要です: {received}",
		"too_big":                     "{max} 以下の数値が必要です: {received}",
		"too_short":                   "{min} {unit}以上が必要です: {received}",
		"too_long":                    "{max} {unit}以下である必要があります: {received}",
		"no_match":                    "{count} 個の候補のいずれにも一致しません: {received}",
		"invalid_union_discriminator": "{key} は {expected} のいずれかである必要があります: {received}",
		"custom":                      "値が不正です: {received}",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
