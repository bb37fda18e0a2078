package models

import (
	"fmt"
	"sort"
	"strings"
)

// Language is the stored name of a supported language, e.g. "FRENCH"
type Language string

type languageInfo struct {
	code    string
	display string
}

// Codes are the BCP-47 tags understood by Google translation and speech services.
var languages = map[Language]languageInfo{
	"AFRIKAANS":           {"af", "Afrikaans"},
	"ALBANIAN":            {"sq", "Albanian"},
	"AMHARIC":             {"am", "Amharic"},
	"ARABIC":              {"ar", "Arabic"},
	"ARMENIAN":            {"hy", "Armenian"},
	"AZERBAIJANI":         {"az", "Azerbaijani"},
	"BASQUE":              {"eu", "Basque"},
	"BELARUSIAN":          {"be", "Belarusian"},
	"BENGALI":             {"bn", "Bengali"},
	"BOSNIAN":             {"bs", "Bosnian"},
	"BULGARIAN":           {"bg", "Bulgarian"},
	"CATALAN":             {"ca", "Catalan"},
	"CEBUANO":             {"ceb", "Cebuano"},
	"CHINESE_SIMPLIFIED":  {"zh-CN", "Chinese (Simplified)"},
	"CHINESE_TRADITIONAL": {"zh-TW", "Chinese (Traditional)"},
	"CORSICAN":            {"co", "Corsican"},
	"CROATIAN":            {"hr", "Croatian"},
	"CZECH":               {"cs", "Czech"},
	"DANISH":              {"da", "Danish"},
	"DUTCH":               {"nl", "Dutch"},
	"ENGLISH":             {"en", "English"},
	"ESPERANTO":           {"eo", "Esperanto"},
	"ESTONIAN":            {"et", "Estonian"},
	"FINNISH":             {"fi", "Finnish"},
	"FRENCH":              {"fr", "French"},
	"FRISIAN":             {"fy", "Frisian"},
	"GALICIAN":            {"gl", "Galician"},
	"GEORGIAN":            {"ka", "Georgian"},
	"GERMAN":              {"de", "German"},
	"GREEK":               {"el", "Greek"},
	"GUJARATI":            {"gu", "Gujarati"},
	"HAITIAN_CREOLE":      {"ht", "Haitian Creole"},
	"HAUSA":               {"ha", "Hausa"},
	"HAWAIIAN":            {"haw", "Hawaiian"},
	"HEBREW":              {"he", "Hebrew"},
	"HINDI":               {"hi", "Hindi"},
	"HMONG":               {"hmn", "Hmong"},
	"HUNGARIAN":           {"hu", "Hungarian"},
	"ICELANDIC":           {"is", "Icelandic"},
	"IGBO":                {"ig", "Igbo"},
	"INDONESIAN":          {"id", "Indonesian"},
	"IRISH":               {"ga", "Irish"},
	"ITALIAN":             {"it", "Italian"},
	"JAPANESE":            {"ja", "Japanese"},
	"JAVANESE":            {"jv", "Javanese"},
	"KANNADA":             {"kn", "Kannada"},
	"KAZAKH":              {"kk", "Kazakh"},
	"KHMER":               {"km", "Khmer"},
	"KINYARWANDA":         {"rw", "Kinyarwanda"},
	"KOREAN":              {"ko", "Korean"},
	"KURDISH":             {"ku", "Kurdish"},
	"KYRGYZ":              {"ky", "Kyrgyz"},
	"LAO":                 {"lo", "Lao"},
	"LATIN":               {"la", "Latin"},
	"LATVIAN":             {"lv", "Latvian"},
	"LITHUANIAN":          {"lt", "Lithuanian"},
	"LUXEMBOURGISH":       {"lb", "Luxembourgish"},
	"MACEDONIAN":          {"mk", "Macedonian"},
	"MALAGASY":            {"mg", "Malagasy"},
	"MALAY":               {"ms", "Malay"},
	"MALAYALAM":           {"ml", "Malayalam"},
	"MALTESE":             {"mt", "Maltese"},
	"MAORI":               {"mi", "Maori"},
	"MARATHI":             {"mr", "Marathi"},
	"MONGOLIAN":           {"mn", "Mongolian"},
	"MYANMAR_BURMESE":     {"my", "Myanmar (Burmese)"},
	"NEPALI":              {"ne", "Nepali"},
	"NORWEGIAN":           {"no", "Norwegian"},
	"NYANJA_CHICHEWA":     {"ny", "Nyanja (Chichewa)"},
	"ODIA_ORIYA":          {"or", "Odia (Oriya)"},
	"PASHTO":              {"ps", "Pashto"},
	"PERSIAN":             {"fa", "Persian"},
	"POLISH":              {"pl", "Polish"},
	"PORTUGUESE":          {"pt", "Portuguese"},
	"PUNJABI":             {"pa", "Punjabi"},
	"ROMANIAN":            {"ro", "Romanian"},
	"RUSSIAN":             {"ru", "Russian"},
	"SAMOAN":              {"sm", "Samoan"},
	"SCOTS_GAELIC":        {"gd", "Scots Gaelic"},
	"SERBIAN":             {"sr", "Serbian"},
	"SESOTHO":             {"st", "Sesotho"},
	"SHONA":               {"sn", "Shona"},
	"SINDHI":              {"sd", "Sindhi"},
	"SINHALA_SINHALESE":   {"si", "Sinhala (Sinhalese)"},
	"SLOVAK":              {"sk", "Slovak"},
	"SLOVENIAN":           {"sl", "Slovenian"},
	"SOMALI":              {"so", "Somali"},
	"SPANISH":             {"es", "Spanish"},
	"SUNDANESE":           {"su", "Sundanese"},
	"SWAHILI":             {"sw", "Swahili"},
	"SWEDISH":             {"sv", "Swedish"},
	"TAGALOG_FILIPINO":    {"tl", "Tagalog (Filipino)"},
	"TAJIK":               {"tg", "Tajik"},
	"TAMIL":               {"ta", "Tamil"},
	"TATAR":               {"tt", "Tatar"},
	"TELUGU":              {"te", "Telugu"},
	"THAI":                {"th", "Thai"},
	"TURKISH":             {"tr", "Turkish"},
	"TURKMEN":             {"tk", "Turkmen"},
	"UKRAINIAN":           {"uk", "Ukrainian"},
	"URDU":                {"ur", "Urdu"},
	"UYGHUR":              {"ug", "Uyghur"},
	"UZBEK":               {"uz", "Uzbek"},
	"VIETNAMESE":          {"vi", "Vietnamese"},
	"WELSH":               {"cy", "Welsh"},
	"XHOSA":               {"xh", "Xhosa"},
	"YIDDISH":             {"yi", "Yiddish"},
	"YORUBA":              {"yo", "Yoruba"},
	"ZULU":                {"zu", "Zulu"},
}

var (
	languagesByCode    = make(map[string]Language, len(languages))
	languagesByDisplay = make(map[string]Language, len(languages))
)

func init() {
	for lang, info := range languages {
		code := strings.ToLower(info.code)
		if other, ok := languagesByCode[code]; ok {
			panic(fmt.Sprintf("language code %q used by both %s and %s", info.code, other, lang))
		}
		if other, ok := languagesByDisplay[info.display]; ok {
			panic(fmt.Sprintf("language display %q used by both %s and %s", info.display, other, lang))
		}
		languagesByCode[code] = lang
		languagesByDisplay[info.display] = lang
	}
}

// Code returns the language tag, e.g. "zh-CN"
func (l Language) Code() string {
	return languages[l].code
}

// Display returns the human readable name
func (l Language) Display() string {
	return languages[l].display
}

// Valid reports whether l is a supported language
func (l Language) Valid() bool {
	_, ok := languages[l]
	return ok
}

// LanguageByCode looks a language up by its tag, ignoring case
func LanguageByCode(code string) (Language, error) {
	lang, ok := languagesByCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return "", fmt.Errorf("%w: code %q", ErrUnknownLanguage, code)
	}
	return lang, nil
}

// LanguageByDisplay looks a language up by its display name
func LanguageByDisplay(display string) (Language, error) {
	lang, ok := languagesByDisplay[strings.TrimSpace(display)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, display)
	}
	return lang, nil
}

// ParseLanguage accepts a code, a display name or a stored name
func ParseLanguage(value string) (Language, error) {
	if lang, err := LanguageByCode(value); err == nil {
		return lang, nil
	}
	if lang, err := LanguageByDisplay(value); err == nil {
		return lang, nil
	}
	if lang := Language(strings.ToUpper(strings.TrimSpace(value))); lang.Valid() {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, value)
}

// LanguageDisplayNames returns the display names of every supported language, sorted
func LanguageDisplayNames() []string {
	names := make([]string, 0, len(languages))
	for _, info := range languages {
		names = append(names, info.display)
	}
	sort.Strings(names)
	return names
}
