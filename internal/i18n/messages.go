// Package i18n holds the user-facing message catalog and locale matching.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	English            = "en"
	TraditionalChinese = "zh-TW"

	// GenericError replaces any message that must not reach the caller.
	GenericError = "internal error"
)

var supported = []language.Tag{language.English, language.TraditionalChinese}

var matcher = language.NewMatcher(supported)

type entry struct {
	en, zh string
}

// Keys are the Message values produced by the domain packages.
var messages = map[string]entry{
	GenericError:                           {"Something went wrong. Please try again later.", "伺服器發生錯誤，請稍後再試。"},
	"unauthorized":                         {"Please sign in again.", "請重新登入。"},
	"invalid request":                      {"The request is invalid.", "請求格式錯誤。"},
	"invalid request body":                 {"The request body must be valid JSON.", "請求內容必須是有效的 JSON。"},
	"avatar image is required":             {"An avatar image or avatar path is required.", "請提供人物照片或照片路徑。"},
	"clothing image is required":           {"A clothing image or clothing path is required.", "請提供服裝照片或照片路徑。"},
	"prompt is required":                   {"Please enter a message.", "請輸入訊息。"},
	"prompt is too long":                   {"The message is too long.", "訊息過長。"},
	"subscription not found":               {"Subscription not found. Please contact support.", "找不到訂閱資料，請聯絡客服。"},
	"daily try-on limit reached":           {"You have reached today's try-on limit. Try again tomorrow or upgrade your plan.", "今日試穿次數已達上限，請明天再試或升級方案"},
	"invalid plan":                         {"Your subscription plan is misconfigured. Please contact support.", "訂閱方案設定錯誤，請聯絡客服。"},
	"failed to read subscription":          {"Could not load your subscription. Please try again later.", "無法讀取訂閱資料，請稍後再試。"},
	"failed to record usage":               {"Could not record usage. Please try again later.", "無法記錄使用次數，請稍後再試。"},
	"unable to determine storage location": {"The image path does not point to a known location.", "無法判斷圖片的儲存位置。"},
	"failed to download image":             {"Could not load the image. Please try again later.", "無法下載圖片，請稍後再試。"},
	"unable to recognize image":            {"Unable to recognize the image. Please try a different photo.", "無法辨識圖片，請換一張照片再試。"},
	"image generation failed":              {"Image generation failed. Please try again later.", "圖片生成失敗，請稍後再試。"},
	"invalid avatar image data":            {"The avatar image data is not valid base64.", "人物照片資料格式錯誤。"},
	"invalid clothing image data":          {"The clothing image data is not valid base64.", "服裝照片資料格式錯誤。"},
	"generation cancelled":                 {"The request was cancelled.", "請求已取消。"},
	"too many requests":                    {"Too many requests. Please slow down.", "請求過於頻繁，請稍後再試。"},
	"not found":                            {"Not found.", "找不到資源。"},
}

var printers = buildPrinters()

func buildPrinters() map[string]*message.Printer {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, e := range messages {
		_ = b.SetString(language.English, key, e.en)
		_ = b.SetString(language.TraditionalChinese, key, e.zh)
	}
	return map[string]*message.Printer{
		English:            message.NewPrinter(language.English, message.Catalog(b)),
		TraditionalChinese: message.NewPrinter(language.TraditionalChinese, message.Catalog(b)),
	}
}

// Localize returns the catalog text for key in locale. Unknown keys fall
// back to the generic error text.
func Localize(locale, key string) string {
	if _, ok := messages[key]; !ok {
		key = GenericError
	}
	p, ok := printers[locale]
	if !ok {
		p = printers[English]
	}
	return p.Sprintf(key)
}

// Known reports whether key has catalog text.
func Known(key string) bool {
	_, ok := messages[key]
	return ok
}

// Match picks the supported locale for an Accept-Language style value, or ""
// when nothing in it matches.
func Match(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return Normalize(supported[idx].String())
}

// Normalize maps a tag string onto one of the supported locale names.
func Normalize(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return English
	}
	base, _ := t.Base()
	if base.String() != "zh" {
		return English
	}
	// Simplified Chinese readers still get the Traditional catalog.
	return TraditionalChinese
}

// ForCountry returns the default locale for an ISO country code.
func ForCountry(country string) string {
	switch strings.ToUpper(country) {
	case "TW", "HK", "MO":
		return TraditionalChinese
	case "":
		return ""
	default:
		return English
	}
}
