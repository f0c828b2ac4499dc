// Package i18n holds the user-facing label tables.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Key names a label.
type Key string

const (
	PanelTitle                   Key = "panelTitle"
	PanelURLLabel                Key = "panelUrlLabel"
	PanelURLPlaceholder          Key = "panelUrlPlaceholder"
	PanelServiceLabel            Key = "panelServiceLabel"
	PanelNotebookLabel           Key = "panelNotebookLabel"
	PanelFetchButton             Key = "panelFetchButton"
	RefreshNotebooks             Key = "refreshNotebooks"
	Cancel                       Key = "cancel"
	ServiceFirecrawl             Key = "serviceFirecrawl"
	ServiceJina                  Key = "serviceJina"
	SelectNotebookPlaceholder    Key = "selectNotebookPlaceholder"
	SourceLabel                  Key = "sourceLabel"
	StatusFetching               Key = "statusFetching"
	StatusCreating               Key = "statusCreating"
	StatusDone                   Key = "statusDone"
	ErrorMissingURL              Key = "errorMissingUrl"
	ErrorMissingNotebook         Key = "errorMissingNotebook"
	ErrorMissingAPIKey           Key = "errorMissingApiKey"
	ErrorUnsupportedService      Key = "errorUnsupportedService"
	ErrorFetchFailed             Key = "errorFetchFailed"
	ErrorNotebookLoad            Key = "errorNotebookLoad"
	ErrorBusy                    Key = "errorBusy"
	SettingsSaved                Key = "settingsSaved"
	SettingsAPIKeyTitle          Key = "settingsApiKeyTitle"
	SettingsEndpointTitle        Key = "settingsFirecrawlEndpointTitle"
	SettingsDefaultServiceTitle  Key = "settingsDefaultServiceTitle"
	SettingsDefaultNotebookTitle Key = "settingsDefaultNotebookTitle"
	SettingsAutoOpenNoteTitle    Key = "settingsAutoOpenNoteTitle"
)

var enUS = map[Key]string{
	PanelTitle:                   "Web Fetch",
	PanelURLLabel:                "URL",
	PanelURLPlaceholder:          "https://example.com/article",
	PanelServiceLabel:            "Service",
	PanelNotebookLabel:           "Notebook",
	PanelFetchButton:             "Fetch",
	RefreshNotebooks:             "Refresh",
	Cancel:                       "Cancel",
	ServiceFirecrawl:             "Firecrawl",
	ServiceJina:                  "Jina Reader",
	SelectNotebookPlaceholder:    "Select a notebook",
	SourceLabel:                  "Source",
	StatusFetching:               "Fetching page...",
	StatusCreating:               "Creating note...",
	StatusDone:                   "Note created",
	ErrorMissingURL:              "Please enter a URL",
	ErrorMissingNotebook:         "Please select a notebook",
	ErrorMissingAPIKey:           "Please set your Firecrawl API key in settings",
	ErrorUnsupportedService:      "Unsupported fetch service",
	ErrorFetchFailed:             "Fetch failed",
	ErrorNotebookLoad:            "Failed to load notebooks",
	ErrorBusy:                    "A fetch is already in progress",
	SettingsSaved:                "Settings saved",
	SettingsAPIKeyTitle:          "Firecrawl API key",
	SettingsEndpointTitle:        "Firecrawl endpoint",
	SettingsDefaultServiceTitle:  "Default service",
	SettingsDefaultNotebookTitle: "Default notebook",
	SettingsAutoOpenNoteTitle:    "Open note after fetch",
}

var zhCN = map[Key]string{
	PanelTitle:                   "网页抓取",
	PanelURLLabel:                "网址",
	PanelURLPlaceholder:          "https://example.com/article",
	PanelServiceLabel:            "服务",
	PanelNotebookLabel:           "笔记本",
	PanelFetchButton:             "抓取",
	RefreshNotebooks:             "刷新",
	Cancel:                       "取消",
	ServiceFirecrawl:             "Firecrawl",
	ServiceJina:                  "Jina Reader",
	SelectNotebookPlaceholder:    "请选择笔记本",
	SourceLabel:                  "来源",
	StatusFetching:               "正在抓取网页...",
	StatusCreating:               "正在创建笔记...",
	StatusDone:                   "笔记已创建",
	ErrorMissingURL:              "请输入网址",
	ErrorMissingNotebook:         "请选择笔记本",
	ErrorMissingAPIKey:           "请先在设置中填写 Firecrawl API Key",
	ErrorUnsupportedService:      "不支持的抓取服务",
	ErrorFetchFailed:             "抓取失败",
	ErrorNotebookLoad:            "加载笔记本失败",
	ErrorBusy:                    "正在抓取中",
	SettingsSaved:                "设置已保存",
	SettingsAPIKeyTitle:          "Firecrawl API Key",
	SettingsEndpointTitle:        "Firecrawl 接口地址",
	SettingsDefaultServiceTitle:  "默认服务",
	SettingsDefaultNotebookTitle: "默认笔记本",
	SettingsAutoOpenNoteTitle:    "抓取后打开笔记",
}

var (
	supported = []language.Tag{language.AmericanEnglish, language.SimplifiedChinese}
	tables    = []map[Key]string{enUS, zhCN}
	matcher   = language.NewMatcher(supported)
)

// Labels is a resolved label table.
type Labels struct {
	tag   language.Tag
	table map[Key]string
}

// For returns the labels best matching lang, such as "en_US", "zh-CN" or an
// Accept-Language value. Unknown or empty input falls back to en_US.
func For(lang string) Labels {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return Labels{tag: supported[0], table: tables[0]}
	}
	_, idx, _ := matcher.Match(tags...)
	return Labels{tag: supported[idx], table: tables[idx]}
}

// Tag returns the language of the table.
func (l Labels) Tag() language.Tag {
	if l.table == nil {
		return supported[0]
	}
	return l.tag
}

// Get returns the label for k. Missing entries fall back to en_US, then to
// the key itself.
func (l Labels) Get(k Key) string {
	if v, ok := l.table[k]; ok {
		return v
	}
	if v, ok := enUS[k]; ok {
		return v
	}
	return string(k)
}

// Keys returns every key with an en_US label.
func Keys() []Key {
	keys := make([]Key, 0, len(enUS))
	for k := range enUS {
		keys = append(keys, k)
	}
	return keys
}
