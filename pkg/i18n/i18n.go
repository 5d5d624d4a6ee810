package i18n

import (
	"embed"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/pageassist/localstore/pkg/errors"
)

//go:embed *.toml
var messageFiles embed.FS

// Localizer 按语言渲染错误与提示信息, 未注册的语言原样返回 message id
type Localizer struct {
	langs    []string
	matcher  language.Matcher
	registry map[string]*i18n.Localizer
}

// NewLocalizer 第一个语言作为 Match 的兜底
func NewLocalizer(languages ...string) Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	l := Localizer{
		langs:    languages,
		registry: make(map[string]*i18n.Localizer, len(languages)),
	}
	tags := make([]language.Tag, 0, len(languages))
	for _, lang := range languages {
		if _, err := bundle.LoadMessageFileFS(messageFiles, lang+".toml"); err != nil {
			slog.Error("failed to load i18n messages", slog.String("lang", lang), slog.Any("error", err))
		}
		l.registry[lang] = i18n.NewLocalizer(bundle, lang)
		tags = append(tags, language.Make(lang))
	}
	l.matcher = language.NewMatcher(tags)
	return l
}

// Match 解析 Accept-Language, 返回已注册的最接近的语言
func (l Localizer) Match(acceptLanguage string) string {
	if len(l.langs) == 0 {
		return ""
	}
	if _, ok := l.registry[acceptLanguage]; ok {
		return acceptLanguage
	}
	_, idx := language.MatchStrings(l.matcher, acceptLanguage)
	return l.langs[idx]
}

func (l Localizer) Get(lang string, id string) string {
	return l.localize(lang, id, nil)
}

func (l Localizer) GetWithData(lang, id string, data map[string]any) string {
	return l.localize(lang, id, data)
}

func (l Localizer) localize(lang, id string, data map[string]any) string {
	localizer := l.registry[lang]
	if localizer == nil {
		return id
	}

	str, err := localizer.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id, Other: id, One: id},
		TemplateData:   data,
	})
	if err != nil {
		slog.Debug("message not localized", slog.String("lang", lang), slog.String("id", id), slog.Any("error", err))
		return id
	}
	return str
}

// Error 渲染 CustomizedError 的 message id, 其他错误直接返回 Error()
func (l Localizer) Error(lang string, err error) string {
	var ce *errors.CustomizedError
	if !errors.As(err, &ce) {
		return err.Error()
	}
	return l.localize(lang, ce.Message(), ce.Data())
}
