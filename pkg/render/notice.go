// Package render produces the respondent-facing notice shown when a form
// logic rule prevents submission.
package render

import (
	"embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/render/template"
	"github.com/goliatone/go-formlogic/pkg/render/template/pongo"
)

// DefaultNoticeTitle heads every notice.
const DefaultNoticeTitle = "Submission disabled"

// DefaultNoticeMessage replaces a missing or blank rule message.
const DefaultNoticeMessage = "Submission is disabled for this form because of your answers."

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// Templates exposes the built-in notice template.
func Templates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

var (
	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

func messageSanitizer() *bluemonday.Policy {
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return messagePolicy
}

// NoticeMessage returns the plain-text message for a blocking rule. Markup in
// the configured message is stripped; an empty result falls back to
// DefaultNoticeMessage.
func NoticeMessage(rule logic.Rule) string {
	trimmed := strings.TrimSpace(rule.Message)
	if trimmed == "" {
		return DefaultNoticeMessage
	}
	cleaned := strings.TrimSpace(html.UnescapeString(messageSanitizer().Sanitize(trimmed)))
	if cleaned == "" {
		return DefaultNoticeMessage
	}
	return cleaned
}

// Notice is the per-rule data handed to the notice template. The title is a
// template global named "title".
type Notice struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

// Option configures a NoticeRenderer.
type Option func(*NoticeRenderer)

// WithRenderer replaces the template engine. The renderer must provide a
// template named by WithTemplateName.
func WithRenderer(r template.Renderer) Option {
	return func(n *NoticeRenderer) {
		if r != nil {
			n.renderer = r
		}
	}
}

// WithTemplatesDir searches dir before the embedded templates, so a
// notice.tpl placed there replaces the built-in one. Ignored with WithRenderer.
func WithTemplatesDir(dir string) Option {
	return func(n *NoticeRenderer) {
		n.templatesDir = strings.TrimSpace(dir)
	}
}

// WithTitle overrides DefaultNoticeTitle.
func WithTitle(title string) Option {
	return func(n *NoticeRenderer) {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			n.title = trimmed
		}
	}
}

// WithTemplateName overrides the "notice" template name.
func WithTemplateName(name string) Option {
	return func(n *NoticeRenderer) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			n.templateName = trimmed
		}
	}
}

// NoticeRenderer renders the submission-disabled notice as an HTML fragment.
type NoticeRenderer struct {
	renderer     template.Renderer
	title        string
	templateName string
	templatesDir string
}

// NewNoticeRenderer builds a renderer backed by the embedded template unless
// WithRenderer supplies another engine.
func NewNoticeRenderer(opts ...Option) (*NoticeRenderer, error) {
	n := &NoticeRenderer{title: DefaultNoticeTitle, templateName: "notice"}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	globals := map[string]any{"title": n.title}

	if n.renderer != nil {
		if err := n.renderer.GlobalContext(globals); err != nil {
			return nil, fmt.Errorf("render: set template globals: %w", err)
		}
		return n, nil
	}

	engineOpts := []pongo.Option{
		pongo.WithFS(Templates()),
		pongo.WithGlobalData(globals),
	}
	if n.templatesDir != "" {
		engineOpts = append(engineOpts, pongo.WithBaseDir(n.templatesDir))
	}
	engine, err := pongo.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("render: create template engine: %w", err)
	}
	n.renderer = engine
	return n, nil
}

// Notice builds the template data for rule.
func (n *NoticeRenderer) Notice(rule logic.Rule) Notice {
	return Notice{RuleID: rule.ID, Message: NoticeMessage(rule)}
}

// RenderNotice renders the notice for a blocking rule.
func (n *NoticeRenderer) RenderNotice(rule logic.Rule) (string, error) {
	if n == nil || n.renderer == nil {
		return "", errors.New("render: notice renderer is nil")
	}
	out, err := n.renderer.RenderTemplate(n.templateName, n.Notice(rule))
	if err != nil {
		return "", fmt.Errorf("render: notice for rule %q: %w", rule.ID, err)
	}
	return out, nil
}
