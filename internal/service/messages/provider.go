// Package messages 는 카드 UI 고정 문구를 언어별 YAML 카탈로그에서 제공한다.
package messages

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TanHoangarc/Admin/internal/domain"
)

//go:embed messages.yaml
var defaultCatalog string

// Provider 는 언어별 문구 트리다.
type Provider struct {
	root map[string]any
}

// Default 는 내장 카탈로그로 Provider 를 만든다.
func Default() (*Provider, error) {
	return NewFromYAML(defaultCatalog)
}

// NewFromYAML 는 YAML 문자열로 Provider 를 만든다. 최상위 키는 언어 코드다.
func NewFromYAML(yamlContent string) (*Provider, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(yamlContent), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal yaml failed: %w", err)
	}
	if raw == nil {
		return &Provider{root: make(map[string]any)}, nil
	}

	root, ok := normalizeYAMLValue(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected yaml root type: %T", raw)
	}
	return &Provider{root: root}, nil
}

// Get: "lang.key.path" 를 조회하고 {param} 을 치환한다. 없는 키는 키 문자열 그대로 반환한다.
func (p *Provider) Get(lang domain.Language, key string, params ...Param) string {
	if p == nil || strings.TrimSpace(key) == "" {
		return key
	}

	value, ok := resolveDottedKey(p.root, string(lang)+"."+key)
	if !ok {
		return key
	}
	template, ok := value.(string)
	if !ok {
		return fmt.Sprint(value)
	}

	out := template
	for _, param := range params {
		out = strings.ReplaceAll(out, "{"+param.Key+"}", fmt.Sprint(param.Value))
	}
	return out
}

// Table 은 한 언어의 모든 문구를 점 표기 키로 평탄화해 반환한다.
func (p *Provider) Table(lang domain.Language) map[string]string {
	out := make(map[string]string)
	if p == nil {
		return out
	}
	sub, ok := p.root[string(lang)].(map[string]any)
	if !ok {
		return out
	}
	flatten("", sub, out)
	return out
}

// Languages 는 카탈로그에 정의된 언어 목록이다.
func (p *Provider) Languages() []domain.Language {
	if p == nil {
		return nil
	}
	langs := make([]domain.Language, 0, len(p.root))
	for k := range p.root {
		langs = append(langs, domain.Language(k))
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Param 는 템플릿 치환 인자다.
type Param struct {
	Key   string
	Value any
}

// P 는 Param 생성 헬퍼다.
func P(key string, value any) Param {
	return Param{Key: key, Value: value}
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch typed := v.(type) {
		case map[string]any:
			flatten(key, typed, out)
		case string:
			out[key] = typed
		default:
			out[key] = fmt.Sprint(typed)
		}
	}
}

func resolveDottedKey(root map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	var current any = root

	for _, part := range parts {
		nextMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := nextMap[part]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func normalizeYAMLValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, vv := range typed {
			out[k] = normalizeYAMLValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, vv := range typed {
			out[fmt.Sprint(k)] = normalizeYAMLValue(vv)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, vv := range typed {
			out = append(out, normalizeYAMLValue(vv))
		}
		return out
	default:
		return v
	}
}
