package localize

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrMissingMessage is returned by Translate when no language in the chain
// carries the key.
var ErrMissingMessage = errors.New("localize: missing message")

// TextServiceConfig configures language fallback.
type TextServiceConfig struct {
	// DefaultLang is appended to every chain that does not already contain it.
	// Defaults to "en".
	DefaultLang string
	// Fallbacks overrides the chain for a language, e.g.
	// "en-GB": {"en-GB", "en"}.
	Fallbacks map[string][]string
}

// TextService stores messages per language and resolves keys through a
// fallback chain. It is safe for concurrent use.
type TextService struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	config   TextServiceConfig
}

type localeFile struct {
	Language string            `yaml:"language"`
	Messages map[string]string `yaml:"messages"`
}

// NewTextService constructs an empty TextService.
func NewTextService(cfg TextServiceConfig) *TextService {
	if strings.TrimSpace(cfg.DefaultLang) == "" {
		cfg.DefaultLang = "en"
	}
	cfg.DefaultLang = canonical(cfg.DefaultLang)
	fallbacks := make(map[string][]string, len(cfg.Fallbacks))
	for lang, chain := range cfg.Fallbacks {
		normalized := make([]string, 0, len(chain))
		for _, fb := range chain {
			normalized = append(normalized, canonical(fb))
		}
		fallbacks[canonical(lang)] = normalized
	}
	cfg.Fallbacks = fallbacks
	return &TextService{
		messages: make(map[string]map[string]string),
		config:   cfg,
	}
}

// Register merges msgs into the language table. Existing keys are
// overwritten, nothing is deleted.
func (s *TextService) Register(lang string, msgs map[string]string) {
	lang = canonical(lang)
	if lang == "" || len(msgs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.messages[lang]
	if !ok {
		table = make(map[string]string, len(msgs))
		s.messages[lang] = table
	}
	for key, value := range msgs {
		table[key] = value
	}
}

// LoadFS walks fsys and registers every .yaml/.yml locale file. Each file
// declares its `language` and a flat `messages` map.
func (s *TextService) LoadFS(fsys fs.FS) error {
	if fsys == nil {
		return nil
	}
	return fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("localize: read %s: %w", p, err)
		}
		var file localeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("localize: parse %s: %w", p, err)
		}
		if strings.TrimSpace(file.Language) == "" {
			return fmt.Errorf("localize: file %s missing 'language'", p)
		}
		s.Register(file.Language, file.Messages)
		return nil
	})
}

// Languages reports the registered languages.
func (s *TextService) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.messages))
	for lang := range s.messages {
		out = append(out, lang)
	}
	return out
}

// Translate implements the render Translator contract: it resolves key for
// locale and reports ErrMissingMessage when nothing matches.
func (s *TextService) Translate(locale, key string, _ ...any) (string, error) {
	if msg, ok := s.lookup(s.chain(locale), key); ok {
		return msg, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingMessage, key)
}

// Locale returns a Resolver bound to lang's fallback chain. Missing keys
// resolve to the key itself.
func (s *TextService) Locale(lang string) Resolver {
	chain := s.chain(lang)
	return ResolverFunc(func(key string) string {
		if msg, ok := s.lookup(chain, key); ok {
			return msg
		}
		return key
	})
}

func (s *TextService) chain(lang string) []string {
	lang = canonical(lang)
	if lang == "" {
		return []string{s.config.DefaultLang}
	}
	if fb, ok := s.config.Fallbacks[lang]; ok && len(fb) > 0 {
		return append([]string(nil), fb...)
	}
	chain := []string{lang}
	if base := baseLanguage(lang); base != "" && base != lang {
		chain = append(chain, base)
	}
	if chain[len(chain)-1] != s.config.DefaultLang && lang != s.config.DefaultLang {
		chain = append(chain, s.config.DefaultLang)
	}
	return chain
}

func (s *TextService) lookup(chain []string, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lang := range chain {
		if msg, ok := s.messages[lang][key]; ok {
			return msg, true
		}
	}
	return "", false
}

// canonical normalises a BCP 47 tag ("da_dk" becomes "da-DK"). Strings that
// do not parse are only trimmed.
func canonical(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}
	return tag.String()
}

func baseLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		base, _, _ := strings.Cut(lang, "-")
		return base
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}
