package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-ioc/framework/component"
)

// The resolvers below implement component.ValueResolver. Keys are dotted
// paths ("http.addr"); environment based resolvers map them to variable
// names ("HTTP_ADDR").

// EnvKey turns a dotted key into an environment variable name.
//
//	config.EnvKey("db.url")       // DB_URL
//	config.EnvKey("http.read-ms") // HTTP_READ_MS
func EnvKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// ── Environment ──────────────────────────────────────────────────────────────

// EnvResolver reads the process environment. Prefix, if set, is prepended
// to every variable name ("APP" + "db.url" → APP_DB_URL). Empty variables
// count as unset.
type EnvResolver struct {
	Prefix string
}

func (r EnvResolver) Resolve(key string) (any, bool) {
	name := EnvKey(key)
	if r.Prefix != "" {
		name = strings.ToUpper(r.Prefix) + "_" + name
	}
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil, false
	}
	return v, true
}

// ── .env files ───────────────────────────────────────────────────────────────

// DotEnvResolver serves values read from .env files without touching the
// process environment.
type DotEnvResolver struct {
	values map[string]string
}

// ReadDotEnv parses files with godotenv; later files override earlier ones.
func ReadDotEnv(files ...string) (*DotEnvResolver, error) {
	values, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("config: read dotenv: %w", err)
	}
	return &DotEnvResolver{values: values}, nil
}

func (r *DotEnvResolver) Resolve(key string) (any, bool) {
	v, ok := r.values[EnvKey(key)]
	return v, ok
}

// ── YAML ─────────────────────────────────────────────────────────────────────

// YAMLResolver serves scalar values from a YAML document by dotted path:
//
//	http:
//	  addr: ":9000"      # "http.addr"
type YAMLResolver struct {
	root map[string]any
}

// LoadYAML reads and parses the YAML file at path.
func LoadYAML(path string) (*YAMLResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	r, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return r, nil
}

// ParseYAML parses a YAML document. An empty document resolves nothing.
func ParseYAML(data []byte) (*YAMLResolver, error) {
	root := map[string]any{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &YAMLResolver{root: root}, nil
}

// Resolve walks the dotted path. Only scalar leaves resolve; a key that
// names a mapping or a list is reported as missing.
func (r *YAMLResolver) Resolve(key string) (any, bool) {
	var cur any = r.root
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	switch cur.(type) {
	case map[string]any, []any, nil:
		return nil, false
	}
	return cur, true
}

// ── Combinators ──────────────────────────────────────────────────────────────

// MapResolver serves values from a plain map keyed by dotted path.
type MapResolver map[string]any

func (m MapResolver) Resolve(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Chain asks each resolver in turn; the first hit wins. Nil entries are
// skipped.
func Chain(resolvers ...component.ValueResolver) component.ValueResolver {
	return chain(resolvers)
}

type chain []component.ValueResolver

func (c chain) Resolve(key string) (any, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v, ok := r.Resolve(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Resolver builds the default resolution chain for cfg: process
// environment first, then the YAML file named by APP_CONFIG_FILE.
func (c *Config) Resolver() (component.ValueResolver, error) {
	resolvers := []component.ValueResolver{EnvResolver{}}
	if c.App.ConfigFile != "" {
		y, err := LoadYAML(c.App.ConfigFile)
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, y)
	}
	return Chain(resolvers...), nil
}
