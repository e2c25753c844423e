package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source records where a config value came from. Line and Column are zero
// for TOML files and defaults.
type Source struct {
	Kind   SourceKind
	Name   string // for default
	File   string
	Line   int
	Column int
}

func (s Source) position() string {
	if s.Line == 0 {
		return s.File
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // key path -> last writer source (file only)
	Files   []string          // all loaded files, in load order
}

// DefaultConfigPath prefers config.yaml, then config.toml, under
// ~/.config/riotile. The yaml path is returned when neither exists.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "riotile")
	for _, name := range []string{"config.yaml", "config.toml"} {
		p := filepath.Join(dir, name)
		if ok, _ := pathExists(p); ok {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and everything it includes. A missing file yields
// the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	set := layerSet{sources: map[string]Source{}}
	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		l := &loader{seen: map[string]bool{}}
		if set, err = l.load(path); err != nil {
			return nil, err
		}
	}

	cfg, err := BuildEffectiveConfig(set.raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Path != "" {
			if src, ok := set.sources[verr.Path]; ok {
				verr.Source = src
			}
		}
		return nil, err
	}
	return &LoadResult{Config: cfg, Sources: set.sources, Files: set.files}, nil
}

// layerSet is the merge of one or more files.
type layerSet struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

// over layers top over s.
func (s *layerSet) over(top layerSet) {
	s.raw = s.raw.merge(top.raw)
	maps.Copy(s.sources, top.sources)
	s.files = append(s.files, top.files...)
}

// loader walks a file and its includes depth first. A file overrides what
// it includes; later includes override earlier ones. Each file is merged
// at most once.
type loader struct {
	seen  map[string]bool
	chain []string
}

func (l *loader) load(path string) (layerSet, error) {
	file := canonicalPath(path)
	for _, f := range l.chain {
		if f == file {
			return layerSet{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.chain, " -> "), file)
		}
	}
	if l.seen[file] {
		return layerSet{sources: map[string]Source{}}, nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return layerSet{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	self, err := decodeFile(data, file)
	if err != nil {
		return layerSet{}, err
	}

	l.chain = append(l.chain, file)
	defer func() { l.chain = l.chain[:len(l.chain)-1] }()

	out := layerSet{sources: map[string]Source{}}
	at := self.sources["include"]
	for _, inc := range self.raw.Include {
		paths, err := expandInclude(file, inc)
		if err != nil {
			return layerSet{}, fmt.Errorf("%s: include %q: %w", at.position(), inc, err)
		}
		for _, p := range paths {
			sub, err := l.load(p)
			if err != nil {
				return layerSet{}, err
			}
			out.over(sub)
		}
	}
	out.over(self)
	return out, nil
}

// decodeFile decodes one file by extension, rejecting unknown keys.
func decodeFile(data []byte, file string) (layerSet, error) {
	if strings.EqualFold(filepath.Ext(file), ".toml") {
		return decodeTOML(data, file)
	}
	return decodeYAML(data, file)
}

func decodeYAML(data []byte, file string) (layerSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layerSet{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	set := layerSet{sources: map[string]Source{}, files: []string{file}}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set.raw); err != nil && !errors.Is(err, io.EOF) {
		return layerSet{}, fmt.Errorf("%s: %w", file, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return set, nil
		}
		root = root.Content[0]
	}
	recordYAML(root, "", file, set.sources)
	return set, nil
}

// recordYAML stores the position of every mapping value under its dotted
// key path.
func recordYAML(n *yaml.Node, prefix, file string, out map[string]Source) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		out[key] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
		recordYAML(val, key, file, out)
	}
}

// decodeTOML decodes a TOML file. TOML keys carry no positions, so sources
// name the file only.
func decodeTOML(data []byte, file string) (layerSet, error) {
	set := layerSet{sources: map[string]Source{}, files: []string{file}}
	md, err := toml.Decode(string(data), &set.raw)
	if err != nil {
		return layerSet{}, fmt.Errorf("%s: failed to parse toml: %w", file, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return layerSet{}, fmt.Errorf("%s: unknown field %q", file, undecoded[0].String())
	}
	for _, key := range md.Keys() {
		set.sources[key.String()] = Source{Kind: SourceFile, File: file}
	}
	return set, nil
}

// canonicalPath resolves symlinks when it can so a file reached two ways
// is merged once.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// expandInclude resolves an include relative to the including file. A
// directory expands to its config files in name order.
func expandInclude(from, include string) ([]string, error) {
	if include == "" {
		return nil, errors.New("path is empty")
	}
	if include == "~" || strings.HasPrefix(include, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		include = filepath.Join(home, strings.TrimPrefix(include, "~"))
	}
	if !filepath.IsAbs(include) {
		include = filepath.Join(filepath.Dir(from), include)
	}

	info, err := os.Stat(include)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{include}, nil
	}
	entries, err := os.ReadDir(include)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
			if !e.IsDir() {
				files = append(files, filepath.Join(include, e.Name()))
			}
		}
	}
	return files, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
