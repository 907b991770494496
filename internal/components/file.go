package components

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/status"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	KindFile = "file"

	FormatRaw  = "raw"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

var (
	ErrFilePathRequired = errors.New("components: file path is required")
	ErrUnknownFormat    = errors.New("components: unknown file format")
)

// FileSpec describes one declarative document to keep on disk.
// Data is rendered with Format; raw files use Content verbatim.
type FileSpec struct {
	Path    string
	Format  string
	Content string
	Data    map[string]any
	Mode    fs.FileMode
	Events  []string
	// LeaderOnly writes the document only on the leader unit.
	LeaderOnly bool
}

// FileComponent writes its rendered document on configure and reports whether the
// file on disk still matches.
type FileComponent struct {
	component.Base
	spec     FileSpec
	rendered []byte
	phased   component.Phased
	isLeader func() bool
}

// NewFileComponent validates spec and renders the document once. isLeader is only
// consulted for leader-only specs; nil means this unit is not the leader.
func NewFileComponent(spec FileSpec, isLeader func() bool) (*FileComponent, error) {
	spec.Path = strings.TrimSpace(spec.Path)
	if spec.Path == "" {
		return nil, ErrFilePathRequired
	}
	if spec.Format == "" {
		spec.Format = FormatRaw
	}
	if spec.Mode == 0 {
		spec.Mode = 0o644
	}
	rendered, err := render(spec)
	if err != nil {
		return nil, err
	}
	f := &FileComponent{spec: spec, rendered: rendered, isLeader: isLeader}
	f.phased = component.Phased{IsLeader: isLeader}
	if spec.LeaderOnly {
		f.phased.AppLeader = f.write
	} else {
		f.phased.Unit = f.write
	}
	return f, nil
}

func render(spec FileSpec) ([]byte, error) {
	switch strings.ToLower(spec.Format) {
	case FormatRaw:
		return []byte(spec.Content), nil
	case FormatTOML:
		out, err := toml.Marshal(spec.Data)
		if err != nil {
			return nil, fmt.Errorf("render toml %s: %w", spec.Path, err)
		}
		return out, nil
	case FormatYAML:
		out, err := yaml.Marshal(spec.Data)
		if err != nil {
			return nil, fmt.Errorf("render yaml %s: %w", spec.Path, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, spec.Format)
	}
}

func (f *FileComponent) Configure(ctx context.Context, event component.Event) error {
	return f.phased.Configure(ctx, event)
}

func (f *FileComponent) write(_ context.Context, event component.Event) error {
	current, err := os.ReadFile(f.spec.Path)
	if err == nil && bytes.Equal(current, f.rendered) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.spec.Path), 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", f.spec.Path, err)
	}
	tmp := f.spec.Path + ".tmp"
	if err := os.WriteFile(tmp, f.rendered, f.spec.Mode); err != nil {
		return fmt.Errorf("write %s: %w", f.spec.Path, err)
	}
	if err := os.Rename(tmp, f.spec.Path); err != nil {
		return fmt.Errorf("replace %s: %w", f.spec.Path, err)
	}
	log.Info().Str("path", f.spec.Path).Str("event", event.Name).Int("bytes", len(f.rendered)).Msg("components.FileComponent.Configure wrote")
	return nil
}

func (f *FileComponent) Status() status.Status {
	if f.spec.LeaderOnly && (f.isLeader == nil || !f.isLeader()) {
		return status.Active("")
	}
	current, err := os.ReadFile(f.spec.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return status.Blocked(fmt.Sprintf("not all resources found: %s; transient if not applied yet", f.spec.Path))
	}
	if err != nil {
		return status.Error(fmt.Sprintf("read %s: %v", f.spec.Path, err))
	}
	if !bytes.Equal(current, f.rendered) {
		return status.Blocked(fmt.Sprintf("resource drifted: %s", f.spec.Path))
	}
	return status.Active("")
}

func (f *FileComponent) Events() []string {
	return f.spec.Events
}

// Rendered returns the document the component keeps on disk.
func (f *FileComponent) Rendered() []byte {
	return append([]byte(nil), f.rendered...)
}
