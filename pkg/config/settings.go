package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the project-scope settings file, looked up in the
// working directory
const ProjectFileName = "pcov-project.yaml"

// projectSection is the key under settings holding our overrides
const projectSection = "package_coverage"

// Lookup resolves key against a scope-local override layer first, then the
// global defaults, then fallback.
func Lookup(overrides, defaults map[string]any, key string, fallback any) any {
	if v, ok := overrides[key]; ok {
		return v
	}
	if v, ok := defaults[key]; ok {
		return v
	}
	return fallback
}

// Settings layers project overrides over the user config
type Settings struct {
	User        *Config
	ProjectFile string // Empty when no project file exists
}

// NewSettings binds the user config and the project file in dir, if any
func NewSettings(user *Config, dir string) *Settings {
	s := &Settings{User: user}
	candidate := filepath.Join(dir, ProjectFileName)
	if _, err := os.Stat(candidate); err == nil {
		s.ProjectFile = candidate
	}
	return s
}

// HasProject reports whether a project scope is available
func (s *Settings) HasProject() bool {
	return s.ProjectFile != ""
}

// Get looks up a string setting. The project file is re-read every call.
func (s *Settings) Get(key, fallback string) string {
	overrides, err := s.projectOverrides()
	if err != nil {
		overrides = nil
	}
	v := Lookup(overrides, s.User.Values(), key, fallback)
	str, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	if key == KeyDatabase || key == KeyPackages {
		return expandHome(str)
	}
	return str
}

// projectOverrides reads settings.package_coverage from the project file
func (s *Settings) projectOverrides() (map[string]any, error) {
	if s.ProjectFile == "" {
		return nil, nil
	}
	data, err := s.readProject()
	if err != nil {
		return nil, err
	}
	settings, _ := data["settings"].(map[string]any)
	section, _ := settings[projectSection].(map[string]any)
	return section, nil
}

func (s *Settings) readProject() (map[string]any, error) {
	data := map[string]any{}
	raw, err := os.ReadFile(s.ProjectFile)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}
	return data, nil
}

// SetProject stores key in the project file, keeping its other content. The
// file is created when ProjectFile names one that does not exist yet.
func (s *Settings) SetProject(key, value string) error {
	if s.ProjectFile == "" {
		return errors.New("no project file")
	}
	if _, err := DefaultConfig().Get(key); err != nil {
		return err
	}
	data, err := s.readProject()
	if err != nil {
		return err
	}
	settings, ok := data["settings"].(map[string]any)
	if !ok {
		settings = map[string]any{}
		data["settings"] = settings
	}
	section, ok := settings[projectSection].(map[string]any)
	if !ok {
		section = map[string]any{}
		settings[projectSection] = section
	}
	section[key] = value

	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal project file: %w", err)
	}
	if err := os.WriteFile(s.ProjectFile, out, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// SetUser stores key in the user config file. The file is re-read so values
// that came from environment overrides are not persisted.
func (s *Settings) SetUser(key, value string) error {
	persisted, err := LoadFile()
	if err != nil {
		return err
	}
	if err := persisted.Set(key, value); err != nil {
		return err
	}
	if err := persisted.Save(GetConfigPath()); err != nil {
		return err
	}
	return s.User.Set(key, value)
}

// ValidateDatabasePath checks a requested coverage database path the way the
// set-database-path command does before saving it
func ValidateDatabasePath(requested string) error {
	dir, base := filepath.Split(expandHome(requested))
	if base == "" {
		return ErrNoFilename
	}
	// Relative folders are rejected along with missing ones
	if !filepath.IsAbs(dir) {
		return &MissingFolderError{Dir: filepath.Clean(dir)}
	}
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &MissingFolderError{Dir: dir}
	}
	return nil
}

// ErrNoFilename means the requested database path ends in a separator
var ErrNoFilename = errors.New("no filename provided for coverage database")

// MissingFolderError means the requested database folder does not exist
type MissingFolderError struct {
	Dir string
}

func (e *MissingFolderError) Error() string {
	return fmt.Sprintf("folder provided for coverage database does not exist: %s", e.Dir)
}
