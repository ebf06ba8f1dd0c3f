package versgen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
)

// Manifest file names
const (
	CargoManifestFile = "Cargo.toml"
	SetupCfgFile      = "setup.cfg"
)

// ErrManifestInvalid is returned when a manifest exists but does not declare a usable version
var ErrManifestInvalid = errors.New("invalid manifest")

// ReadManifests reads every supported manifest in dir, in ecosystem priority order
func ReadManifests(dir string) ([]Manifest, error) {
	readers := []func(string) (*Manifest, error){
		ReadCargoManifest,
		ReadSetupCfg,
	}

	var manifests []Manifest
	for _, read := range readers {
		m, err := read(dir)
		if err != nil {
			return nil, err
		}
		if m != nil {
			manifests = append(manifests, *m)
		}
	}
	return manifests, nil
}

// ReadCargoManifest reads package.name and package.version from Cargo.toml.
// A missing file or a workspace manifest yields nil.
func ReadCargoManifest(dir string) (*Manifest, error) {
	data, err := readOptional(filepath.Join(dir, CargoManifestFile))
	if err != nil || data == nil {
		return nil, err
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", CargoManifestFile, err)
	}

	if _, ok := doc["workspace"]; ok {
		return nil, nil
	}

	pkg, ok := doc["package"].(map[string]any)
	if !ok {
		return nil, invalidManifest(CargoManifestFile, "could not find package section")
	}

	rawVersion, ok := pkg["version"]
	if !ok {
		return nil, invalidManifest(CargoManifestFile, "could not find version in package section")
	}
	version, ok := rawVersion.(string)
	if !ok {
		return nil, invalidManifest(CargoManifestFile, "package version is not a string")
	}

	m := &Manifest{
		Ecosystem: EcosystemRust,
		File:      CargoManifestFile,
		Version:   version,
	}
	if rawName, ok := pkg["name"]; ok {
		name, ok := rawName.(string)
		if !ok {
			return nil, invalidManifest(CargoManifestFile, "package name is not a string")
		}
		m.Name = &name
	}

	return m, nil
}

// ReadSetupCfg reads metadata.name and metadata.version from setup.cfg.
// A missing file yields nil.
func ReadSetupCfg(dir string) (*Manifest, error) {
	data, err := readOptional(filepath.Join(dir, SetupCfgFile))
	if err != nil || data == nil {
		return nil, err
	}

	// setup.cfg lists such as install_requires use indented continuation lines
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SetupCfgFile, err)
	}

	section, err := cfg.GetSection("metadata")
	if err != nil {
		return nil, invalidManifest(SetupCfgFile, "could not find metadata section")
	}
	if !section.HasKey("version") {
		return nil, invalidManifest(SetupCfgFile, "could not find metadata.version")
	}

	m := &Manifest{
		Ecosystem: EcosystemPython,
		File:      SetupCfgFile,
		Version:   section.Key("version").String(),
	}
	if section.HasKey("name") {
		name := section.Key("name").String()
		m.Name = &name
	}

	return m, nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func invalidManifest(file, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrManifestInvalid, file, reason)
}
