// Package compress maps a compressionLevel to the exact Ghostscript
// argument set that produces it (spec.md §4.4). The parameter table is
// embedded from profiles.yaml so it ships with the binary and is never
// silently drifted by an ambient config file.
package compress

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Level is one of the three compressionLevel values a client may
// request.
type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelExtreme Level = "extreme"

	// DefaultLevel is used when compressionLevel is absent or empty.
	DefaultLevel = LevelMedium
)

// Profile is a named set of Ghostscript parameters bound to a
// compressionLevel.
type Profile struct {
	Level       Level  `yaml:"level"`
	Preset      string `yaml:"preset"`
	JPEGQuality int    `yaml:"jpegQuality"`
	ColorDPI    int    `yaml:"colorDPI"`
	GrayDPI     int    `yaml:"grayDPI"`
	MonoDPI     int    `yaml:"monoDPI"`
}

type profileTable struct {
	Profiles []Profile `yaml:"profiles"`
}

// Profiler resolves a compressionLevel to a Profile and the flag set
// for invoking Ghostscript with it.
type Profiler struct {
	byLevel map[Level]Profile
}

// NewProfiler parses the embedded profile table. It panics on failure
// since a corrupt embedded asset is a build-time defect, not a runtime
// condition callers can recover from.
func NewProfiler() *Profiler {
	var table profileTable
	if err := yaml.Unmarshal(profilesYAML, &table); err != nil {
		panic(fmt.Sprintf("compress: invalid embedded profiles.yaml: %v", err))
	}
	byLevel := make(map[Level]Profile, len(table.Profiles))
	for _, p := range table.Profiles {
		byLevel[p.Level] = p
	}
	for _, required := range []Level{LevelLow, LevelMedium, LevelExtreme} {
		if _, ok := byLevel[required]; !ok {
			panic(fmt.Sprintf("compress: profiles.yaml missing level %q", required))
		}
	}
	return &Profiler{byLevel: byLevel}
}

// Resolve normalizes a raw compressionLevel option, falling back to
// DefaultLevel for an empty or unrecognized value.
func (p *Profiler) Resolve(raw string) Level {
	lvl := Level(raw)
	if _, ok := p.byLevel[lvl]; ok {
		return lvl
	}
	return DefaultLevel
}

// Profile returns the parameter set for a level.
func (p *Profiler) Profile(level Level) Profile {
	return p.byLevel[level]
}

// commonFlags are appended to every Ghostscript invocation regardless
// of level (spec.md §4.4).
var commonFlags = []string{
	"-sDEVICE=pdfwrite",
	"-dCompatibilityLevel=1.4",
	"-dNOPAUSE",
	"-dQUIET",
	"-dBATCH",
	"-dAutoFilterColorImages=false",
	"-dAutoFilterGrayImages=false",
	"-sColorImageFilter=/DCTEncode",
	"-sGrayImageFilter=/DCTEncode",
	"-dDownsampleColorImages=true",
	"-dColorImageDownsampleType=/Bicubic",
	"-dDownsampleGrayImages=true",
	"-dGrayImageDownsampleType=/Bicubic",
	"-dDownsampleMonoImages=true",
	"-dMonoImageDownsampleType=/Subsample",
	"-dDetectDuplicateImages=true",
	"-dCompressFonts=true",
	"-dSubsetFonts=true",
	"-dFastWebView=true",
}

var grayscaleFlags = []string{
	"-sProcessColorModel=DeviceGray",
	"-sColorConversionStrategy=Gray",
	"-dOverrideICC",
}

// BuildArgs assembles the full Ghostscript argument list for level,
// writing to outputPath and reading from inputPath. grayscale appends
// the optional monochrome conversion flags (spec.md §4.4).
func (p *Profiler) BuildArgs(level Level, grayscale bool, inputPath, outputPath string) []string {
	profile := p.Profile(level)

	args := make([]string, 0, len(commonFlags)+len(grayscaleFlags)+8)
	args = append(args, fmt.Sprintf("-dPDFSETTINGS=/%s", profile.Preset))
	args = append(args, commonFlags...)
	args = append(args,
		fmt.Sprintf("-dJPEGQ=%d", profile.JPEGQuality),
		fmt.Sprintf("-dColorImageResolution=%d", profile.ColorDPI),
		fmt.Sprintf("-dGrayImageResolution=%d", profile.GrayDPI),
		fmt.Sprintf("-dMonoImageResolution=%d", profile.MonoDPI),
	)
	if grayscale {
		args = append(args, grayscaleFlags...)
	}
	args = append(args, fmt.Sprintf("-sOutputFile=%s", outputPath), inputPath)
	return args
}
