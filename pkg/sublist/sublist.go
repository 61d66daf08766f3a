// Package sublist discovers imaging files on disk and indexes them into the
// participant data dictionary consumed by the QAP pipeline: participant ->
// session -> resource -> scan -> filepath, plus the collection site name.
package sublist

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resource types recognized in the data dictionary.
const (
	ResourceAnatomical = "anatomical_scan"
	ResourceFunctional = "functional_scan"
)

// Default scan labels used when a directory layout carries no series ID.
const (
	defaultAnatomicalScan = "anat_1"
	defaultFunctionalScan = "func_1"
	defaultSession        = "session_1"
)

// Session holds one session's scans, keyed by scan ID within each resource
// type, plus the site that collected it.
type Session struct {
	SiteName   string            `yaml:"site_name,omitempty"`
	Anatomical map[string]string `yaml:"anatomical_scan,omitempty"`
	Functional map[string]string `yaml:"functional_scan,omitempty"`
}

// DataDict is the participant data dictionary: participant ID -> session ID
// -> session contents.
type DataDict map[string]map[string]*Session

// Add records a filepath under the given identity, creating intermediate
// maps as needed. Existing entries are not overwritten, matching the
// first-wins behavior of the generator scripts.
func (d DataDict) Add(resource, site, participant, session, scan, path string) {
	if session == "" {
		session = defaultSession
	}
	if scan == "" {
		if resource == ResourceAnatomical {
			scan = defaultAnatomicalScan
		} else {
			scan = defaultFunctionalScan
		}
	}

	sessions := d[participant]
	if sessions == nil {
		sessions = make(map[string]*Session)
		d[participant] = sessions
	}

	sess := sessions[session]
	if sess == nil {
		sess = &Session{SiteName: site}
		sessions[session] = sess
	}

	switch resource {
	case ResourceAnatomical:
		if sess.Anatomical == nil {
			sess.Anatomical = make(map[string]string)
		}
		if _, ok := sess.Anatomical[scan]; !ok {
			sess.Anatomical[scan] = path
		}
	case ResourceFunctional:
		if sess.Functional == nil {
			sess.Functional = make(map[string]string)
		}
		if _, ok := sess.Functional[scan]; !ok {
			sess.Functional[scan] = path
		}
	}
}

// GatherFilepaths walks root and returns every NIfTI filepath found under
// it, in walk order.
func GatherFilepaths(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving site folder: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.Contains(d.Name(), ".nii") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking site folder %s: %w", root, err)
	}

	return paths, nil
}

// classify decides which resource type a file is based on its scan
// directory name and filename.
func classify(scanID, filename string) string {
	if strings.Contains(scanID, "anat") || strings.Contains(filename, "anat") ||
		strings.Contains(filename, "mprage") {
		return ResourceAnatomical
	}
	if strings.Contains(scanID, "rest") || strings.Contains(filename, "rest") ||
		strings.Contains(scanID, "func") || strings.Contains(filename, "func") {
		return ResourceFunctional
	}
	return ""
}

// ParseRawDataList indexes NIfTI filepaths laid out as
// .../site/participant/session/scan/file into a data dictionary. Paths
// whose trailing structure is too shallow to parse are skipped. inclusion,
// when non-empty, restricts the result to the listed participant IDs. An
// empty result is an error.
func ParseRawDataList(paths []string, siteFolder string, inclusion []string) (DataDict, error) {
	included := make(map[string]bool, len(inclusion))
	for _, id := range inclusion {
		included[id] = true
	}

	dict := make(DataDict)
	for _, fullpath := range paths {
		rel := strings.TrimPrefix(fullpath, siteFolder)
		segs := splitPath(rel)
		if len(segs) < 5 {
			continue
		}

		site := segs[len(segs)-5]
		participant := segs[len(segs)-4]
		session := segs[len(segs)-3]
		scan := segs[len(segs)-2]
		filename := segs[len(segs)-1]

		resource := classify(scan, filename)
		if resource == "" {
			continue
		}
		if len(included) > 0 && !included[participant] {
			continue
		}

		dict.Add(resource, site, participant, session, scan, fullpath)
	}

	if len(dict) == 0 {
		return nil, fmt.Errorf("no participants found under %s; check the directory layout", siteFolder)
	}

	return dict, nil
}

// Format placeholders recognized by GatherCustomRawData.
const (
	opSite        = "{site}"
	opParticipant = "{participant}"
	opSession     = "{session}"
	opSeries      = "{series}"
)

// GatherCustomRawData indexes filepaths whose directory layout is neither
// BIDS nor the site/participant/session/scan convention. format describes
// the layout positionally, e.g. "/{site}/{participant}/{session}/{series}",
// and the keyword lists classify each file as anatomical or functional by
// substring match against the filename or session ID.
func GatherCustomRawData(paths []string, baseFolder, format string, anatKeywords, funcKeywords []string) (DataDict, error) {
	formatSegs := splitPath(format)
	indices := make(map[string]int)
	for _, op := range []string{opSite, opParticipant, opSession, opSeries} {
		for i, seg := range formatSegs {
			if seg == op {
				indices[op] = i
				break
			}
		}
	}
	if _, ok := indices[opParticipant]; !ok {
		return nil, fmt.Errorf("directory format %q has no {participant} component", format)
	}

	dict := make(DataDict)
	for _, fullpath := range paths {
		segs := splitPath(strings.TrimPrefix(fullpath, baseFolder))
		if len(segs) == 0 {
			continue
		}
		filename := segs[len(segs)-1]

		pick := func(op string) string {
			i, ok := indices[op]
			if !ok || i >= len(segs) {
				return ""
			}
			return segs[i]
		}

		site := pick(opSite)
		participant := pick(opParticipant)
		session := pick(opSession)
		series := pick(opSeries)
		if participant == "" {
			continue
		}

		for _, word := range anatKeywords {
			if strings.Contains(filename, word) || strings.Contains(session, word) {
				dict.Add(ResourceAnatomical, site, participant, session, series, fullpath)
				break
			}
		}
		for _, word := range funcKeywords {
			if strings.Contains(filename, word) || strings.Contains(session, word) {
				dict.Add(ResourceFunctional, site, participant, session, series, fullpath)
				break
			}
		}
	}

	if len(dict) == 0 {
		return nil, fmt.Errorf("no data files matched the provided format and keywords")
	}

	return dict, nil
}

// splitPath splits a slash-delimited path into its non-empty segments.
func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(filepath.ToSlash(p), "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// WriteYAML writes a data dictionary to a YAML file, appending a .yml
// extension when the path has neither .yml nor .yaml.
func WriteYAML(dict DataDict, path string) (string, error) {
	if !strings.HasSuffix(path, ".yml") && !strings.HasSuffix(path, ".yaml") {
		path += ".yml"
	}

	data, err := yaml.Marshal(dict)
	if err != nil {
		return "", fmt.Errorf("marshaling sublist: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing sublist file: %w", err)
	}

	return path, nil
}

// ReadYAML loads a data dictionary from a YAML file.
func ReadYAML(path string) (DataDict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sublist file: %w", err)
	}

	var dict DataDict
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("parsing sublist file %s: %w", path, err)
	}

	return dict, nil
}
