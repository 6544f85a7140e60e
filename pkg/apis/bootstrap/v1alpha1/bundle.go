package v1alpha1

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// ContextBundleSchema tags the bundle layout version.
	ContextBundleSchema = "orchwiz.context/v1alpha1"
	// ContextBundleEncoding names the wire encoding of an encoded bundle.
	ContextBundleEncoding = "base64+json"
	// ManifestFileName is the generated file prefixed to every bundle.
	ManifestFileName = "manifest.md"
	// CatchAllFileName holds role text that has no per-file headings.
	CatchAllFileName = "role.md"
)

// headingRegex matches heading lines of the form <name>.md that split role
// text into per-file sections.
var headingRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.md$`)

// BundleFile is one named instruction file within a context bundle.
type BundleFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ContextBundle is the set of per-role instruction files injected into
// running workloads as environment context. It exists only transiently
// between construction and injection.
type ContextBundle struct {
	// Schema tags the bundle layout version.
	Schema string `json:"schema"`
	// Source tags where the role text came from.
	Source string `json:"source"`
	// DeploymentID identifies the deployment the bundle belongs to.
	DeploymentID string `json:"deploymentId"`
	// GeneratedAt is the bundle generation timestamp.
	GeneratedAt time.Time `json:"generatedAt"`
	// Files is the ordered file list, always starting with the manifest.
	Files []BundleFile `json:"files"`
}

// BuildContextBundle splits role text into a bundle. Lines consisting solely
// of a <name>.md heading start a new file with that name; text before the
// first heading, or all text when no headings exist, lands in a catch-all
// file. A generated manifest is always the first file.
func BuildContextBundle(deploymentID, source, roleText string) ContextBundle {
	bundle := ContextBundle{
		Schema:       ContextBundleSchema,
		Source:       source,
		DeploymentID: deploymentID,
		GeneratedAt:  time.Now().UTC(),
	}

	files := splitRoleText(roleText)
	bundle.Files = append([]BundleFile{manifestFor(bundle, files)}, files...)

	return bundle
}

// Encode serializes the bundle for transport as a single environment value.
func (b ContextBundle) Encode() (string, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to marshal context bundle: %w", err)
	}

	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeContextBundle reverses Encode, reproducing the identical deployment
// id and ordered file list.
func DecodeContextBundle(encoded string) (ContextBundle, error) {
	if strings.TrimSpace(encoded) == "" {
		return ContextBundle{}, ErrBundleEmpty
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ContextBundle{}, fmt.Errorf("failed to decode context bundle: %w", err)
	}

	var bundle ContextBundle

	err = json.Unmarshal(payload, &bundle)
	if err != nil {
		return ContextBundle{}, fmt.Errorf("failed to unmarshal context bundle: %w", err)
	}

	return bundle, nil
}

// --- internals ---

func splitRoleText(roleText string) []BundleFile {
	var (
		files   []BundleFile
		current *BundleFile
		pending []string
	)

	flush := func() {
		if current != nil {
			current.Content = strings.TrimRight(strings.Join(pending, "\n"), "\n")
			files = append(files, *current)
		} else if preamble := strings.TrimSpace(strings.Join(pending, "\n")); preamble != "" {
			files = append(files, BundleFile{
				Path:    CatchAllFileName,
				Content: strings.TrimRight(strings.Join(pending, "\n"), "\n"),
			})
		}

		pending = nil
	}

	for _, line := range strings.Split(roleText, "\n") {
		trimmed := strings.TrimSpace(line)
		if headingRegex.MatchString(trimmed) {
			flush()
			current = &BundleFile{Path: trimmed}

			continue
		}

		pending = append(pending, line)
	}

	flush()

	return files
}

func manifestFor(bundle ContextBundle, files []BundleFile) BundleFile {
	var builder strings.Builder

	builder.WriteString("# Context bundle manifest\n\n")
	fmt.Fprintf(&builder, "- schema: %s\n", bundle.Schema)
	fmt.Fprintf(&builder, "- source: %s\n", bundle.Source)
	fmt.Fprintf(&builder, "- deployment: %s\n", bundle.DeploymentID)
	fmt.Fprintf(&builder, "- generatedAt: %s\n", bundle.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&builder, "- files: %d\n", len(files))

	for _, file := range files {
		fmt.Fprintf(&builder, "  - %s\n", file.Path)
	}

	return BundleFile{Path: ManifestFileName, Content: builder.String()}
}
