package ensemble

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pitch-edge/internal/features"
	"github.com/yourusername/pitch-edge/internal/models"
)

const (
	metadataFile = "metadata.json"
	treeFile     = "tree.json"
	poissonFile  = "poisson.json"
	currentFile  = "CURRENT"
)

// FeatureImportance pairs a feature name with its accumulated split gain.
type FeatureImportance struct {
	Name string  `json:"name"`
	Gain float64 `json:"gain"`
}

// Metadata describes one immutable model version.
type Metadata struct {
	PredictionType    models.PredictionType `json:"prediction_type"`
	Version           string                `json:"version"`
	TrainedAt         time.Time             `json:"trained_at"`
	TrainingRows      int                   `json:"training_rows"`
	FeatureNames      []string              `json:"feature_names"`
	Importance        []FeatureImportance   `json:"importance"`
	ValidationMetrics map[string]float64    `json:"validation_metrics"`
	BaseTreeWeight    float64               `json:"base_tree_weight"`
}

// Artifact bundles everything needed to serve one model version.
type Artifact struct {
	Metadata Metadata
	GBM      *GBM
	Poisson  *PoissonModel
}

// NewVersion produces a sortable, unique version string.
func NewVersion(now time.Time) string {
	return now.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

// ArtifactStore persists model versions under dir/{prediction_type}/{version}/
// with a CURRENT pointer file per prediction type. Versions are immutable:
// Save refuses to overwrite, and promotion is a pointer swap.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

func (s *ArtifactStore) typeDir(t models.PredictionType) string {
	return filepath.Join(s.dir, string(t))
}

func (s *ArtifactStore) versionDir(t models.PredictionType, version string) string {
	return filepath.Join(s.typeDir(t), version)
}

// Save writes a new model version to disk. The version directory must not
// already exist.
func (s *ArtifactStore) Save(a *Artifact) error {
	dir := s.versionDir(a.Metadata.PredictionType, a.Metadata.Version)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("model version %s already exists", a.Metadata.Version)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), a.Metadata); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, treeFile), a.GBM); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, poissonFile), a.Poisson); err != nil {
		return err
	}

	return nil
}

// Promote makes a saved version the current one for its prediction type.
// The pointer write is atomic (temp file + rename) so a reader never sees a
// partially written pointer.
func (s *ArtifactStore) Promote(t models.PredictionType, version string) error {
	if _, err := os.Stat(s.versionDir(t, version)); err != nil {
		return fmt.Errorf("cannot promote missing version %s: %w", version, err)
	}

	pointer := filepath.Join(s.typeDir(t), currentFile)
	tmp := pointer + ".tmp"
	if err := os.WriteFile(tmp, []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write current pointer: %w", err)
	}
	if err := os.Rename(tmp, pointer); err != nil {
		return fmt.Errorf("failed to swap current pointer: %w", err)
	}

	return nil
}

// CurrentVersion reads the promoted version for a prediction type.
func (s *ArtifactStore) CurrentVersion(t models.PredictionType) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.typeDir(t), currentFile))
	if err != nil {
		return "", fmt.Errorf("no current model for %s: %w", t, models.ErrModelUnavailable)
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", fmt.Errorf("empty current pointer for %s: %w", t, models.ErrModelUnavailable)
	}
	return version, nil
}

// Load reads one model version and validates it against the serving feature
// list. A missing or corrupt artifact, or a feature list drift, surfaces as
// models.ErrModelUnavailable so callers can skip predictions cleanly.
func (s *ArtifactStore) Load(t models.PredictionType, version string) (*Artifact, error) {
	dir := s.versionDir(t, version)

	a := &Artifact{GBM: &GBM{}, Poisson: &PoissonModel{}}
	if err := readJSON(filepath.Join(dir, metadataFile), &a.Metadata); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, treeFile), a.GBM); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, poissonFile), a.Poisson); err != nil {
		return nil, err
	}

	if err := validateFeatureNames(a.Metadata.FeatureNames); err != nil {
		return nil, fmt.Errorf("model version %s: %w", version, err)
	}
	if a.GBM.FeatureCount != len(a.Metadata.FeatureNames) {
		return nil, fmt.Errorf("model version %s: tree expects %d features, metadata lists %d: %w",
			version, a.GBM.FeatureCount, len(a.Metadata.FeatureNames), models.ErrModelUnavailable)
	}

	return a, nil
}

// LoadCurrent loads the promoted version for a prediction type.
func (s *ArtifactStore) LoadCurrent(t models.PredictionType) (*Artifact, error) {
	version, err := s.CurrentVersion(t)
	if err != nil {
		return nil, err
	}
	return s.Load(t, version)
}

// ListVersions returns all saved versions for a type, oldest first.
func (s *ArtifactStore) ListVersions(t models.PredictionType) ([]string, error) {
	entries, err := os.ReadDir(s.typeDir(t))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list model versions: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if entry.IsDir() {
			versions = append(versions, entry.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Prune removes the oldest versions beyond keep, never touching the current
// pointer's target.
func (s *ArtifactStore) Prune(t models.PredictionType, keep int) error {
	versions, err := s.ListVersions(t)
	if err != nil {
		return err
	}
	if len(versions) <= keep {
		return nil
	}

	current, _ := s.CurrentVersion(t)

	for _, version := range versions[:len(versions)-keep] {
		if version == current {
			continue
		}
		if err := os.RemoveAll(s.versionDir(t, version)); err != nil {
			return fmt.Errorf("failed to prune version %s: %w", version, err)
		}
	}
	return nil
}

// validateFeatureNames fails fast when a stored model was trained against a
// different feature list than this binary computes.
func validateFeatureNames(stored []string) error {
	current := features.FeatureNames()
	if len(stored) != len(current) {
		return fmt.Errorf("feature list drift: model has %d features, engine computes %d: %w",
			len(stored), len(current), models.ErrModelUnavailable)
	}
	for i := range stored {
		if stored[i] != current[i] {
			return fmt.Errorf("feature list drift at position %d: model %q, engine %q: %w",
				i, stored[i], current[i], models.ErrModelUnavailable)
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), models.ErrModelUnavailable)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corrupt artifact %s: %w", filepath.Base(path), models.ErrModelUnavailable)
	}
	return nil
}
