// Package catalog holds the milestone templates new projects are seeded from.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

//go:embed templates.yaml
var embeddedTemplates []byte

var (
	// ErrUnknownProjectType is returned by Lookup for a type without a template.
	ErrUnknownProjectType = errors.New("unknown project type")
	// ErrInvalidCatalog wraps every schema problem found while loading templates.
	ErrInvalidCatalog = errors.New("invalid milestone template catalog")
)

// Catalog is the immutable set of milestone templates keyed by project type.
type Catalog struct {
	templates map[models.ProjectType]models.MilestoneTemplate
}

// Default loads the templates compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(embeddedTemplates))
}

// LoadFile loads templates from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a YAML template list. Every project type must have
// exactly one template, orders must run 1..n and every milestone needs at least one
// required document.
func Load(r io.Reader) (*Catalog, error) {
	var templates []models.MilestoneTemplate
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&templates); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{templates: make(map[models.ProjectType]models.MilestoneTemplate, len(templates))}
	var problems []string
	for _, tpl := range templates {
		if _, dup := c.templates[tpl.ProjectType]; dup {
			problems = append(problems, fmt.Sprintf("duplicate template for %q", tpl.ProjectType))
			continue
		}
		normalized, issues := normalizeTemplate(tpl)
		problems = append(problems, issues...)
		c.templates[tpl.ProjectType] = normalized
	}
	for _, pt := range models.ProjectTypes() {
		if _, ok := c.templates[pt]; !ok {
			problems = append(problems, fmt.Sprintf("no template for %q", pt))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return c, nil
}

func normalizeTemplate(tpl models.MilestoneTemplate) (models.MilestoneTemplate, []string) {
	var problems []string
	if !isProjectType(tpl.ProjectType) {
		problems = append(problems, fmt.Sprintf("unknown project type %q", tpl.ProjectType))
	}
	if len(tpl.Milestones) == 0 {
		problems = append(problems, fmt.Sprintf("%s: template has no milestones", tpl.ProjectType))
	}

	milestones := append([]models.MilestoneDefinition(nil), tpl.Milestones...)
	sort.SliceStable(milestones, func(i, j int) bool { return milestones[i].Order < milestones[j].Order })

	seen := make(map[string]struct{})
	for i := range milestones {
		m := &milestones[i]
		if m.Order != i+1 {
			problems = append(problems, fmt.Sprintf("%s: milestone %q has order %d, want %d", tpl.ProjectType, m.Name, m.Order, i+1))
		}
		if strings.TrimSpace(m.Name) == "" {
			problems = append(problems, fmt.Sprintf("%s: milestone %d has no name", tpl.ProjectType, m.Order))
		}
		if len(m.RequiredDocuments) == 0 {
			problems = append(problems, fmt.Sprintf("%s: milestone %q has no required documents", tpl.ProjectType, m.Name))
		}
		docs := make([]models.DocumentDefinition, len(m.RequiredDocuments))
		for j, doc := range m.RequiredDocuments {
			if doc.ID == "" {
				problems = append(problems, fmt.Sprintf("%s: document %q has no id", tpl.ProjectType, doc.Name))
			} else if _, dup := seen[doc.ID]; dup {
				problems = append(problems, fmt.Sprintf("%s: document id %q is not unique", tpl.ProjectType, doc.ID))
			}
			seen[doc.ID] = struct{}{}
			if doc.MaxSizeMB < 0 {
				problems = append(problems, fmt.Sprintf("%s: document %q has negative size limit", tpl.ProjectType, doc.ID))
			}
			doc.FileTypes = normalizeFileTypes(doc.FileTypes)
			docs[j] = doc
		}
		m.RequiredDocuments = docs
	}
	tpl.Milestones = milestones
	return tpl, problems
}

func normalizeFileTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, ".") {
			t = "." + t
		}
		out = append(out, t)
	}
	return out
}

func isProjectType(pt models.ProjectType) bool {
	for _, known := range models.ProjectTypes() {
		if pt == known {
			return true
		}
	}
	return false
}

// Lookup returns the template for pt. The result is a copy callers may modify.
func (c *Catalog) Lookup(pt models.ProjectType) (models.MilestoneTemplate, error) {
	tpl, ok := c.templates[pt]
	if !ok {
		return models.MilestoneTemplate{}, fmt.Errorf("%w: %q", ErrUnknownProjectType, pt)
	}
	return cloneTemplate(tpl), nil
}

// Templates returns every template in project type order.
func (c *Catalog) Templates() []models.MilestoneTemplate {
	out := make([]models.MilestoneTemplate, 0, len(c.templates))
	for _, pt := range models.ProjectTypes() {
		if tpl, ok := c.templates[pt]; ok {
			out = append(out, cloneTemplate(tpl))
		}
	}
	return out
}

// Instantiate seeds milestones for a new project of type pt, each required document
// starting with an empty ledger. limit keeps only the first n milestones; zero keeps all.
func (c *Catalog) Instantiate(projectID string, pt models.ProjectType, limit int, newID func() string) ([]models.Milestone, error) {
	tpl, err := c.Lookup(pt)
	if err != nil {
		return nil, err
	}
	defs := tpl.Milestones
	if limit > 0 && limit < len(defs) {
		defs = defs[:limit]
	}

	milestones := make([]models.Milestone, 0, len(defs))
	for _, def := range defs {
		m := models.Milestone{
			ID:                 newID(),
			ProjectID:          projectID,
			Name:               def.Name,
			Description:        def.Description,
			Order:              def.Order,
			CompletionCriteria: def.CompletionCriteria,
			Status:             models.MilestoneNotStarted,
		}
		m.RequiredDocuments = make([]models.RequiredDocument, 0, len(def.RequiredDocuments))
		for _, doc := range def.RequiredDocuments {
			m.RequiredDocuments = append(m.RequiredDocuments, models.RequiredDocument{
				ID:           newID(),
				MilestoneID:  m.ID,
				DefinitionID: doc.ID,
				Name:         doc.Name,
				Description:  doc.Description,
				FileTypes:    append([]string(nil), doc.FileTypes...),
				MaxSizeMB:    doc.MaxSizeMB,
			})
		}
		milestones = append(milestones, m)
	}
	return milestones, nil
}

func cloneTemplate(tpl models.MilestoneTemplate) models.MilestoneTemplate {
	out := models.MilestoneTemplate{ProjectType: tpl.ProjectType}
	out.Milestones = make([]models.MilestoneDefinition, len(tpl.Milestones))
	for i, m := range tpl.Milestones {
		docs := make([]models.DocumentDefinition, len(m.RequiredDocuments))
		for j, d := range m.RequiredDocuments {
			d.FileTypes = append([]string(nil), d.FileTypes...)
			docs[j] = d
		}
		m.RequiredDocuments = docs
		out.Milestones[i] = m
	}
	return out
}
