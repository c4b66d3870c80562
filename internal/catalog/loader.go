package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	id "govnav/pkg/domain"
)

// Load reads every *.yaml file in dir and builds a validated snapshot.
// Files are read in lexical order, which fixes the catalog insertion order
// used for deterministic ranking tie-breaks. Each document is validated as it
// is read, so a configuration error names the offending file.
func Load(dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	var services []*ServiceDefinition
	var forms []*FormDefinition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		svc, form, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if err := validateService(svc); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		services = append(services, svc)
		if form != nil {
			if err := validateForm(form); err != nil {
				return nil, fmt.Errorf("%s: %w", entry.Name(), err)
			}
			forms = append(forms, form)
		}
	}

	return NewSnapshot(services, forms)
}

// Parse decodes one catalog document (a service plus its optional form).
func Parse(raw []byte) (*ServiceDefinition, *FormDefinition, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Service == nil {
		return nil, nil, fmt.Errorf("document has no service block")
	}

	svc, err := doc.Service.toModel()
	if err != nil {
		return nil, nil, err
	}

	var form *FormDefinition
	if doc.Form != nil {
		form = doc.Form.toModel(svc.ID)
	}
	return svc, form, nil
}

// YAML decoding shapes. Kept separate from the domain models so the file
// format can evolve without touching evaluation code.

type catalogFile struct {
	Service *serviceFile `yaml:"service"`
	Form    *formFile    `yaml:"form"`
}

type serviceFile struct {
	ID             string            `yaml:"id"`
	Version        int               `yaml:"version"`
	NameKey        string            `yaml:"name_key"`
	DescriptionKey string            `yaml:"description_key"`
	Category       string            `yaml:"category"`
	Requirements   []requirementFile `yaml:"requirements"`
	Documents      []documentFile    `yaml:"documents"`
}

type requirementFile struct {
	ID            string        `yaml:"id"`
	Type          string        `yaml:"type"`
	Mandatory     bool          `yaml:"mandatory"`
	SkipIfUnknown bool          `yaml:"skip_if_unknown"`
	Condition     conditionFile `yaml:"condition"`
}

type conditionFile struct {
	Field  string `yaml:"field"`
	Op     string `yaml:"op"`
	Value  any    `yaml:"value"`
	Values []any  `yaml:"values"`
	Range  []any  `yaml:"range"`
}

type documentFile struct {
	ID       string `yaml:"id"`
	NameKey  string `yaml:"name_key"`
	Required bool   `yaml:"required"`
}

type formFile struct {
	Version int        `yaml:"version"`
	Steps   []stepFile `yaml:"steps"`
}

type stepFile struct {
	ID       string      `yaml:"id"`
	TitleKey string      `yaml:"title_key"`
	Fields   []fieldFile `yaml:"fields"`
}

type fieldFile struct {
	ID       string    `yaml:"id"`
	LabelKey string    `yaml:"label_key"`
	Type     string    `yaml:"type"`
	Required bool      `yaml:"required"`
	Options  []string  `yaml:"options"`
	Rules    rulesFile `yaml:"rules"`
}

type rulesFile struct {
	MinLength *int     `yaml:"min_length"`
	MaxLength *int     `yaml:"max_length"`
	Pattern   string   `yaml:"pattern"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	NotBefore string   `yaml:"not_before"`
	NotAfter  string   `yaml:"not_after"`
}

func (f *serviceFile) toModel() (*ServiceDefinition, error) {
	svc := &ServiceDefinition{
		ID:             id.ServiceID(f.ID),
		Version:        f.Version,
		NameKey:        f.NameKey,
		DescriptionKey: f.DescriptionKey,
		Category:       f.Category,
	}
	for _, req := range f.Requirements {
		cond, err := req.Condition.toModel()
		if err != nil {
			return nil, fmt.Errorf("service %q requirement %q: %w", f.ID, req.ID, err)
		}
		svc.Requirements = append(svc.Requirements, Requirement{
			ID:            id.RequirementID(req.ID),
			Type:          RequirementType(req.Type),
			Condition:     cond,
			Mandatory:     req.Mandatory,
			SkipIfUnknown: req.SkipIfUnknown,
		})
	}
	for _, doc := range f.Documents {
		svc.Documents = append(svc.Documents, DocumentRequirement{
			ID:       doc.ID,
			NameKey:  doc.NameKey,
			Required: doc.Required,
		})
	}
	return svc, nil
}

func (f *conditionFile) toModel() (Condition, error) {
	cond := Condition{
		Field:    f.Field,
		Operator: Operator(f.Op),
	}
	switch cond.Operator {
	case OpIn:
		for _, raw := range f.Values {
			v, err := valueFromAny(raw)
			if err != nil {
				return Condition{}, err
			}
			cond.Values = append(cond.Values, v)
		}
	case OpBetween:
		if len(f.Range) != 2 {
			return Condition{}, fmt.Errorf("between requires a two-element range, got %d", len(f.Range))
		}
		for i, raw := range f.Range {
			v, err := valueFromAny(raw)
			if err != nil {
				return Condition{}, err
			}
			cond.Range[i] = v
		}
	default:
		v, err := valueFromAny(f.Value)
		if err != nil {
			return Condition{}, err
		}
		cond.Value = v
	}
	return cond, nil
}

func (f *formFile) toModel(serviceID id.ServiceID) *FormDefinition {
	form := &FormDefinition{
		ServiceID: serviceID,
		Version:   f.Version,
	}
	for _, step := range f.Steps {
		s := Step{ID: step.ID, TitleKey: step.TitleKey}
		for _, fld := range step.Fields {
			s.Fields = append(s.Fields, Field{
				ID:       id.FieldID(fld.ID),
				LabelKey: fld.LabelKey,
				Type:     FieldType(fld.Type),
				Required: fld.Required,
				Options:  fld.Options,
				Rules: ValidationRules{
					MinLength: fld.Rules.MinLength,
					MaxLength: fld.Rules.MaxLength,
					Pattern:   fld.Rules.Pattern,
					Min:       fld.Rules.Min,
					Max:       fld.Rules.Max,
					NotBefore: fld.Rules.NotBefore,
					NotAfter:  fld.Rules.NotAfter,
				},
			})
		}
		form.Steps = append(form.Steps, s)
	}
	return form
}
