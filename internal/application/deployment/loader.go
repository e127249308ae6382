// Package deployment deploys case configuration found in a directory at startup.
//
// The directory holds one sub directory per kind:
//
//	document-definitions/*.json|yaml   JSON schema of a document definition
//	forms/*.json|yaml                  form.io definition, named after the file
//	process-document-links/*.json|yaml list of process to document definition links
//	form-links/*.json|yaml             list of form associations
//
// Document definitions and forms deployed this way are read-only.
package deployment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	appdocument "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/document"
	appform "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/form"
	appformlink "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/formlink"
	appprocess "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/processdocument"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	dirDocumentDefinitions = "document-definitions"
	dirForms               = "forms"
	dirProcessLinks        = "process-document-links"
	dirFormLinks           = "form-links"
)

// DefinitionDeployer deploys document definitions
type DefinitionDeployer interface {
	Deploy(ctx context.Context, req appdocument.DeployDefinitionRequest, readOnly bool) (*appdocument.DeployResult, error)
}

// FormDeployer deploys forms
type FormDeployer interface {
	Deploy(ctx context.Context, name string, definition json.RawMessage) (*appform.FormResponse, error)
}

// ProcessLinkDeployer deploys process-document links
type ProcessLinkDeployer interface {
	DeployDefinition(ctx context.Context, req appprocess.CreateDefinitionRequest) (*appprocess.DefinitionResponse, error)
}

// FormLinkDeployer deploys form associations
type FormLinkDeployer interface {
	Deploy(ctx context.Context, req appformlink.CreateAssociationRequest) (*appformlink.AssociationResponse, error)
}

// Report counts deployed and failed files
type Report struct {
	Deployed int
	Failed   int
}

// Loader deploys the files of a directory through the application services
type Loader struct {
	definitions  DefinitionDeployer
	forms        FormDeployer
	processLinks ProcessLinkDeployer
	formLinks    FormLinkDeployer
	logger       *zap.Logger
}

// NewLoader creates a new Loader
func NewLoader(
	definitions DefinitionDeployer,
	forms FormDeployer,
	processLinks ProcessLinkDeployer,
	formLinks FormLinkDeployer,
	logger *zap.Logger,
) *Loader {
	return &Loader{
		definitions:  definitions,
		forms:        forms,
		processLinks: processLinks,
		formLinks:    formLinks,
		logger:       logger,
	}
}

// Deploy walks the kinds in dependency order. A failing file is logged and
// skipped; only an unreadable directory is returned as error.
func (l *Loader) Deploy(ctx context.Context, fsys fs.FS) (Report, error) {
	var report Report
	steps := []struct {
		dir    string
		deploy func(ctx context.Context, name string, data []byte, yamlFile bool) error
	}{
		{dirDocumentDefinitions, l.deployDefinition},
		{dirForms, l.deployForm},
		{dirProcessLinks, l.deployProcessLinks},
		{dirFormLinks, l.deployFormLinks},
	}

	for _, step := range steps {
		files, err := deploymentFiles(fsys, step.dir)
		if err != nil {
			return report, err
		}
		for _, file := range files {
			data, err := fs.ReadFile(fsys, file)
			if err == nil {
				name, ext := splitName(file)
				err = step.deploy(ctx, name, data, ext != ".json")
			}
			if err != nil {
				report.Failed++
				l.logger.Error("Deployment of file failed", zap.String("file", file), zap.Error(err))
				continue
			}
			report.Deployed++
			l.logger.Info("Deployed file", zap.String("file", file))
		}
	}
	return report, nil
}

func (l *Loader) deployDefinition(ctx context.Context, _ string, data []byte, yamlFile bool) error {
	schema, err := toJSON(data, yamlFile)
	if err != nil {
		return err
	}
	_, err = l.definitions.Deploy(ctx, appdocument.DeployDefinitionRequest{Schema: schema}, true)
	return err
}

func (l *Loader) deployForm(ctx context.Context, name string, data []byte, yamlFile bool) error {
	definition, err := toJSON(data, yamlFile)
	if err != nil {
		return err
	}
	_, err = l.forms.Deploy(ctx, name, definition)
	return err
}

func (l *Loader) deployProcessLinks(ctx context.Context, _ string, data []byte, _ bool) error {
	var links []appprocess.CreateDefinitionRequest
	if err := yaml.Unmarshal(data, &links); err != nil {
		return fmt.Errorf("decode process-document links: %w", err)
	}
	for _, link := range links {
		if _, err := l.processLinks.DeployDefinition(ctx, link); err != nil {
			return fmt.Errorf("link %s to %s: %w", link.ProcessDefinitionKey, link.DocumentDefinitionName, err)
		}
	}
	return nil
}

func (l *Loader) deployFormLinks(ctx context.Context, _ string, data []byte, _ bool) error {
	var associations []appformlink.CreateAssociationRequest
	if err := yaml.Unmarshal(data, &associations); err != nil {
		return fmt.Errorf("decode form links: %w", err)
	}
	for _, a := range associations {
		if _, err := l.formLinks.Deploy(ctx, a); err != nil {
			return fmt.Errorf("form link %s/%s: %w", a.ProcessDefinitionKey, a.FormLink.ID, err)
		}
	}
	return nil
}

// toJSON returns JSON files as is and converts YAML documents to JSON
func toJSON(data []byte, yamlFile bool) (json.RawMessage, error) {
	if !yamlFile {
		if !json.Valid(data) {
			return nil, errors.New("invalid JSON")
		}
		return data, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return json.Marshal(doc)
}

func deploymentFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func splitName(file string) (string, string) {
	base := path.Base(file)
	ext := strings.ToLower(path.Ext(base))
	return strings.TrimSuffix(base, path.Ext(base)), ext
}
