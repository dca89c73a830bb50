package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/astralisone/astralis-core/pkg/models"
)

const invoiceTemplate = `
id: invoice-processing
name: Invoice Processing
version: 2
steps:
  - id: extract
    title: Extract invoice fields
  - id: review
    title: Review extracted data
  - id: archive
    title: Archive original
    optional: true
agent:
  directive: Process inbound invoices
  allowed_actions: [advance, update, noop]
  completion:
    kind: required_steps
    required_steps: [extract, review]
routing:
  pipeline_key: finance
  stage_key: intake
sla:
  default_priority: 3
`

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "invoice.yaml")
	if err := os.WriteFile(path, []byte(invoiceTemplate), 0644); err != nil {
		t.Fatalf("writing template file: %v", err)
	}

	tmpl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if tmpl.ID != "invoice-processing" {
		t.Errorf("expected id 'invoice-processing', got %q", tmpl.ID)
	}
	if tmpl.Version != 2 {
		t.Errorf("expected version 2, got %d", tmpl.Version)
	}
	if len(tmpl.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(tmpl.Steps))
	}
	if !tmpl.Steps[2].Optional {
		t.Error("expected third step to be optional")
	}
	if tmpl.Agent.Completion == nil {
		t.Fatal("expected completion criteria")
	}
	if tmpl.Agent.Completion.Kind != models.CriteriaRequiredSteps {
		t.Errorf("expected required_steps criteria, got %q", tmpl.Agent.Completion.Kind)
	}
	if tmpl.Routing.PipelineKey != "finance" {
		t.Errorf("expected pipeline 'finance', got %q", tmpl.Routing.PipelineKey)
	}
	if tmpl.SLA.DefaultPriority != 3 {
		t.Errorf("expected default priority 3, got %d", tmpl.SLA.DefaultPriority)
	}
}

func TestLoadFileDefaultsVersion(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "minimal.yaml")
	content := "id: minimal\nname: Minimal\nagent:\n  directive: do the thing\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing template file: %v", err)
	}

	tmpl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if tmpl.Version != 1 {
		t.Errorf("expected version to default to 1, got %d", tmpl.Version)
	}
}

func TestLoadFileRejectsUnknownStepReference(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.yaml")
	content := `
id: bad
name: Bad
steps:
  - id: only
    title: Only step
agent:
  directive: broken
  completion:
    kind: required_steps
    required_steps: [missing]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing template file: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for completion referencing unknown step")
	}
}

func TestLoadDirRejectsDuplicateIDs(t *testing.T) {
	tmpDir := t.TempDir()
	content := "id: dup\nname: Dup\nagent:\n  directive: x\n"
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing template file: %v", err)
		}
	}

	if _, err := LoadDir(tmpDir); err == nil {
		t.Error("expected error for duplicate template ids")
	}
}

func TestLoadDirSkipsNonYAML(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignore"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	content := "id: solo\nname: Solo\nagent:\n  directive: x\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "solo.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("writing template file: %v", err)
	}

	templates, err := LoadDir(tmpDir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(templates) != 1 {
		t.Errorf("expected 1 template, got %d", len(templates))
	}
}
