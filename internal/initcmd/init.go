// Package initcmd scaffolds a new site from one of the embedded starter
// templates.
package initcmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/3-lines-studio/rendr/internal/adapters/cli"
	"github.com/3-lines-studio/rendr/internal/config"
	"github.com/3-lines-studio/rendr/internal/templates"
)

// loaders maps each starter template to the loader its sources need.
var loaders = map[string]string{
	"js": config.LoaderBun,
	"go": config.LoaderGo,
}

func Run(projectDir string, templateName string, output *cli.Output) error {
	output.PrintHeader("rendr init")

	if _, err := os.Stat(projectDir); err == nil {
		entries, err := os.ReadDir(projectDir)
		if err != nil {
			return fmt.Errorf("failed to read directory: %w", err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("directory '%s' already exists and is not empty", projectDir)
		}
	}

	templateFS, err := templates.GetTemplate(templateName)
	if err != nil {
		if errors.Is(err, templates.ErrInvalidTemplate) {
			return fmt.Errorf("invalid template '%s', expected one of %v", templateName, templates.Names())
		}
		return err
	}

	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	data := templates.TemplateData{
		Name:   templates.DeriveName(projectDir),
		Loader: loaders[templateName],
	}

	createdCount := 0

	err = fs.WalkDir(templateFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		content, err := fs.ReadFile(templateFS, path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		targetPath, isTemplate := templates.ProcessFilename(path)
		targetPath = filepath.Join(projectDir, filepath.FromSlash(targetPath))

		if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(targetPath), err)
		}
		if err := os.WriteFile(targetPath, templates.ProcessContent(content, isTemplate, data), 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", targetPath, err)
		}

		if isTemplate {
			output.PrintFile(targetPath + " (generated)")
		} else {
			output.PrintFile(targetPath)
		}
		createdCount++

		return nil
	})
	if err != nil {
		return err
	}

	output.PrintSuccess("Created %d files using '%s' template", createdCount, templateName)

	w := output.Writer()
	fmt.Fprintln(w)
	output.PrintStep("", "Next steps:")
	fmt.Fprintf(w, "    cd %s\n", projectDir)
	fmt.Fprintf(w, "    rendr serve\n")
	fmt.Fprintln(w)

	return nil
}
